package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ayusman/aircanvas/internal/printer"
	"github.com/ayusman/aircanvas/internal/store"
)

var (
	savesLimit    int
	savesSession  string
	savesOutput   string
	savesKeepFile bool
	sessionsLimit int
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "List saved images",
	Long: `List the images exported by drawing sessions, newest first.

Output Formats:
  default - Human-readable table
  jsonl   - Line-delimited JSON, one save per line

Examples:
  # The ten most recent saves
  aircanvas saves --limit 10

  # Everything from one session as JSONL
  aircanvas saves --session 3f2c... -o jsonl`,
	Args: cobra.NoArgs,
	RunE: runSaves,
}

var savesRmCmd = &cobra.Command{
	Use:   "rm SAVE_ID...",
	Short: "Delete saved images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSavesRm,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List drawing sessions with their statistics",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

func init() {
	savesCmd.Flags().IntVarP(&savesLimit, "limit", "l", 20, "Maximum saves to show (0 for all)")
	savesCmd.Flags().StringVarP(&savesSession, "session", "s", "", "Only saves from this session")
	savesCmd.Flags().StringVarP(&savesOutput, "output", "o", "default", "Output format: default or jsonl")
	savesRmCmd.Flags().BoolVar(&savesKeepFile, "keep-file", false, "Remove the catalog entry but keep the image")
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Maximum sessions to show (0 for all)")

	savesCmd.AddCommand(savesRmCmd)
	rootCmd.AddCommand(savesCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// withStore opens the configured catalog for the duration of fn.
func withStore(fn func(st *store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func runSaves(cmd *cobra.Command, args []string) error {
	if savesOutput != "default" && savesOutput != "jsonl" {
		return printer.Error("Invalid output format", fmt.Sprintf("%q is not supported", savesOutput),
			"Use --output=default or --output=jsonl")
	}

	return withStore(func(st *store.Store) error {
		var (
			saves []*store.Save
			err   error
		)
		if savesSession != "" {
			saves, err = st.Saves().ListBySession(savesSession)
		} else {
			saves, err = st.Saves().List(savesLimit)
		}
		if err != nil {
			return printer.Error("Failed to list saves", err.Error())
		}

		if savesOutput == "jsonl" {
			return writeJSONL(cmd.OutOrStdout(), saves)
		}
		if len(saves) == 0 {
			printer.Info("No saves yet. Press 's' in a session to save.\n")
			return nil
		}
		printSaves(cmd.OutOrStdout(), saves)
		return nil
	})
}

func printSaves(w io.Writer, saves []*store.Save) {
	rows := make([][]string, 0, len(saves))
	for _, sv := range saves {
		rows = append(rows, []string{
			sv.ID,
			humanize.Time(sv.CreatedAt),
			string(sv.Kind),
			fmt.Sprintf("%dx%d", sv.Width, sv.Height),
			humanize.IBytes(uint64(sv.Bytes)),
			sv.Path,
		})
	}
	printer.Table(w, []string{"ID", "CREATED", "KIND", "SIZE", "BYTES", "PATH"}, rows)
}

func writeJSONL[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func runSavesRm(cmd *cobra.Command, args []string) error {
	return withStore(func(st *store.Store) error {
		var failed int
		for _, id := range args {
			sv, err := st.Saves().GetByID(id)
			if err == nil {
				err = st.Saves().Delete(id)
			}
			if err != nil {
				failed++
				if errors.Is(err, store.ErrNotFound) {
					printer.Warning("Save %s not found\n", id)
				} else {
					printer.Warning("Failed to delete %s: %v\n", id, err)
				}
				continue
			}

			if !savesKeepFile {
				if err := os.Remove(sv.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
					printer.Warning("Deleted %s but could not remove %s: %v\n", id, sv.Path, err)
					continue
				}
			}
			printer.Success("Deleted %s\n", id)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d saves not deleted", failed, len(args))
		}
		return nil
	})
}

func runSessions(cmd *cobra.Command, args []string) error {
	return withStore(func(st *store.Store) error {
		sessions, err := st.Sessions().List(sessionsLimit)
		if err != nil {
			return printer.Error("Failed to list sessions", err.Error())
		}
		if len(sessions) == 0 {
			printer.Info("No sessions recorded yet.\n")
			return nil
		}

		rows := make([][]string, 0, len(sessions))
		for _, s := range sessions {
			duration := "running"
			if s.EndedAt != nil {
				duration = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
			}
			rows = append(rows, []string{
				s.ID,
				s.StartedAt.Local().Format(time.DateTime),
				duration,
				s.User,
				strconv.Itoa(s.Frames),
				fmt.Sprintf("%.1f", s.MeanFPS),
				fmt.Sprintf("%.0fms", s.P95LatencyMS),
				strconv.FormatUint(s.Dropped, 10),
			})
		}
		printer.Table(cmd.OutOrStdout(), []string{"ID", "STARTED", "DURATION", "USER", "FRAMES", "FPS", "P95", "DROPPED"}, rows)
		return nil
	})
}
