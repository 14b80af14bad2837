package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/aircanvas/internal/config"
	"github.com/ayusman/aircanvas/internal/printer"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aircanvas",
	Short: "AirCanvas - draw in the air with your hands",
	Long: `AirCanvas turns a webcam into a drawing surface. Point with your index
finger to draw, pinch to place shapes, make a fist to pause and swipe to
change slides.

A local HTTP server exposes the live preview, the drawing state and a
command API; saved images are catalogued in a SQLite database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
}

// loadConfig reads --config and the environment, printing a formatted
// error when the result is invalid.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, printer.Error("Invalid configuration", err.Error(),
			fmt.Sprintf("Fix the file passed with --config or the %s_* environment variables", config.EnvPrefix))
	}
	return cfg, nil
}
