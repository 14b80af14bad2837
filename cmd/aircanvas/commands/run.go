package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/capture"
	"github.com/ayusman/aircanvas/internal/config"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/logging"
	"github.com/ayusman/aircanvas/internal/metrics"
	"github.com/ayusman/aircanvas/internal/plugin"
	"github.com/ayusman/aircanvas/internal/printer"
	"github.com/ayusman/aircanvas/internal/server"
	"github.com/ayusman/aircanvas/internal/store"
	"github.com/ayusman/aircanvas/internal/tray"
)

var (
	runUser     string
	runDevice   int
	runNoWindow bool
	runNoServer bool
	runAddr     string
	runTray     bool
	runSlides   string
	runImport   string
	runAuto     time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a drawing session",
	Long: `Start a drawing session on the webcam.

Window keys:
  q quit   s save   t save transparent   u undo   r redo   c clear
  e eraser   f free draw   1-6 shapes   + / - brush size   g background
  m mirror   l landmarks   p slides   a auto-capture   esc cancel shape

Examples:
  # Draw with the default camera and open the preview at http://127.0.0.1:8080
  aircanvas run

  # Present a folder of slides without the local window
  aircanvas run --slides ~/talk --no-window

  # Save a composite every 30 seconds
  aircanvas run --auto-capture 30s`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVarP(&runUser, "user", "u", "", "Name embedded in saved file names")
	runCmd.Flags().IntVar(&runDevice, "device", -1, "Camera device index")
	runCmd.Flags().BoolVar(&runNoWindow, "no-window", false, "Do not open the local preview window")
	runCmd.Flags().BoolVar(&runNoServer, "no-server", false, "Do not start the HTTP server")
	runCmd.Flags().StringVar(&runAddr, "addr", "", "HTTP listen address")
	runCmd.Flags().BoolVar(&runTray, "tray", false, "Show a system tray menu")
	runCmd.Flags().StringVar(&runSlides, "slides", "", "Folder of slide images to load")
	runCmd.Flags().StringVar(&runImport, "import", "", "Image to place on the canvas at start")
	runCmd.Flags().DurationVar(&runAuto, "auto-capture", 0, "Enable auto-capture at this interval")

	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overlays explicitly set flags on cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("user") {
		cfg.Session.User = runUser
	}
	if flags.Changed("device") {
		cfg.Camera.DeviceID = runDevice
	}
	if runNoWindow {
		cfg.Session.Window = false
	}
	if runNoServer {
		cfg.Server.Enabled = false
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = runAddr
	}
	if runAuto > 0 {
		cfg.Session.AutoCapture = true
		cfg.Session.AutoCaptureInterval = runAuto
	}
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return printer.Error("Invalid logging configuration", err.Error())
	}
	defer logger.Sync()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	manager := plugin.NewManager(cfg.Plugins.Dir, logger)
	if err := manager.Discover(); err != nil {
		logger.Warn("plugin discovery failed", zap.Error(err))
	}
	hooks := plugin.NewHooks(manager, plugin.NewExecutor(cfg.Plugins.Timeout), logger)

	det, err := detector.NewMediaPipeDetector(cfg.Detector, logger)
	if err != nil {
		return printer.Error("Hand detector unavailable", err.Error(),
			"Install mediapipe_service.py under ./scripts or ~/.aircanvas/scripts",
			"Set detector.script_path in the config file")
	}
	defer det.Close()

	m := metrics.New()
	feed := server.NewFeed(cfg.Server.StreamFPS, cfg.Server.JPEGQuality, logger)
	a := app.New(app.Options{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Store:     st,
		Hooks:     hooks,
		Camera:    capture.NewCamera(cfg.Camera, logger),
		Detector:  det,
		Publisher: feed,
	})
	defer a.Close()

	if runSlides != "" {
		a.Submit(app.Command{Name: app.CmdLoadSlides, Arg: runSlides, Source: app.SourceKeyboard})
	}
	if runImport != "" {
		a.Submit(app.Command{Name: app.CmdImport, Arg: runImport, Source: app.SourceKeyboard})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			StaticDir: cfg.Server.StaticDir,
			Store:     st,
			Feed:      feed,
			Commands:  a,
			Metrics:   m,
			Logger:    logger,
			StreamFPS: cfg.Server.StreamFPS,
		})
		go func() {
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				logger.Error("server stopped", zap.Error(err))
			}
		}()
		printer.Info("Preview at http://%s\n", cfg.Server.Addr)
	}

	if runTray {
		err = runWithTray(ctx, a, feed, logger)
	} else {
		err = a.Run(ctx)
	}
	if err != nil {
		return printer.Error("Session failed", err.Error(),
			"Check that the camera is connected and not used by another program")
	}

	printer.Success("Session %s ended\n", a.SessionID())
	return nil
}

// runWithTray runs the session in the background while the tray menu owns
// the calling goroutine.
func runWithTray(ctx context.Context, a *app.App, feed *server.Feed, logger *zap.Logger) error {
	t := tray.New(a, logger)

	errc := make(chan error, 1)
	go func() {
		err := a.Run(ctx)
		t.Quit()
		errc <- err
	}()

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if snap, seq := feed.Snapshot(); seq > 0 {
					t.Update(snap)
				}
			}
		}
	}()

	t.Run()
	return <-errc
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return nil, printer.Error("Failed to create data directory", err.Error())
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, printer.Error("Catalog not writable", err.Error(),
				"Point store.path at a writable location")
		}
		return nil, printer.Error("Failed to open catalog", err.Error())
	}
	return st, nil
}
