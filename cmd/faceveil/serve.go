package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pmalhotra/faceveil/internal/live"
	"github.com/pmalhotra/faceveil/internal/media"
	"github.com/pmalhotra/faceveil/internal/server"
	"github.com/pmalhotra/faceveil/internal/store"
	"github.com/pmalhotra/faceveil/internal/tray"
)

var (
	serveAddr   string
	serveCamera int
	serveMotion float64
	serveTray   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the anonymization HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().IntVar(&serveCamera, "camera", -1, "Camera device ID for the live stream (-1 disables it)")
	serveCmd.Flags().Float64Var(&serveMotion, "motion-threshold", 2.0, "Percentage of changed pixels that counts as motion")
	serveCmd.Flags().BoolVar(&serveTray, "tray", false, "Show a system tray control")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	proc, err := newProcessor()
	if err != nil {
		return fmt.Errorf("initialize processor: %w", err)
	}
	defer proc.Close()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home directory: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".faceveil")
	mediaDir := filepath.Join(dataDir, "media")
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(dataDir, "faceveil.db"))
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	archiver, err := media.S3FromEnv()
	if err != nil {
		return fmt.Errorf("initialize S3 archiver: %w", err)
	}
	if archiver != nil {
		log.Info("S3 archival enabled")
	}

	var pipeline *live.Pipeline
	if serveCamera >= 0 {
		pipeline = live.NewPipeline(live.NewCamera(serveCamera), proc, serveMotion)
		if err := pipeline.Start(); err != nil {
			return fmt.Errorf("start live pipeline: %w", err)
		}
		defer pipeline.Stop()
		log.Infof("Live stream enabled on camera %d", serveCamera)
	}

	webDir := findWebDir()
	if webDir != "" {
		log.Infof("Serving static files from %s", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		MediaDir:  mediaDir,
		Store:     st,
		Processor: proc,
		Archiver:  archiver,
		Live:      pipeline,
	})

	if serveTray {
		go runTray(pipeline)
	}

	log.Infof("Starting server on %s", serveAddr)
	return srv.ListenAndServe(serveAddr)
}

// runTray blocks on the system tray event loop.
func runTray(pipeline *live.Pipeline) {
	t := tray.New()
	t.OnToggle(func(active bool) {
		if pipeline != nil {
			pipeline.SetPaused(!active)
		}
	})
	t.OnDashboard(func() {
		openBrowser("http://localhost" + serveAddr)
	})
	t.OnQuit(func() {
		os.Exit(0)
	})
	t.Run()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warnf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web", and ~/.faceveil/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".faceveil", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
