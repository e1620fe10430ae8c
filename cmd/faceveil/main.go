package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
)

// Version is the application version.
const Version = "0.1.0"

var (
	flagModels     string
	flagMethod     string
	flagFactor     int
	flagConfidence float64
	flagDetector   string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:     "faceveil",
	Short:   "Face anonymization for images, videos and live camera streams",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func main() {
	// Environment overrides from a local .env, if present
	godotenv.Load()

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagModels, "models", "", "Directory containing detection model files (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&flagMethod, "method", "gaussian", "Obscuring method: gaussian, pixelate")
	rootCmd.PersistentFlags().IntVar(&flagFactor, "factor", 30, "Blur kernel size or pixelation strength")
	rootCmd.PersistentFlags().Float64Var(&flagConfidence, "confidence", 0.5, "Minimum detection confidence for the DNN detector")
	rootCmd.PersistentFlags().StringVar(&flagDetector, "detector", "auto", "Detector backend: auto, cascade, pigo")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// newProcessor builds a processor from the persistent flags.
func newProcessor() (*anonymizer.Processor, error) {
	models := flagModels
	if models == "" {
		models = findModelsDir()
	}

	cfg := anonymizer.Config{
		Method:      anonymizer.Method(flagMethod),
		Factor:      flagFactor,
		Confidence:  flagConfidence,
		ModelFile:   filepath.Join(models, "opencv_face_detector_uint8.pb"),
		ConfigFile:  filepath.Join(models, "opencv_face_detector.pbtxt"),
		CascadeFile: filepath.Join(models, "haarcascade_frontalface_default.xml"),
	}

	switch flagDetector {
	case "auto":
	case "cascade":
		// Force the cascade path by pointing the DNN files nowhere
		cfg.ModelFile = filepath.Join(models, "nonexistent.pb")
	case "pigo":
		detector, err := anonymizer.NewPigoDetector(filepath.Join(models, "facefinder"))
		if err != nil {
			return nil, fmt.Errorf("load pigo cascade: %w", err)
		}
		cfg.Detector = detector
	default:
		return nil, fmt.Errorf("unknown detector backend %q", flagDetector)
	}

	return anonymizer.New(cfg)
}

// findModelsDir searches for the models directory in common locations.
// It checks "models", "../models", "../../models", and ~/.faceveil/models.
// Returns the first existing directory, or "models" if none is found.
func findModelsDir() string {
	relativePaths := []string{"models", "../models", "../../models"}
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
		return "models"
	}

	homeModels := filepath.Join(homeDir, ".faceveil", "models")
	if info, err := os.Stat(homeModels); err == nil && info.IsDir() {
		return homeModels
	}

	return "models"
}
