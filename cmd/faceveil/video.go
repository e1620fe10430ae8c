package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
	"github.com/pmalhotra/faceveil/internal/media"
)

var videoOutDir string

var videoCmd = &cobra.Command{
	Use:   "video <file>",
	Short: "Anonymize faces in every frame of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runVideo(args[0])
	},
}

func init() {
	videoCmd.Flags().StringVarP(&videoOutDir, "out", "o", ".", "Directory to write the anonymized video into")
	rootCmd.AddCommand(videoCmd)
}

func runVideo(inputPath string) error {
	proc, err := newProcessor()
	if err != nil {
		return fmt.Errorf("initialize processor: %w", err)
	}
	defer proc.Close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			// The container may not report a total; -1 renders a spinner
			if total <= 0 {
				total = -1
			}
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Anonymizing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}
		bar.Set(done)
	}

	result, err := media.ProcessVideo(proc, inputPath, videoOutDir, anonymizer.Method(flagMethod), flagFactor, progress)
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	fmt.Printf("Anonymized %d face(s) across %d frames in %s\n", result.Faces, result.Frames, filepath.Base(inputPath))
	fmt.Printf("Output: %s\n", result.OutputPath)
	return nil
}
