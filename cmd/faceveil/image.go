package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
	"github.com/pmalhotra/faceveil/internal/media"
)

var imageOutDir string

var imageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Anonymize faces in a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runImage(args[0])
	},
}

func init() {
	imageCmd.Flags().StringVarP(&imageOutDir, "out", "o", ".", "Directory to write the anonymized image into")
	rootCmd.AddCommand(imageCmd)
}

func runImage(inputPath string) error {
	proc, err := newProcessor()
	if err != nil {
		return fmt.Errorf("initialize processor: %w", err)
	}
	defer proc.Close()

	result, err := media.ProcessImage(proc, inputPath, imageOutDir, anonymizer.Method(flagMethod), flagFactor)
	if err != nil {
		return err
	}

	fmt.Printf("Anonymized %d face(s) in %s\n", result.Faces, filepath.Base(inputPath))
	fmt.Printf("Output: %s\n", result.OutputPath)
	return nil
}
