package media

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
)

// ImageResult describes a processed image file.
type ImageResult struct {
	OutputPath string
	ThumbPath  string
	Faces      int
}

// ProcessImage anonymizes a single image file and writes the result into
// outDir under the server naming scheme. No output file is left behind on
// failure.
func ProcessImage(proc *anonymizer.Processor, inputPath, outDir string, method anonymizer.Method, factor int) (*ImageResult, error) {
	img := gocv.IMRead(inputPath, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("could not open image file %s", inputPath)
	}
	defer img.Close()

	faces, err := proc.ProcessFrameWith(&img, method, factor)
	if err != nil {
		return nil, fmt.Errorf("process image: %w", err)
	}

	outName := OutputName(inputPath)
	outPath := filepath.Join(outDir, outName)
	if ok := gocv.IMWrite(outPath, img); !ok {
		os.Remove(outPath)
		return nil, fmt.Errorf("could not write image file %s", outPath)
	}

	result := &ImageResult{
		OutputPath: outPath,
		Faces:      faces,
	}

	thumbPath := filepath.Join(outDir, ThumbName(outName))
	if err := writeThumbnail(&img, thumbPath); err != nil {
		log.Warnf("Thumbnail for %s failed: %v", outName, err)
	} else {
		result.ThumbPath = thumbPath
	}

	return result, nil
}
