package media

import (
	"fmt"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// thumbWidth is the thumbnail width in pixels; height follows the aspect
// ratio.
const thumbWidth = 240

// writeThumbnail renders a JPEG thumbnail of the given frame. Thumbnails are
// a convenience for the job-history UI; failures are reported but callers
// treat them as non-fatal.
func writeThumbnail(frame *gocv.Mat, path string) error {
	img, err := frame.ToImage()
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, path); err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}

	return nil
}
