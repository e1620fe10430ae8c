package anonymizer

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// clampRect clamps r into a frameWidth x frameHeight frame. The origin is
// moved to at least (0,0) and the size is clamped against the distance from
// the clamped origin to the frame edge, matching the behavior detectors and
// filters have always been paired with. A rect fully outside the frame
// clamps to a non-positive size.
func clampRect(r FaceRect, frameWidth, frameHeight int) FaceRect {
	x := r.X
	if x < 0 {
		x = 0
	}
	y := r.Y
	if y < 0 {
		y = 0
	}

	w := r.Width
	if w > frameWidth-x {
		w = frameWidth - x
	}
	h := r.Height
	if h > frameHeight-y {
		h = frameHeight - y
	}

	return FaceRect{X: x, Y: y, Width: w, Height: h}
}

// Obscure overwrites the face region of frame in place using the given
// method and factor. The rect is clamped to the frame bounds first; a region
// that clamps to a non-positive size is skipped silently.
//
// For the Gaussian method the factor is the kernel size and must be odd;
// an even factor is a precondition violation reported as an error. For the
// Pixelate method the block scale is max(1, factor/10); a region smaller
// than one block is skipped silently.
func Obscure(frame *gocv.Mat, rect FaceRect, method Method, factor int) error {
	r := clampRect(rect, frame.Cols(), frame.Rows())
	if r.Width <= 0 || r.Height <= 0 {
		return nil
	}

	region := frame.Region(image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
	defer region.Close()

	switch method {
	case Pixelate:
		pixelateRegion(&region, r.Width, r.Height, factor)
		return nil
	default:
		if factor%2 == 0 {
			return fmt.Errorf("gaussian kernel size %d is not odd", factor)
		}
		gocv.GaussianBlur(region, &region,
			image.Pt(factor, factor), 0, 0, gocv.BorderDefault)
		return nil
	}
}

// pixelateRegion downscales the region with linear interpolation and scales
// it back with nearest-neighbor, producing uniform blocks. The upscale must
// be nearest-neighbor; linear would smooth the blocks away.
func pixelateRegion(region *gocv.Mat, width, height, factor int) {
	scale := factor / 10
	if scale < 1 {
		scale = 1
	}

	smallW := width / scale
	smallH := height / scale
	if smallW < 1 || smallH < 1 {
		// Region narrower or shorter than one block, leave it untouched.
		return
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(*region, &small, image.Pt(smallW, smallH), 0, 0, gocv.InterpolationLinear)

	blocks := gocv.NewMat()
	defer blocks.Close()
	gocv.Resize(small, &blocks, image.Pt(width, height), 0, 0, gocv.InterpolationNearestNeighbor)

	blocks.CopyTo(region)
}
