package anonymizer

import (
	"bytes"
	"testing"

	"github.com/pmalhotra/faceveil/testdata"
	"gocv.io/x/gocv"
)

// regionVariance computes the variance of the first channel over the given
// region of a BGR frame.
func regionVariance(frame *gocv.Mat, r FaceRect) float64 {
	var sum, sumSq float64
	n := 0
	for row := r.Y; row < r.Y+r.Height; row++ {
		for col := r.X; col < r.X+r.Width; col++ {
			v := float64(frame.GetUCharAt(row, col*3))
			sum += v
			sumSq += v * v
			n++
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

func TestClampRect(t *testing.T) {
	tests := []struct {
		name   string
		in     FaceRect
		width  int
		height int
		want   FaceRect
	}{
		{
			name:  "in-bounds rect unchanged",
			in:    FaceRect{X: 100, Y: 100, Width: 50, Height: 50},
			width: 640, height: 480,
			want: FaceRect{X: 100, Y: 100, Width: 50, Height: 50},
		},
		{
			name:  "negative origin moved to zero, size kept",
			in:    FaceRect{X: -10, Y: -5, Width: 50, Height: 20},
			width: 640, height: 480,
			want: FaceRect{X: 0, Y: 0, Width: 50, Height: 20},
		},
		{
			name:  "size clamped against far edge",
			in:    FaceRect{X: 600, Y: 460, Width: 100, Height: 100},
			width: 640, height: 480,
			want: FaceRect{X: 600, Y: 460, Width: 40, Height: 20},
		},
		{
			name:  "fully outside clamps to non-positive size",
			in:    FaceRect{X: 700, Y: 100, Width: 50, Height: 50},
			width: 640, height: 480,
			want: FaceRect{X: 700, Y: 100, Width: -60, Height: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampRect(tt.in, tt.width, tt.height)
			if got != tt.want {
				t.Errorf("clampRect(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampRect_Idempotent(t *testing.T) {
	r := FaceRect{X: -30, Y: 200, Width: 900, Height: 100}

	once := clampRect(r, 640, 480)
	twice := clampRect(once, 640, 480)

	if once != twice {
		t.Errorf("clamping is not idempotent: %+v != %+v", once, twice)
	}
}

func TestObscure_OutOfBoundsRectIsNoOp(t *testing.T) {
	frame := testdata.GradientFrame(640, 480)
	defer frame.Close()

	before := frame.Clone()
	defer before.Close()

	rects := []FaceRect{
		{X: 640, Y: 100, Width: 50, Height: 50},
		{X: 100, Y: 480, Width: 50, Height: 50},
		{X: -100, Y: -100, Width: 50, Height: 50},
	}

	for _, r := range rects {
		if err := Obscure(&frame, r, Pixelate, 30); err != nil {
			t.Fatalf("Obscure(%+v) error = %v", r, err)
		}
	}

	if !bytes.Equal(frame.ToBytes(), before.ToBytes()) {
		t.Error("frame was modified by fully out-of-bounds rects")
	}
}

func TestObscure_GaussianReducesVariance(t *testing.T) {
	frame := testdata.CheckerFrame(640, 480)
	defer frame.Close()

	r := FaceRect{X: 100, Y: 100, Width: 60, Height: 60}
	before := regionVariance(&frame, r)

	if err := Obscure(&frame, r, Gaussian, 15); err != nil {
		t.Fatalf("Obscure() error = %v", err)
	}

	after := regionVariance(&frame, r)
	if after >= before {
		t.Errorf("variance not reduced: before %.2f, after %.2f", before, after)
	}
}

func TestObscure_GaussianRejectsEvenKernel(t *testing.T) {
	frame := testdata.GradientFrame(320, 240)
	defer frame.Close()

	err := Obscure(&frame, FaceRect{X: 10, Y: 10, Width: 40, Height: 40}, Gaussian, 30)
	if err == nil {
		t.Fatal("expected error for even gaussian kernel size")
	}
}

func TestObscure_PixelateProducesUniformBlocks(t *testing.T) {
	frame := testdata.GradientFrame(640, 480)
	defer frame.Close()

	// 60x60 region with factor 30 gives scale 3, so the region divides
	// exactly into 3x3 blocks.
	r := FaceRect{X: 120, Y: 90, Width: 60, Height: 60}
	if err := Obscure(&frame, r, Pixelate, 30); err != nil {
		t.Fatalf("Obscure() error = %v", err)
	}

	const scale = 3
	for by := 0; by < r.Height; by += scale {
		for bx := 0; bx < r.Width; bx += scale {
			ref := frame.GetUCharAt(r.Y+by, (r.X+bx)*3)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					got := frame.GetUCharAt(r.Y+by+dy, (r.X+bx+dx)*3)
					if got != ref {
						t.Fatalf("block at (%d,%d) not uniform: pixel (%d,%d) = %d, want %d",
							bx, by, dx, dy, got, ref)
					}
				}
			}
		}
	}
}

func TestObscure_PixelateSkipsTinyRegion(t *testing.T) {
	frame := testdata.GradientFrame(320, 240)
	defer frame.Close()

	before := frame.Clone()
	defer before.Close()

	// 2x2 region with scale 3 would downscale to zero size, so the region
	// must be left untouched rather than failing.
	if err := Obscure(&frame, FaceRect{X: 10, Y: 10, Width: 2, Height: 2}, Pixelate, 30); err != nil {
		t.Fatalf("Obscure() error = %v", err)
	}

	if !bytes.Equal(frame.ToBytes(), before.ToBytes()) {
		t.Error("tiny region should be a no-op")
	}
}

func TestObscure_PixelateFactorBelowTenUsesScaleOne(t *testing.T) {
	frame := testdata.GradientFrame(320, 240)
	defer frame.Close()

	before := frame.Clone()
	defer before.Close()

	// scale = max(1, 5/10) = 1: a round-trip through identical dimensions,
	// which must not error and leaves the content effectively unchanged.
	if err := Obscure(&frame, FaceRect{X: 50, Y: 50, Width: 40, Height: 40}, Pixelate, 5); err != nil {
		t.Fatalf("Obscure() error = %v", err)
	}
}
