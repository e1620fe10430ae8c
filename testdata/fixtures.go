// Package testdata provides synthetic frame fixtures for tests.
package testdata

import (
	"gocv.io/x/gocv"
)

// UniformFrame returns a BGR frame filled with a single value.
// The caller is responsible for closing the returned Mat.
func UniformFrame(width, height int, value uint8) gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(float64(value), float64(value), float64(value), 0))
	return mat
}

// GradientFrame returns a BGR frame whose pixel values vary with position,
// so every region has non-uniform content.
func GradientFrame(width, height int) gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			value := uint8((row + col*7) % 256)
			for ch := 0; ch < 3; ch++ {
				mat.SetUCharAt(row, col*3+ch, value)
			}
		}
	}
	return mat
}

// CheckerFrame returns a BGR frame with a one-pixel checkerboard pattern,
// the highest-variance content a frame can carry.
func CheckerFrame(width, height int) gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			var value uint8
			if (row+col)%2 == 0 {
				value = 255
			}
			for ch := 0; ch < 3; ch++ {
				mat.SetUCharAt(row, col*3+ch, value)
			}
		}
	}
	return mat
}

// EncodeJPEG encodes a frame as JPEG bytes for upload tests.
func EncodeJPEG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}
