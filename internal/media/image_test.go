package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocv.io/x/gocv"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
	"github.com/pmalhotra/faceveil/testdata"
)

func newStubProcessor(t *testing.T, faces []anonymizer.FaceRect) *anonymizer.Processor {
	t.Helper()

	stub := anonymizer.NewStubDetector()
	stub.SetFaces(faces)

	p, err := anonymizer.New(anonymizer.Config{Detector: stub})
	if err != nil {
		t.Fatalf("anonymizer.New() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func writeTestImage(t *testing.T, dir string) string {
	t.Helper()

	frame := testdata.GradientFrame(320, 240)
	defer frame.Close()

	path := filepath.Join(dir, "input.png")
	if ok := gocv.IMWrite(path, frame); !ok {
		t.Fatalf("failed to write test image %s", path)
	}
	return path
}

func TestProcessImage(t *testing.T) {
	t.Run("writes anonymized output and thumbnail", func(t *testing.T) {
		dir := t.TempDir()
		input := writeTestImage(t, dir)

		proc := newStubProcessor(t, []anonymizer.FaceRect{{X: 20, Y: 20, Width: 60, Height: 60}})

		result, err := ProcessImage(proc, input, dir, anonymizer.Pixelate, 30)
		if err != nil {
			t.Fatalf("ProcessImage() error = %v", err)
		}

		if result.Faces != 1 {
			t.Errorf("faces = %d, want 1", result.Faces)
		}
		if !strings.HasPrefix(filepath.Base(result.OutputPath), "anonymized_") {
			t.Errorf("output %q should carry the anonymized_ prefix", result.OutputPath)
		}
		if _, err := os.Stat(result.OutputPath); err != nil {
			t.Errorf("output file missing: %v", err)
		}
		if result.ThumbPath == "" {
			t.Error("expected a thumbnail path")
		} else if _, err := os.Stat(result.ThumbPath); err != nil {
			t.Errorf("thumbnail file missing: %v", err)
		}
	})

	t.Run("unreadable input is a structured failure", func(t *testing.T) {
		dir := t.TempDir()
		proc := newStubProcessor(t, nil)

		if _, err := ProcessImage(proc, filepath.Join(dir, "nope.png"), dir, anonymizer.Gaussian, 31); err == nil {
			t.Fatal("expected error for missing input file")
		}
	})

	t.Run("undecodable input is a structured failure", func(t *testing.T) {
		dir := t.TempDir()
		bad := filepath.Join(dir, "bad.png")
		if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
			t.Fatal(err)
		}

		proc := newStubProcessor(t, nil)
		if _, err := ProcessImage(proc, bad, dir, anonymizer.Gaussian, 31); err == nil {
			t.Fatal("expected error for undecodable input file")
		}
	})
}
