package media

import (
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
	"github.com/pmalhotra/faceveil/testdata"
)

func writeTestVideo(t *testing.T, dir string, frames int) string {
	t.Helper()

	path := filepath.Join(dir, "input.avi")
	writer, err := gocv.VideoWriterFile(path, "MJPG", 10, 320, 240, true)
	if err != nil {
		t.Skipf("video writer unavailable: %v", err)
	}
	defer writer.Close()

	frame := testdata.GradientFrame(320, 240)
	defer frame.Close()

	for i := 0; i < frames; i++ {
		if err := writer.Write(frame); err != nil {
			t.Fatalf("write test frame: %v", err)
		}
	}
	return path
}

func TestProcessVideo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping video round-trip in short mode")
	}

	dir := t.TempDir()
	input := writeTestVideo(t, dir, 12)

	proc := newStubProcessor(t, []anonymizer.FaceRect{{X: 40, Y: 40, Width: 50, Height: 50}})

	var calls int
	result, err := ProcessVideo(proc, input, dir, anonymizer.Pixelate, 30, func(done, total int) {
		calls++
	})
	if err != nil {
		t.Fatalf("ProcessVideo() error = %v", err)
	}

	if result.Frames != 12 {
		t.Errorf("frames = %d, want 12", result.Frames)
	}
	if result.Faces != 12 {
		t.Errorf("faces = %d, want 12 (one per frame)", result.Faces)
	}
	if result.AvgFaces != 1.0 {
		t.Errorf("avg faces = %f, want 1.0", result.AvgFaces)
	}
	if calls != 12 {
		t.Errorf("progress calls = %d, want 12", calls)
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestProcessVideo_MissingInput(t *testing.T) {
	dir := t.TempDir()
	proc := newStubProcessor(t, nil)

	if _, err := ProcessVideo(proc, filepath.Join(dir, "missing.mp4"), dir, anonymizer.Gaussian, 31, nil); err == nil {
		t.Fatal("expected error for missing video file")
	}
}

func TestProcessVideo_NoPartialOutputOnFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping video round-trip in short mode")
	}

	dir := t.TempDir()
	input := writeTestVideo(t, dir, 6)

	// An even gaussian kernel fails on the first frame, so the partial
	// container must be removed.
	proc := newStubProcessor(t, []anonymizer.FaceRect{{X: 40, Y: 40, Width: 50, Height: 50}})
	outDir := t.TempDir()

	if _, err := ProcessVideo(proc, input, outDir, anonymizer.Gaussian, 30, nil); err == nil {
		t.Fatal("expected error for even gaussian kernel")
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("unexpected leftover output %s", e.Name())
	}
}
