package media

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
)

// VideoResult describes a processed video file.
type VideoResult struct {
	OutputPath string
	ThumbPath  string
	Frames     int
	Faces      int
	AvgFaces   float64
}

// ProgressFunc is called once per processed frame with the number of frames
// done and the container's reported total (which may be zero for streams).
type ProgressFunc func(done, total int)

// videoFourCC is the output codec tag; the container keeps the source frame
// rate and dimensions.
const videoFourCC = "mp4v"

// ProcessVideo anonymizes a video file frame by frame and writes the result
// into outDir under the server naming scheme. Processing is a blocking,
// single-pass sequential loop with no seeking and no cancellation; it runs
// to completion or fails on the first unrecoverable error, in which case any
// partial output is removed.
func ProcessVideo(proc *anonymizer.Processor, inputPath, outDir string, method anonymizer.Method, factor int, progress ProgressFunc) (*VideoResult, error) {
	capture, err := gocv.VideoCaptureFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("could not open video file %s: %w", inputPath, err)
	}
	defer capture.Close()

	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	fps := capture.Get(gocv.VideoCaptureFPS)
	total := int(capture.Get(gocv.VideoCaptureFrameCount))

	outName := OutputName(inputPath)
	outPath := filepath.Join(outDir, outName)

	writer, err := gocv.VideoWriterFile(outPath, videoFourCC, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("could not create video writer for %s: %w", outPath, err)
	}

	result, err := processVideoFrames(proc, capture, writer, method, factor, total, progress)
	if cerr := writer.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close video writer: %w", cerr)
	}
	if err != nil {
		// A partially written container is unusable.
		os.Remove(outPath)
		return nil, err
	}

	result.OutputPath = outPath

	thumbPath := filepath.Join(outDir, ThumbName(outName))
	if terr := videoThumbnail(outPath, thumbPath); terr != nil {
		log.Warnf("Thumbnail for %s failed: %v", outName, terr)
	} else {
		result.ThumbPath = thumbPath
	}

	return result, nil
}

// processVideoFrames runs the sequential read-process-write loop. The caller
// owns both handles.
func processVideoFrames(proc *anonymizer.Processor, capture *gocv.VideoCapture, writer *gocv.VideoWriter, method anonymizer.Method, factor int, total int, progress ProgressFunc) (*VideoResult, error) {
	frame := gocv.NewMat()
	defer frame.Close()

	logEvery := total / 10
	if logEvery < 1 {
		logEvery = 1
	}

	frames := 0
	faces := 0

	for {
		if ok := capture.Read(&frame); !ok {
			break
		}
		if frame.Empty() {
			continue
		}

		count, err := proc.ProcessFrameWith(&frame, method, factor)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", frames+1, err)
		}

		if err := writer.Write(frame); err != nil {
			return nil, fmt.Errorf("write frame %d: %w", frames+1, err)
		}

		frames++
		faces += count

		if progress != nil {
			progress(frames, total)
		}
		if frames%logEvery == 0 {
			log.Infof("Processed %d/%d frames", frames, total)
		}
	}

	avg := 0.0
	if frames > 0 {
		avg = float64(faces) / float64(frames)
	}

	return &VideoResult{
		Frames:   frames,
		Faces:    faces,
		AvgFaces: avg,
	}, nil
}

// videoThumbnail renders a thumbnail from the first frame of the processed
// output.
func videoThumbnail(videoPath, thumbPath string) error {
	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer capture.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	if ok := capture.Read(&frame); !ok || frame.Empty() {
		return fmt.Errorf("no readable frame in %s", videoPath)
	}

	return writeThumbnail(&frame, thumbPath)
}
