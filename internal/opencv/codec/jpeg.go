package codec

import (
	"fmt"
	"image"

	"grid-splitter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// OpenCV's IMWRITE_JPEG_SAMPLING_FACTOR and its 4:4:4 value; gocv exposes
// the flag only as a raw parameter.
const (
	jpegSamplingFactor    = 7
	jpegSamplingFactor444 = 0x111111
)

// JPEGEncoder writes full-chroma JPEGs through OpenCV. The standard library
// encoder always subsamples chroma 4:2:0, which blurs tile edges.
type JPEGEncoder struct {
	Quality int
	Tracker safe.MemoryTracker
}

func NewJPEGEncoder(quality int, tracker safe.MemoryTracker) *JPEGEncoder {
	if quality < 1 || quality > 100 {
		quality = 100
	}
	return &JPEGEncoder{Quality: quality, Tracker: tracker}
}

// Params returns the imencode parameter list.
func (e *JPEGEncoder) Params() []int {
	return []int{
		int(gocv.IMWriteJpegQuality), e.Quality,
		int(gocv.IMWriteJpegChromaQuality), e.Quality,
		jpegSamplingFactor, jpegSamplingFactor444,
	}
}

// Encode returns the JPEG bytes for img.
func (e *JPEGEncoder) Encode(img image.Image, tag string) ([]byte, error) {
	mat, err := safe.NewMatFromImage(img, e.Tracker, tag)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if err := safe.ValidateForEncode(mat); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat.GetMat(), e.Params())
	if err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory released by Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
