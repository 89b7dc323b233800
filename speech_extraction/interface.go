package speech_extraction

import (
	"context"
	"time"

	"voice-command-detection/vector"
)

// Feature is the feature vector of one voiced frame, stamped with the
// sample-clock time at which the frame starts.
type Feature struct {
	Vector vector.FeatureVector
	Index  int
	At     time.Time
}

type Interface interface {
	// Process runs samples in [-1, 1] through segmentation and extraction
	// and returns the features of every voiced frame completed.
	Process(samples []float64) ([]Feature, error)

	// ProcessInt16 is Process for PCM16 input.
	ProcessInt16(samples []int16) ([]Feature, error)

	// Run consumes audio chunks until in is closed or ctx is done. The
	// returned channel is closed when Run stops.
	Run(ctx context.Context, in <-chan []int16) <-chan Feature

	// Reset discards buffered audio and restarts the sample clock at start.
	Reset(start time.Time)
}
