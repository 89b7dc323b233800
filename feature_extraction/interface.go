package feature_extraction

import "voice-command-detection/vector"

type Interface interface {
	// Extract maps one frame of FrameSize samples to a feature vector.
	Extract(frame []float64) (vector.FeatureVector, error)
	Dimensions() int
}
