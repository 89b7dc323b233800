package frame_segmentation

// Frame is one voiced analysis frame.
type Frame struct {
	// Index counts every frame the segmenter produced, voiced or not.
	Index int

	Samples []float64
	Energy  float64
}

// EnergyObserver sees the energy of every frame, including the ones the
// voice activity gate drops. It must not retain or block.
type EnergyObserver interface {
	ObserveEnergy(index int, energy float64, voiced bool)
}

type Interface interface {
	Push(samples []float64) []Frame
	Reset()
}
