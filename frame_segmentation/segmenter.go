package frame_segmentation

import (
	"voice-command-detection/config"
	"voice-command-detection/ring_buffer"
)

type segmenterImpl struct {
	frameSize    int
	hopSize      int
	vadThreshold float64
	observer     EnergyObserver
	window       ring_buffer.Interface
	next         int
}

type Config struct {
	FrameSize    int
	HopSize      int
	VADThreshold float64

	// Observer is optional.
	Observer EnergyObserver
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, config.Errorf("segmenter", "config is nil")
	}

	if cfg.FrameSize <= 0 {
		return nil, config.Errorf("frame_size", "must be positive, got %d", cfg.FrameSize)
	}

	if cfg.HopSize <= 0 || cfg.HopSize >= cfg.FrameSize {
		return nil, config.Errorf("hop_size", "must be in (0, %d), got %d", cfg.FrameSize, cfg.HopSize)
	}

	return &segmenterImpl{
		frameSize:    cfg.FrameSize,
		hopSize:      cfg.HopSize,
		vadThreshold: cfg.VADThreshold,
		observer:     cfg.Observer,
		window:       ring_buffer.New(cfg.FrameSize),
	}, nil
}

// FromConfig builds a segmenter from the pipeline configuration.
func FromConfig(cfg config.Config, observer EnergyObserver) (Interface, error) {
	return New(&Config{
		FrameSize:    cfg.FrameSize,
		HopSize:      cfg.HopSize,
		VADThreshold: cfg.VADThreshold,
		Observer:     observer,
	})
}

// Push buffers samples and returns the voiced frames that became complete.
// Each returned frame owns its sample slice.
func (s *segmenterImpl) Push(samples []float64) []Frame {
	var frames []Frame

	for len(samples) > 0 {
		taken := s.window.Add(samples)
		samples = samples[taken:]

		if !s.window.Full() {
			break
		}

		buf := s.window.Read(make([]float64, 0, s.frameSize))
		s.window.Advance(s.hopSize)

		index := s.next
		s.next++

		energy := Energy(buf)
		voiced := energy >= s.vadThreshold

		if s.observer != nil {
			s.observer.ObserveEnergy(index, energy, voiced)
		}

		if !voiced {
			continue
		}

		frames = append(frames, Frame{
			Index:   index,
			Samples: buf,
			Energy:  energy,
		})
	}

	return frames
}

// Reset drops buffered samples and restarts frame numbering.
func (s *segmenterImpl) Reset() {
	s.window.Clear()
	s.next = 0
}

// Energy is the sum of squared samples.
func Energy(samples []float64) float64 {
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return sum
}

// Int16ToFloat scales PCM16 samples into [-1, 1).
func Int16ToFloat(dst []float64, samples []int16) []float64 {
	if cap(dst) < len(samples) {
		dst = make([]float64, len(samples))
	}
	dst = dst[:len(samples)]
	for i, s := range samples {
		dst[i] = float64(s) / 32768
	}
	return dst
}
