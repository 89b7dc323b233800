package speech_extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voice-command-detection/config"
	"voice-command-detection/feature_extraction"
	"voice-command-detection/frame_segmentation"
)

type pipelineImpl struct {
	segmenter  frame_segmentation.Interface
	extractor  feature_extraction.Interface
	sampleRate int64
	hopSize    int64
	start      time.Time
	scratch    []float64
}

type Config struct {
	Segmenter  frame_segmentation.Interface
	Extractor  feature_extraction.Interface
	SampleRate int
	HopSize    int

	// Start is the time of the first sample; zero means time.Now().
	Start time.Time
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Segmenter == nil {
		return nil, fmt.Errorf("segmenter is nil")
	}

	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}

	if cfg.SampleRate <= 0 || cfg.HopSize <= 0 {
		return nil, config.Errorf("sample_rate", "sample rate %d and hop %d must be positive", cfg.SampleRate, cfg.HopSize)
	}

	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}

	return &pipelineImpl{
		segmenter:  cfg.Segmenter,
		extractor:  cfg.Extractor,
		sampleRate: int64(cfg.SampleRate),
		hopSize:    int64(cfg.HopSize),
		start:      start,
	}, nil
}

// FromConfig wires a segmenter and extractor for cfg. observer may be nil.
func FromConfig(cfg config.Config, observer frame_segmentation.EnergyObserver, start time.Time) (Interface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	segmenter, err := frame_segmentation.FromConfig(cfg, observer)
	if err != nil {
		return nil, err
	}

	extractor, err := feature_extraction.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return New(&Config{
		Segmenter:  segmenter,
		Extractor:  extractor,
		SampleRate: cfg.SampleRate,
		HopSize:    cfg.HopSize,
		Start:      start,
	})
}

func (p *pipelineImpl) Process(samples []float64) ([]Feature, error) {
	frames := p.segmenter.Push(samples)
	if len(frames) == 0 {
		return nil, nil
	}

	features := make([]Feature, 0, len(frames))
	for _, frame := range frames {
		v, err := p.extractor.Extract(frame.Samples)
		if err != nil {
			return features, err
		}

		features = append(features, Feature{
			Vector: v,
			Index:  frame.Index,
			At:     p.frameTime(frame.Index),
		})
	}

	return features, nil
}

func (p *pipelineImpl) ProcessInt16(samples []int16) ([]Feature, error) {
	p.scratch = frame_segmentation.Int16ToFloat(p.scratch, samples)

	return p.Process(p.scratch)
}

func (p *pipelineImpl) Run(ctx context.Context, in <-chan []int16) <-chan Feature {
	out := make(chan Feature)

	go func() {
		defer close(out)

		for {
			var (
				chunk []int16
				ok    bool
			)

			select {
			case <-ctx.Done():
				return
			case chunk, ok = <-in:
				if !ok {
					return
				}
			}

			features, err := p.ProcessInt16(chunk)
			if err != nil {
				slog.Error("feature extraction failed", "error", err)
				return
			}

			for _, f := range features {
				select {
				case <-ctx.Done():
					return
				case out <- f:
				}
			}
		}
	}()

	return out
}

func (p *pipelineImpl) Reset(start time.Time) {
	p.segmenter.Reset()
	p.start = start
}

// frameTime converts a frame index to the time its first sample was captured.
func (p *pipelineImpl) frameTime(index int) time.Time {
	samples := int64(index) * p.hopSize
	secs := samples / p.sampleRate
	rem := samples % p.sampleRate

	return p.start.Add(time.Duration(secs)*time.Second + time.Duration(rem)*time.Second/time.Duration(p.sampleRate))
}
