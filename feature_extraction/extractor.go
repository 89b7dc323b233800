package feature_extraction

import (
	"fmt"
	"log/slog"
	"math"

	"voice-command-detection/config"
	"voice-command-detection/vector"
)

type extractorImpl struct {
	setup     *Setup
	transform Transform

	windowed []float64
	spectrum []float64
	mel      []float64
}

type Config struct {
	Setup     *Setup
	Transform Transform
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, config.Errorf("extractor", "config is nil")
	}

	if cfg.Setup == nil {
		return nil, config.Errorf("extractor", "setup is nil")
	}

	if cfg.Transform == nil {
		return nil, config.Errorf("extractor", "transform is nil")
	}

	frameSize := cfg.Setup.FrameSize()
	if cfg.Transform.Size() != frameSize || len(cfg.Setup.Window()) != frameSize {
		return nil, config.Errorf("frame_size", "window has %d samples and transform %d, frames have %d",
			len(cfg.Setup.Window()), cfg.Transform.Size(), frameSize)
	}

	if cfg.Transform.Bins() != cfg.Setup.bank.Bins() {
		return nil, config.Errorf("mel_filters", "filter bank covers %d bins but the transform produces %d",
			cfg.Setup.bank.Bins(), cfg.Transform.Bins())
	}

	return &extractorImpl{
		setup:     cfg.Setup,
		transform: cfg.Transform,
		windowed:  make([]float64, frameSize),
		spectrum:  make([]float64, cfg.Transform.Bins()),
		mel:       make([]float64, cfg.Setup.bank.Filters()),
	}, nil
}

// FromConfig builds the setup and the configured transform for cfg.
func FromConfig(cfg config.Config) (Interface, error) {
	setup, err := NewSetup(cfg)
	if err != nil {
		return nil, err
	}

	transform, err := NewTransform(cfg.Transform, cfg.FrameSize)
	if err != nil {
		return nil, err
	}

	return New(&Config{Setup: setup, Transform: transform})
}

func (e *extractorImpl) Dimensions() int {
	return e.setup.dimensions
}

func (e *extractorImpl) Extract(frame []float64) (vector.FeatureVector, error) {
	if len(frame) != e.setup.frameSize {
		return nil, fmt.Errorf("frame has %d samples, extractor expects %d", len(frame), e.setup.frameSize)
	}

	for i, s := range frame {
		e.windowed[i] = s * e.setup.window[i]
	}

	e.spectrum = e.transform.Magnitudes(e.spectrum, e.windowed)
	for k, m := range e.spectrum {
		e.spectrum[k] = m * m
	}

	e.mel = e.setup.bank.Apply(e.mel, e.spectrum)
	for m, v := range e.mel {
		e.mel[m] = math.Log(v)
	}

	out := make(vector.FeatureVector, e.setup.dimensions)
	for k, basis := range e.setup.dct {
		var sum float64
		for n, v := range e.mel {
			sum += v * basis[n]
		}
		out[k] = sum
	}

	if n := vector.ClampFinite(out); n > 0 {
		slog.Warn("clamped non-finite feature coefficients", "count", n)
	}

	return out, nil
}
