package feature_extraction

import (
	"math"

	"github.com/mjibson/go-dsp/window"

	"voice-command-detection/config"
)

// Setup holds everything precomputed for one frame geometry: the analysis
// window, the mel filter bank and the DCT basis. A Setup is immutable and
// can be shared by any number of extractors built for the same geometry.
type Setup struct {
	frameSize  int
	dimensions int
	window     []float64
	bank       *FilterBank
	dct        [][]float64
}

// NewSetup validates cfg and precomputes its window, filter bank and DCT.
func NewSetup(cfg config.Config) (*Setup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bank, err := NewFilterBank(cfg.MelFilters, cfg.Bins(), cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	return &Setup{
		frameSize:  cfg.FrameSize,
		dimensions: cfg.FeatureDimensions,
		window:     window.Hamming(cfg.FrameSize),
		bank:       bank,
		dct:        dctBasis(cfg.FeatureDimensions, cfg.MelFilters),
	}, nil
}

func (s *Setup) FrameSize() int { return s.frameSize }
func (s *Setup) Dimensions() int { return s.dimensions }
func (s *Setup) Window() []float64 { return s.window }
func (s *Setup) FilterBank() *FilterBank { return s.bank }

// dctBasis returns the first d rows of the DCT-II basis over m inputs:
// basis[k][n] = cos(k·(n+0.5)·π/m).
func dctBasis(d, m int) [][]float64 {
	basis := make([][]float64, d)
	for k := 0; k < d; k++ {
		row := make([]float64, m)
		for n := 0; n < m; n++ {
			row[n] = math.Cos(float64(k) * (float64(n) + 0.5) * math.Pi / float64(m))
		}
		basis[k] = row
	}
	return basis
}
