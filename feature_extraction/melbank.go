package feature_extraction

import (
	"math"

	"voice-command-detection/config"
)

// MelFloor keeps every filter output strictly positive so the log stays finite.
const MelFloor = 1e-10

// HzToMel converts a frequency in Hz to the mel scale.
func HzToMel(f float64) float64 {
	return 2595 * math.Log10(1+f/700)
}

// MelToHz converts a mel value back to Hz.
func MelToHz(m float64) float64 {
	return 700 * (math.Pow(10, m/2595) - 1)
}

// FilterBank is a set of triangular filters over a fixed number of
// spectral bins. It is immutable once built.
type FilterBank struct {
	bins    int
	weights [][]float64
}

// NewFilterBank spaces filters triangles uniformly on the mel scale between
// 0 Hz and the Nyquist frequency of sampleRate, over bins spectral bins
// where bin k sits at k·nyquist/bins Hz.
func NewFilterBank(filters, bins, sampleRate int) (*FilterBank, error) {
	if filters <= 0 {
		return nil, config.Errorf("mel_filters", "must be positive, got %d", filters)
	}
	if bins <= 0 {
		return nil, config.Errorf("frame_size", "filter bank needs positive bins, got %d", bins)
	}
	if sampleRate <= 0 {
		return nil, config.Errorf("sample_rate", "must be positive, got %d", sampleRate)
	}

	nyquist := float64(sampleRate) / 2
	melMax := HzToMel(nyquist)

	edges := make([]float64, filters+2)
	for i := range edges {
		edges[i] = MelToHz(melMax * float64(i) / float64(filters+1))
	}

	weights := make([][]float64, filters)
	for m := 0; m < filters; m++ {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			f := float64(k) * nyquist / float64(bins)
			switch {
			case f > left && f < center:
				row[k] = (f - left) / (center - left)
			case f == center:
				row[k] = 1
			case f > center && f < right:
				row[k] = (right - f) / (right - center)
			}
		}
		weights[m] = row
	}

	return &FilterBank{bins: bins, weights: weights}, nil
}

// Bins is the spectral bin count the bank was built for.
func (b *FilterBank) Bins() int {
	return b.bins
}

// Filters is the number of filters in the bank.
func (b *FilterBank) Filters() int {
	return len(b.weights)
}

// Apply filters a power spectrum of Bins() values into dst, flooring every
// output at MelFloor.
func (b *FilterBank) Apply(dst, power []float64) []float64 {
	dst = resize(dst, len(b.weights))
	for m, row := range b.weights {
		var sum float64
		for k, w := range row {
			if w != 0 {
				sum += w * power[k]
			}
		}
		if !(sum > MelFloor) {
			sum = MelFloor
		}
		dst[m] = sum
	}
	return dst
}
