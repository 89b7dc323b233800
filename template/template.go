// Package template turns recorded utterances into the per-command acoustic
// templates the recognizer matches against.
package template

import (
	"errors"
	"fmt"
	"math"

	"voice-command-detection/vector"
)

// Command names one of the two recognizable commands.
type Command string

const (
	Jump Command = "jump"
	Turn Command = "turn"
)

// Commands lists every command in a fixed order.
var Commands = []Command{Jump, Turn}

// Other returns the competing command.
func (c Command) Other() Command {
	if c == Jump {
		return Turn
	}
	return Jump
}

func (c Command) Valid() bool {
	return c == Jump || c == Turn
}

const (
	// MinFeatures is the fewest voiced frames an utterance needs.
	MinFeatures = 5

	// MaxFrames is the size of the stored onset window.
	MaxFrames = 5

	// EnergyProfileLength is the fixed length of Template.EnergyProfile.
	EnergyProfileLength = 3

	// DefaultThresholdFloor keeps the auto threshold away from zero.
	DefaultThresholdFloor = 0.05
)

// ErrInsufficientData is returned when an utterance is too short to build a
// template from. The caller should ask for another recording.
var ErrInsufficientData = errors.New("insufficient voiced data")

// Template is the acoustic model of one command.
type Template struct {
	// Frames is the normalized onset window, at most MaxFrames long.
	Frames []vector.FeatureVector `json:"frames"`

	// EnergyProfile holds the raw energies of the first selected frames,
	// zero padded to EnergyProfileLength. Diagnostic only.
	EnergyProfile []float64 `json:"energyProfile"`

	// DeltaCoefficients is the difference of the first two normalized
	// onset frames.
	DeltaCoefficients vector.FeatureVector `json:"deltaCoefficients"`

	// Centroid is the normalized mean of every voiced frame of the
	// recording and the primary match target.
	Centroid vector.FeatureVector `json:"centroid"`

	// AcceptanceRadius is the distance below which the centroid counts as
	// a candidate match.
	AcceptanceRadius float64 `json:"autoThreshold"`

	// SelectedEnergy is the summed raw energy of the onset window. Merge
	// uses it to pick the cleanest recording; it is not persisted.
	SelectedEnergy float64 `json:"-"`
}

// IsComplete reports whether the template can take part in matching.
func (t *Template) IsComplete() bool {
	return t != nil && len(t.Frames) >= 2 && len(t.Centroid) > 0
}

// Dimensions is the feature dimensionality of the centroid.
func (t *Template) Dimensions() int {
	return len(t.Centroid)
}

// Build derives a template from the consecutive voiced features of one
// utterance.
func Build(features []vector.FeatureVector) (Template, error) {
	n := len(features)
	if n < MinFeatures {
		return Template{}, fmt.Errorf("%w: %d voiced frames, need %d", ErrInsufficientData, n, MinFeatures)
	}

	dim := len(features[0])
	for i, f := range features {
		if len(f) != dim {
			return Template{}, fmt.Errorf("feature %d has %d coefficients, expected %d", i, len(f), dim)
		}
	}

	energies := make([]float64, n)
	for i, f := range features {
		energies[i] = vector.AbsEnergy(f)
	}

	onset := Onset(energies)

	start := max(onset-1, 0)
	end := min(onset+3, n-1)
	selected := features[start : end+1]

	t := Template{
		Frames:        make([]vector.FeatureVector, len(selected)),
		EnergyProfile: make([]float64, EnergyProfileLength),
		Centroid:      vector.Normalize(vector.Mean(features)),
	}

	for i, f := range selected {
		t.Frames[i] = vector.Normalize(f)
		t.SelectedEnergy += energies[start+i]
		if i < EnergyProfileLength {
			t.EnergyProfile[i] = energies[start+i]
		}
	}

	t.DeltaCoefficients = vector.Sub(t.Frames[1], t.Frames[0])

	return t, nil
}

// Onset returns the index of the largest positive energy increase over the
// previous frame, clamped into [1, len-2]. With no increase anywhere the
// result is the clamped index 1.
func Onset(energies []float64) int {
	onset := 0
	best := 0.0
	for i := 1; i < len(energies); i++ {
		if d := energies[i] - energies[i-1]; d > best {
			best = d
			onset = i
		}
	}
	return min(max(onset, 1), max(len(energies)-2, 1))
}

// Merge combines several single-utterance templates of one command. The
// centroid and delta are averaged; the onset window and energy profile are
// taken from the recording with the most selected-frame energy.
func Merge(ts []Template) (Template, error) {
	var complete []Template
	for _, t := range ts {
		if t.IsComplete() {
			complete = append(complete, t)
		}
	}

	if len(complete) == 0 {
		return Template{}, fmt.Errorf("%w: no complete recordings to merge", ErrInsufficientData)
	}

	dim := complete[0].Dimensions()
	centroids := make([]vector.FeatureVector, 0, len(complete))
	deltas := make([]vector.FeatureVector, 0, len(complete))
	best := 0
	for i, t := range complete {
		if t.Dimensions() != dim || len(t.DeltaCoefficients) != dim {
			return Template{}, fmt.Errorf("recording %d has %d coefficients, expected %d", i, t.Dimensions(), dim)
		}
		centroids = append(centroids, t.Centroid)
		deltas = append(deltas, t.DeltaCoefficients)
		if t.SelectedEnergy > complete[best].SelectedEnergy {
			best = i
		}
	}

	src := complete[best]
	merged := Template{
		Frames:            make([]vector.FeatureVector, len(src.Frames)),
		EnergyProfile:     make([]float64, EnergyProfileLength),
		DeltaCoefficients: vector.Mean(deltas),
		Centroid:          vector.Normalize(vector.Mean(centroids)),
		AcceptanceRadius:  src.AcceptanceRadius,
		SelectedEnergy:    src.SelectedEnergy,
	}
	for i, f := range src.Frames {
		merged.Frames[i] = f.Clone()
	}
	copy(merged.EnergyProfile, src.EnergyProfile)

	return merged, nil
}

// Spread is the mean distance from each recording's centroid to the merged
// centroid, the within-command variability.
func Spread(ts []Template, merged Template) float64 {
	var (
		sum   float64
		count int
	)
	for _, t := range ts {
		if !t.IsComplete() {
			continue
		}
		sum += vector.Distance(t.Centroid, merged.Centroid)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// AutoThreshold picks the shared acceptance radius for two merged
// templates: about halfway to the other centroid, shrunk when either
// command varies a lot, and never below max(1.2·spread, floor).
func AutoThreshold(a, b Template, spreadA, spreadB, floor float64) float64 {
	inter := vector.Distance(a.Centroid, b.Centroid)
	maxSpread := math.Max(spreadA, spreadB)

	candidate := math.Min(inter*0.5, inter-1.5*maxSpread)
	lower := math.Max(1.2*maxSpread, floor)

	if math.IsNaN(candidate) || math.IsInf(candidate, 0) {
		return lower
	}
	return math.Max(candidate, lower)
}
