package template

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-command-detection/vector"
)

func repeat(v vector.FeatureVector, n int) []vector.FeatureVector {
	out := make([]vector.FeatureVector, n)
	for i := range out {
		out[i] = v.Clone()
	}
	return out
}

// utterance builds n features that stay quiet, jump in energy at attack and
// stay loud, pointing along base with a small per-frame wobble.
func utterance(base vector.FeatureVector, n, attack int) []vector.FeatureVector {
	out := make([]vector.FeatureVector, n)
	for i := range out {
		scale := 0.5
		if i >= attack {
			scale = 4
		}
		v := make(vector.FeatureVector, len(base))
		for j := range base {
			v[j] = base[j]*scale + 0.01*float64((i+j)%3)
		}
		out[i] = v
	}
	return out
}

func TestBuild(t *testing.T) {
	t.Run("identical frames still clamp the onset and give a complete template", func(t *testing.T) {
		tpl, err := Build(repeat(vector.FeatureVector{2, 1, 0, 0, 0, 0}, 6))

		require.NoError(t, err)
		assert.True(t, tpl.IsComplete())
		assert.Len(t, tpl.Frames, 5)
		assert.Len(t, tpl.Centroid, 6)
		assert.Len(t, tpl.DeltaCoefficients, 6)
		assert.Len(t, tpl.EnergyProfile, EnergyProfileLength)
		assert.InDelta(t, 1, tpl.Centroid.Norm(), 1e-12)
		assert.InDelta(t, 0, tpl.DeltaCoefficients.Norm(), 1e-12)
		assert.Equal(t, []float64{3, 3, 3}, tpl.EnergyProfile)
	})

	t.Run("fewer than five frames is insufficient data", func(t *testing.T) {
		tpl, err := Build(repeat(vector.FeatureVector{1, 0, 0, 0, 0, 0}, 4))

		assert.True(t, errors.Is(err, ErrInsufficientData))
		assert.False(t, tpl.IsComplete())
	})

	t.Run("the window sits around the attack transient", func(t *testing.T) {
		features := utterance(vector.FeatureVector{1, 2, 0, 0, 0, 0}, 12, 6)

		tpl, err := Build(features)
		require.NoError(t, err)

		// onset 6 selects frames 5..9
		require.Len(t, tpl.Frames, 5)
		assert.InDelta(t, vector.Normalize(features[5])[0], tpl.Frames[0][0], 1e-12)
		assert.InDelta(t, vector.Normalize(features[9])[1], tpl.Frames[4][1], 1e-12)
		assert.Equal(t, vector.AbsEnergy(features[5]), tpl.EnergyProfile[0])

		want := vector.Sub(vector.Normalize(features[6]), vector.Normalize(features[5]))
		for i := range want {
			assert.InDelta(t, want[i], tpl.DeltaCoefficients[i], 1e-12)
		}
	})

	t.Run("the centroid uses every frame, not just the window", func(t *testing.T) {
		features := utterance(vector.FeatureVector{1, 2, 0, 0, 0, 0}, 12, 6)

		tpl, err := Build(features)
		require.NoError(t, err)

		want := vector.Normalize(vector.Mean(features))
		for i := range want {
			assert.InDelta(t, want[i], tpl.Centroid[i], 1e-12)
		}
	})

	t.Run("a late attack clips the window at the end", func(t *testing.T) {
		features := utterance(vector.FeatureVector{0, 0, 1, 0, 0, 0}, 8, 7)

		tpl, err := Build(features)
		require.NoError(t, err)

		// onset 7 is clamped to 6, window 5..7
		assert.Len(t, tpl.Frames, 3)
		assert.LessOrEqual(t, len(tpl.Frames), MaxFrames)
	})

	t.Run("mixed dimensions are rejected", func(t *testing.T) {
		features := repeat(vector.FeatureVector{1, 0, 0, 0, 0, 0}, 6)
		features[3] = vector.FeatureVector{1, 0}

		_, err := Build(features)

		assert.Error(t, err)
	})
}

func TestOnset(t *testing.T) {
	assert.Equal(t, 1, Onset([]float64{1, 1, 1, 1, 1}))
	assert.Equal(t, 3, Onset([]float64{1, 2, 2, 9, 9, 9}))
	assert.Equal(t, 4, Onset([]float64{1, 1, 1, 1, 1, 8}))
	assert.Equal(t, 1, Onset([]float64{9, 8, 7, 6, 5}))
}

func TestIsComplete(t *testing.T) {
	t.Run("a single frame is not enough", func(t *testing.T) {
		tpl := Template{
			Frames:   []vector.FeatureVector{{1, 0, 0, 0, 0, 0}},
			Centroid: vector.FeatureVector{1, 0, 0, 0, 0, 0},
		}

		assert.False(t, tpl.IsComplete())
	})

	t.Run("a nil template is incomplete", func(t *testing.T) {
		var tpl *Template

		assert.False(t, tpl.IsComplete())
	})
}

func TestMerge(t *testing.T) {
	quiet, err := Build(utterance(vector.FeatureVector{1, 0.2, 0, 0, 0, 0}, 10, 3))
	require.NoError(t, err)
	loud, err := Build(utterance(vector.FeatureVector{3, 0, 1, 0, 0, 0}, 10, 5))
	require.NoError(t, err)
	mid, err := Build(utterance(vector.FeatureVector{2, 0.5, 0.3, 0, 0, 0}, 10, 4))
	require.NoError(t, err)

	t.Run("averaged fields do not depend on recording order", func(t *testing.T) {
		a, err := Merge([]Template{quiet, loud, mid})
		require.NoError(t, err)
		b, err := Merge([]Template{mid, quiet, loud})
		require.NoError(t, err)

		for i := range a.Centroid {
			assert.InDelta(t, a.Centroid[i], b.Centroid[i], 1e-12)
			assert.InDelta(t, a.DeltaCoefficients[i], b.DeltaCoefficients[i], 1e-12)
		}
		assert.InDelta(t, 1, a.Centroid.Norm(), 1e-12)
	})

	t.Run("the window comes from the most energetic recording", func(t *testing.T) {
		merged, err := Merge([]Template{quiet, loud, mid})
		require.NoError(t, err)

		require.Greater(t, loud.SelectedEnergy, quiet.SelectedEnergy)
		require.Greater(t, loud.SelectedEnergy, mid.SelectedEnergy)
		assert.Equal(t, loud.Frames, merged.Frames)
		assert.Equal(t, loud.EnergyProfile, merged.EnergyProfile)
	})

	t.Run("incomplete recordings are skipped", func(t *testing.T) {
		merged, err := Merge([]Template{{}, quiet})
		require.NoError(t, err)

		for i := range quiet.Centroid {
			assert.InDelta(t, quiet.Centroid[i], merged.Centroid[i], 1e-12)
		}
	})

	t.Run("nothing to merge is insufficient data", func(t *testing.T) {
		_, err := Merge([]Template{{}})

		assert.True(t, errors.Is(err, ErrInsufficientData))
	})
}

func TestSpread(t *testing.T) {
	a := Template{Frames: make([]vector.FeatureVector, 2), Centroid: vector.FeatureVector{1, 0}}
	b := Template{Frames: make([]vector.FeatureVector, 2), Centroid: vector.FeatureVector{0, 1}}
	merged := Template{Centroid: vector.Normalize(vector.FeatureVector{1, 1})}

	want := vector.Distance(a.Centroid, merged.Centroid)

	assert.InDelta(t, want, Spread([]Template{a, b}, merged), 1e-12)
	assert.Equal(t, 0.0, Spread(nil, merged))
}

func TestAutoThreshold(t *testing.T) {
	jump := Template{Centroid: vector.FeatureVector{1, 0, 0, 0, 0, 0}}
	turn := Template{Centroid: vector.FeatureVector{0, 1, 0, 0, 0, 0}}

	t.Run("tight commands reach halfway to the other centroid", func(t *testing.T) {
		assert.InDelta(t, math.Sqrt2/2, AutoThreshold(jump, turn, 0, 0, DefaultThresholdFloor), 1e-12)
	})

	t.Run("spread shrinks the threshold", func(t *testing.T) {
		got := AutoThreshold(jump, turn, 0.5, 0.1, DefaultThresholdFloor)

		assert.InDelta(t, math.Sqrt2-0.75, got, 1e-12)
	})

	t.Run("very large spread is floored at 1.2 times the spread", func(t *testing.T) {
		got := AutoThreshold(jump, turn, 0.9, 0, DefaultThresholdFloor)

		assert.InDelta(t, 1.08, got, 1e-12)
	})

	t.Run("identical centroids never collapse to zero", func(t *testing.T) {
		got := AutoThreshold(jump, jump, 0, 0, DefaultThresholdFloor)

		assert.Equal(t, DefaultThresholdFloor, got)
	})
}

func TestCommand(t *testing.T) {
	assert.Equal(t, Turn, Jump.Other())
	assert.Equal(t, Jump, Turn.Other())
	assert.True(t, Jump.Valid())
	assert.False(t, Command("duck").Valid())
}
