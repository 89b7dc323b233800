package frame_segmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-command-detection/config"
)

type recordingObserver struct {
	energies []float64
	voiced   []bool
}

func (o *recordingObserver) ObserveEnergy(index int, energy float64, voiced bool) {
	o.energies = append(o.energies, energy)
	o.voiced = append(o.voiced, voiced)
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSegmenter_Push(t *testing.T) {
	t.Run("overlapping frames are emitted every hop once a full frame is buffered", func(t *testing.T) {
		seg, err := New(&Config{FrameSize: 8, HopSize: 4, VADThreshold: 0})
		require.NoError(t, err)

		samples := make([]float64, 20)
		for i := range samples {
			samples[i] = float64(i)
		}

		// frames start at 0, 4, 8, 12; the fifth would need samples up to 23
		frames := seg.Push(samples)
		require.Len(t, frames, 4)

		for i, f := range frames {
			assert.Equal(t, i, f.Index)
			assert.Equal(t, float64(i*4), f.Samples[0])
			assert.Len(t, f.Samples, 8)
		}
	})

	t.Run("chunk boundaries do not change the frames", func(t *testing.T) {
		seg, err := New(&Config{FrameSize: 8, HopSize: 4})
		require.NoError(t, err)

		var frames []Frame
		for i := 0; i < 20; i++ {
			frames = append(frames, seg.Push([]float64{float64(i)})...)
		}

		require.Len(t, frames, 4)
		assert.Equal(t, []float64{12, 13, 14, 15, 16, 17, 18, 19}, frames[3].Samples)
	})

	t.Run("silent frames are dropped but still reported to the observer", func(t *testing.T) {
		obs := &recordingObserver{}
		seg, err := New(&Config{FrameSize: 4, HopSize: 2, VADThreshold: 0.5, Observer: obs})
		require.NoError(t, err)

		quiet := seg.Push(constant(8, 0.01))
		assert.Empty(t, quiet)

		loud := seg.Push(constant(8, 0.9))

		assert.NotEmpty(t, loud)
		assert.Len(t, obs.energies, len(obs.voiced))
		assert.Greater(t, len(obs.energies), len(loud))
		assert.False(t, obs.voiced[0])
		assert.InDelta(t, 4*0.9*0.9, loud[len(loud)-1].Energy, 1e-12)
	})

	t.Run("reset restarts frame numbering", func(t *testing.T) {
		seg, err := New(&Config{FrameSize: 4, HopSize: 2})
		require.NoError(t, err)

		seg.Push(constant(10, 1))
		seg.Reset()

		frames := seg.Push(constant(4, 1))
		require.Len(t, frames, 1)
		assert.Equal(t, 0, frames[0].Index)
	})
}

func TestNew(t *testing.T) {
	for name, cfg := range map[string]*Config{
		"nil config":     nil,
		"zero frame":     {FrameSize: 0, HopSize: 1},
		"hop equal":      {FrameSize: 8, HopSize: 8},
		"hop larger":     {FrameSize: 8, HopSize: 9},
		"zero hop":       {FrameSize: 8, HopSize: 0},
		"negative frame": {FrameSize: -4, HopSize: 2},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(cfg)

			assert.True(t, config.IsConfigurationError(err))
		})
	}
}

func TestInt16ToFloat(t *testing.T) {
	got := Int16ToFloat(nil, []int16{0, 16384, -32768})

	assert.Equal(t, []float64{0, 0.5, -1}, got)
}
