package recording

import (
	"context"
	"math"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sweep(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(20000 * math.Sin(float64(i)/7))
	}
	return out
}

func TestWAV(t *testing.T) {
	t.Run("mono 16 bit survives a round trip unchanged", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		samples := sweep(3000)

		require.NoError(t, WriteWAV(fs, "take.wav", samples, 16000))

		got, err := ReadWAV(fs, "take.wav", 16000)
		require.NoError(t, err)
		assert.Equal(t, samples, got)
	})

	t.Run("stereo is mixed down", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		interleaved := []int16{1000, 3000, -2000, 2000, 400, 800}

		require.NoError(t, write(fs, "stereo.wav", interleaved, 2, 16000))

		got, err := ReadWAV(fs, "stereo.wav", 16000)
		require.NoError(t, err)
		assert.Equal(t, []int16{2000, 0, 600}, got)
	})

	t.Run("other rates are resampled", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, WriteWAV(fs, "slow.wav", sweep(800), 8000))

		got, err := ReadWAV(fs, "slow.wav", 16000)
		require.NoError(t, err)
		assert.Len(t, got, 1600)
	})

	t.Run("a file that is not a wav is rejected", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "notes.txt", []byte("jump turn jump"), 0o644))

		_, err := ReadWAV(fs, "notes.txt", 16000)
		assert.Error(t, err)

		_, err = ReadWAV(fs, "missing.wav", 16000)
		assert.Error(t, err)
	})
}

func TestChunks(t *testing.T) {
	t.Run("samples are replayed in order with a short tail", func(t *testing.T) {
		var sizes []int
		var all []int16
		for c := range Chunks(context.Background(), sweep(2500), 1000) {
			sizes = append(sizes, len(c))
			all = append(all, c...)
		}

		assert.Equal(t, []int{1000, 1000, 500}, sizes)
		assert.Equal(t, sweep(2500), all)
	})

	t.Run("cancellation stops the replay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		count := 0
		for range Chunks(ctx, sweep(10000), 10) {
			count++
		}

		assert.Less(t, count, 1000)
	})
}
