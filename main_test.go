package main

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-command-detection/calibration"
	"voice-command-detection/recording"
)

// take is a tone of freq framed by a little silence.
func take(freq float64) []int16 {
	out := make([]int16, 1600+8000+1600)
	for i := 0; i < 8000; i++ {
		out[1600+i] = int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/16000))
	}
	return out
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommandWithFs(fs)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error", "--log-format", "text"}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func TestCalibrateThenAnalyze(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, recording.WriteWAV(fs, "jump.wav", take(300), 16000))
	require.NoError(t, recording.WriteWAV(fs, "turn.wav", take(3000), 16000))

	// pure tones have no articulation, so only the centroids are compared
	require.NoError(t, afero.WriteFile(fs, "tones.yaml", []byte("delta_enabled: false\n"), 0o644))
	tones := func(t *testing.T, args ...string) (string, error) {
		return run(t, fs, append([]string{"--config", "tones.yaml"}, args...)...)
	}

	out, err := tones(t, "calibrate",
		"--jump", "jump.wav,jump.wav,jump.wav",
		"--turn", "turn.wav,turn.wav,turn.wav")
	require.NoError(t, err, out)
	assert.Contains(t, out, "templates saved to templates.json")

	store, err := calibration.NewStore(&calibration.StoreConfig{FileSys: fs, Path: "templates.json"})
	require.NoError(t, err)
	artifact, err := store.Load()
	require.NoError(t, err)
	assert.Greater(t, artifact.AutoThreshold, 0.0)
	assert.Len(t, artifact.Complete(), 2)

	t.Run("a jump recording only fires jump", func(t *testing.T) {
		out, err := tones(t, "analyze", "jump.wav")
		require.NoError(t, err, out)

		assert.Contains(t, out, "turn: 0")
		assert.NotContains(t, out, "jump: 0")

		offsets := firedAt(t, out)
		require.NotEmpty(t, offsets)
		for _, s := range offsets {
			// 1600 + 8000 + 1600 samples at 16 kHz
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 0.7)
		}
	})

	t.Run("a turn recording only fires turn", func(t *testing.T) {
		out, err := tones(t, "analyze", "turn.wav")
		require.NoError(t, err, out)

		assert.Contains(t, out, "jump: 0")
		assert.NotContains(t, out, "turn: 0")
	})
}

// firedAt returns the offsets in seconds of the events analyze printed.
func firedAt(t *testing.T, out string) []float64 {
	t.Helper()

	var offsets []float64
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "frames)") {
			continue
		}

		fields := strings.Fields(line)
		require.NotEmpty(t, fields, line)

		s, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "s"), 64)
		require.NoError(t, err, line)
		offsets = append(offsets, s)
	}

	return offsets
}

func TestAnalyzeWithoutCalibration(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, recording.WriteWAV(fs, "jump.wav", take(300), 16000))

	out, err := run(t, fs, "analyze", "jump.wav")

	require.NoError(t, err, out)
	assert.Contains(t, out, "jump: 0")
	assert.Contains(t, out, "turn: 0")
}

func TestCalibrateRejectsSilence(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, recording.WriteWAV(fs, "quiet.wav", make([]int16, 16000), 16000))
	require.NoError(t, recording.WriteWAV(fs, "turn.wav", take(3000), 16000))

	out, err := run(t, fs, "calibrate", "--jump", "quiet.wav", "--turn", "turn.wav")

	assert.True(t, strings.Contains(out, "quiet.wav: skipped"), out)
	assert.ErrorIs(t, err, calibration.ErrInsufficientData)
}

func TestBadConfiguration(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("hop_size: 9999\n"), 0o644))

	_, err := run(t, fs, "--config", "bad.yaml", "analyze", "x.wav")

	assert.Error(t, err)
}
