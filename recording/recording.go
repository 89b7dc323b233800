// Package recording reads and writes mono PCM16 WAV files and replays them as
// audio chunks.
package recording

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
)

// ReadWAV decodes the WAV file at path into mono PCM16 at sampleRate. Stereo
// input is mixed down and other rates are linearly resampled.
func ReadWAV(fileSys afero.Fs, path string, sampleRate int) ([]int16, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	fh, err := fileSys.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	dec := wav.NewDecoder(fh)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if buf == nil || buf.Data == nil {
		return nil, errors.New("invalid or empty wav data")
	}

	inRate := int(dec.SampleRate)
	chans := int(dec.NumChans)
	if inRate <= 0 {
		return nil, errors.New("invalid sample rate")
	}
	if chans != 1 && chans != 2 {
		return nil, fmt.Errorf("unsupported channel count %d", chans)
	}

	mono := mixdown(toFloat(buf), chans)
	if inRate != sampleRate {
		mono = resample(mono, inRate, sampleRate)
	}

	out := make([]int16, len(mono))
	for i, v := range mono {
		out[i] = toInt16(v)
	}

	return out, nil
}

// toFloat scales integer samples of any bit depth into [-1, 1].
func toFloat(buf *audio.IntBuffer) []float64 {
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}

	scale := float64(int(1) << (depth - 1))
	offset := 0.0
	if depth == 8 {
		// 8-bit wav is unsigned
		offset = 128
	}

	out := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = math.Max(-1, math.Min(1, (float64(v)-offset)/scale))
	}

	return out
}

func mixdown(samples []float64, chans int) []float64 {
	if chans == 1 {
		return samples
	}

	mono := make([]float64, len(samples)/2)
	for i := range mono {
		mono[i] = 0.5 * (samples[2*i] + samples[2*i+1])
	}

	return mono
}

func resample(samples []float64, from, to int) []float64 {
	if len(samples) == 0 {
		return samples
	}

	ratio := float64(to) / float64(from)
	out := make([]float64, int(math.Ceil(float64(len(samples))*ratio)))
	for i := range out {
		pos := float64(i) / ratio
		j := int(math.Floor(pos))
		frac := pos - float64(j)
		if j+1 < len(samples) {
			out[i] = (1-frac)*samples[j] + frac*samples[j+1]
		} else {
			out[i] = samples[len(samples)-1]
		}
	}

	return out
}

func toInt16(v float64) int16 {
	s := math.Round(v * 32768)
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, s)))
}

// WriteWAV stores samples as a mono PCM16 WAV file at path.
func WriteWAV(fileSys afero.Fs, path string, samples []int16, sampleRate int) error {
	return write(fileSys, path, samples, 1, sampleRate)
}

func write(fileSys afero.Fs, path string, samples []int16, channels, sampleRate int) error {
	fh, err := fileSys.Create(path)
	if err != nil {
		return err
	}

	w, err := wave.NewWriter(wave.WriterParam{
		Out:           fh,
		Channel:       channels,
		SampleRate:    sampleRate,
		BitsPerSample: 16,
	})
	if err != nil {
		fh.Close()
		return fmt.Errorf("creating wav writer: %w", err)
	}

	if _, err := w.WriteSample16(samples); err != nil {
		w.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}

	// closes fh
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing %s: %w", path, err)
	}

	return nil
}

// Chunks replays samples as chunks of size samples. The last chunk may be
// short. The channel is closed when every chunk is sent or ctx is done.
func Chunks(ctx context.Context, samples []int16, size int) <-chan []int16 {
	out := make(chan []int16)
	if size <= 0 {
		size = len(samples)
	}

	go func() {
		defer close(out)

		for start := 0; start < len(samples); start += size {
			end := min(start+size, len(samples))

			select {
			case <-ctx.Done():
				return
			case out <- samples[start:end]:
			}
		}
	}()

	return out
}
