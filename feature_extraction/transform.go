package feature_extraction

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"

	"voice-command-detection/config"
)

// Transform computes the magnitude spectrum of a real frame. Implementations
// keep scratch state and must not be used from more than one goroutine.
type Transform interface {
	// Size is the frame length the transform accepts.
	Size() int

	// Bins is the number of magnitude bins produced, Size()/2.
	Bins() int

	// Magnitudes writes the first Bins() magnitudes of frame's spectrum
	// into dst and returns it.
	Magnitudes(dst, frame []float64) []float64
}

// NewTransform returns the transform called name for frames of size samples.
func NewTransform(name string, size int) (Transform, error) {
	if size <= 0 || size%2 != 0 {
		return nil, config.Errorf("frame_size", "transform needs a positive even size, got %d", size)
	}

	switch name {
	case config.TransformRadix2:
		if size&(size-1) != 0 {
			return nil, config.Errorf("frame_size", "radix2 transform needs a power of two, got %d", size)
		}
		return &radix2Transform{size: size}, nil
	case config.TransformGonum:
		return &gonumTransform{size: size, fft: fourier.NewFFT(size)}, nil
	case config.TransformDirect:
		return newDirectTransform(size), nil
	default:
		return nil, config.Errorf("transform", "unknown transform %q", name)
	}
}

func resize(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}

// radix2Transform uses go-dsp, which runs power-of-two sizes through its
// radix-2 kernel and returns once the whole spectrum is computed.
type radix2Transform struct {
	size int
}

func (t *radix2Transform) Size() int { return t.size }
func (t *radix2Transform) Bins() int { return t.size / 2 }

func (t *radix2Transform) Magnitudes(dst, frame []float64) []float64 {
	dst = resize(dst, t.Bins())
	coeffs := fft.FFTReal(frame)
	for k := range dst {
		dst[k] = cmplx.Abs(coeffs[k])
	}
	return dst
}

type gonumTransform struct {
	size   int
	fft    *fourier.FFT
	coeffs []complex128
}

func (t *gonumTransform) Size() int { return t.size }
func (t *gonumTransform) Bins() int { return t.size / 2 }

func (t *gonumTransform) Magnitudes(dst, frame []float64) []float64 {
	dst = resize(dst, t.Bins())
	t.coeffs = t.fft.Coefficients(t.coeffs, frame)
	for k := range dst {
		dst[k] = cmplx.Abs(t.coeffs[k])
	}
	return dst
}

// directTransform is the O(n²) DFT, kept for validating the fast paths.
type directTransform struct {
	size     int
	cos, sin []float64
}

func newDirectTransform(size int) *directTransform {
	t := &directTransform{
		size: size,
		cos:  make([]float64, size),
		sin:  make([]float64, size),
	}
	for i := 0; i < size; i++ {
		angle := 2 * math.Pi * float64(i) / float64(size)
		t.cos[i] = math.Cos(angle)
		t.sin[i] = math.Sin(angle)
	}
	return t
}

func (t *directTransform) Size() int { return t.size }
func (t *directTransform) Bins() int { return t.size / 2 }

func (t *directTransform) Magnitudes(dst, frame []float64) []float64 {
	dst = resize(dst, t.Bins())
	for k := range dst {
		var re, im float64
		for n, x := range frame {
			idx := (k * n) % t.size
			re += x * t.cos[idx]
			im -= x * t.sin[idx]
		}
		dst[k] = math.Hypot(re, im)
	}
	return dst
}
