// Package vector holds the feature vector type and the small amount of
// linear algebra the templates and the recognizer share.
package vector

import "math"

// MinMagnitude is the norm below which a vector carries no usable
// direction and is left unnormalized.
const MinMagnitude = 1e-8

// FeatureVector is one frame's cepstral coefficients. Vectors are not
// mutated after they are produced; every function here returns a new one.
type FeatureVector []float64

// Clone returns a copy of v.
func (v FeatureVector) Clone() FeatureVector {
	if v == nil {
		return nil
	}
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}

// Norm is the Euclidean length of v.
func (v FeatureVector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize returns v scaled to unit length, or a copy of v unchanged when
// its magnitude is below MinMagnitude.
func Normalize(v FeatureVector) FeatureVector {
	out := v.Clone()
	n := v.Norm()
	if n < MinMagnitude {
		return out
	}
	for i := range out {
		out[i] /= n
	}
	return out
}

// Distance is the Euclidean distance between a and b, or +Inf when their
// dimensions differ.
func Distance(a, b FeatureVector) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Sub returns a - b. Dimensions must match.
func Sub(a, b FeatureVector) FeatureVector {
	out := make(FeatureVector, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// Mean is the component-wise average of vs. All vectors must share the
// first vector's dimension; nil is returned for an empty input.
func Mean(vs []FeatureVector) FeatureVector {
	if len(vs) == 0 {
		return nil
	}
	out := make(FeatureVector, len(vs[0]))
	for _, v := range vs {
		for i := range out {
			out[i] += v[i]
		}
	}
	inv := 1 / float64(len(vs))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// AbsEnergy is the sum of absolute coefficient values, the energy measure
// used for onset detection.
func AbsEnergy(v FeatureVector) float64 {
	var sum float64
	for _, x := range v {
		sum += math.Abs(x)
	}
	return sum
}

// ClampFinite replaces NaN and infinite coefficients with zero in place and
// reports how many were replaced.
func ClampFinite(v FeatureVector) int {
	n := 0
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			v[i] = 0
			n++
		}
	}
	return n
}
