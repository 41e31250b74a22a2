// Package adaptive implements adaptive FIR filters whose weights evolve
// sample by sample: LMS/NLMS gradient-descent variants and the recursive
// least-squares (RLS) algorithm.
package adaptive

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTaps indicates a non-positive filter length.
	ErrInvalidTaps = errors.New("adaptive: numTaps must be >= 1")
	// ErrInvalidStep indicates a learning rate outside (0, 1].
	ErrInvalidStep = errors.New("adaptive: learning rate must be in (0, 1]")
	// ErrInvalidLeakage indicates a leakage factor outside [0, 1).
	ErrInvalidLeakage = errors.New("adaptive: leakage must be in [0, 1)")
	// ErrWeightLength indicates a restored weight vector of the wrong size.
	ErrWeightLength = errors.New("adaptive: weight length mismatch")
)

const defaultEpsilon = 1e-8

// LMS is a least-mean-squares adaptive filter. With normalization enabled
// it runs the NLMS update, dividing the step by the regressor power.
type LMS struct {
	weights []float64
	history []float64 // regressor, newest first
	power   float64   // running sum of squares of history

	mu         float64
	leak       float64
	eps        float64
	normalized bool
}

// LMSOption configures an LMS filter.
type LMSOption func(*LMS)

// WithNormalization enables the NLMS update (step divided by signal power).
func WithNormalization() LMSOption {
	return func(f *LMS) {
		f.normalized = true
	}
}

// WithLeakage sets the leaky-LMS weight shrinkage factor in [0, 1).
// Zero (the default) disables leakage.
func WithLeakage(leak float64) LMSOption {
	return func(f *LMS) {
		f.leak = leak
	}
}

// WithEpsilon overrides the NLMS power regularization term.
func WithEpsilon(eps float64) LMSOption {
	return func(f *LMS) {
		if eps > 0 {
			f.eps = eps
		}
	}
}

// NewLMS creates an LMS filter with numTaps weights and learning rate mu.
func NewLMS(numTaps int, mu float64, opts ...LMSOption) (*LMS, error) {
	if numTaps < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTaps, numTaps)
	}

	if mu <= 0 || mu > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidStep, mu)
	}

	f := &LMS{
		weights: make([]float64, numTaps),
		history: make([]float64, numTaps),
		mu:      mu,
		eps:     defaultEpsilon,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	if f.leak < 0 || f.leak >= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLeakage, f.leak)
	}

	return f, nil
}

// NewNLMS creates a normalized LMS filter.
func NewNLMS(numTaps int, mu float64, opts ...LMSOption) (*LMS, error) {
	return NewLMS(numTaps, mu, append(opts, WithNormalization())...)
}

// NumTaps returns the filter length.
func (f *LMS) NumTaps() int {
	return len(f.weights)
}

// ProcessSample consumes one primary sample x and one reference sample d,
// adapts the weights, and returns the error signal e = d - y.
func (f *LMS) ProcessSample(x, d float64) float64 {
	// Shift the regressor, newest first.
	old := f.history[len(f.history)-1]
	copy(f.history[1:], f.history[:len(f.history)-1])
	f.history[0] = x
	f.power += x*x - old*old

	var y float64
	for k, w := range f.weights {
		y += w * f.history[k]
	}

	e := d - y

	step := f.mu
	if f.normalized {
		p := f.power
		if p < 0 {
			p = 0
		}

		step = f.mu / (p + f.eps)
	}

	shrink := 1 - f.mu*f.leak
	for k := range f.weights {
		f.weights[k] = shrink*f.weights[k] + step*e*f.history[k]
	}

	return e
}

// Weights returns a copy of the current weight vector.
func (f *LMS) Weights() []float64 {
	out := make([]float64, len(f.weights))
	copy(out, f.weights)

	return out
}

// SetWeights replaces the weight vector. The length must match NumTaps.
func (f *LMS) SetWeights(w []float64) error {
	if len(w) != len(f.weights) {
		return fmt.Errorf("%w: got %d, want %d", ErrWeightLength, len(w), len(f.weights))
	}

	copy(f.weights, w)

	return nil
}

// History returns a copy of the regressor, newest first.
func (f *LMS) History() []float64 {
	out := make([]float64, len(f.history))
	copy(out, f.history)

	return out
}

// SetHistory replaces the regressor (newest first) and recomputes the
// running power.
func (f *LMS) SetHistory(h []float64) error {
	if len(h) != len(f.history) {
		return fmt.Errorf("%w: got %d, want %d", ErrWeightLength, len(h), len(f.history))
	}

	copy(f.history, h)

	f.power = 0
	for _, v := range f.history {
		f.power += v * v
	}

	return nil
}

// Reset zeroes the weights and the regressor.
func (f *LMS) Reset() {
	for i := range f.weights {
		f.weights[i] = 0
		f.history[i] = 0
	}

	f.power = 0
}
