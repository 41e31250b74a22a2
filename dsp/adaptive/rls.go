package adaptive

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidForgetting indicates a forgetting factor outside (0, 1].
	ErrInvalidForgetting = errors.New("adaptive: forgetting factor must be in (0, 1]")
	// ErrInvalidDelta indicates a non-positive regularization term.
	ErrInvalidDelta = errors.New("adaptive: delta must be > 0")
	// ErrCovarianceSize indicates a restored covariance of the wrong size.
	ErrCovarianceSize = errors.New("adaptive: covariance size mismatch")
)

// DefaultDelta is the RLS inverse-covariance regularization applied when the
// caller passes zero.
const DefaultDelta = 0.01

// RLS is a recursive least-squares adaptive filter. It converges faster than
// LMS at O(N^2) cost per sample, maintaining an inverse covariance matrix
// alongside the weight vector.
type RLS struct {
	n       int
	lambda  float64
	delta   float64
	weights *mat.VecDense
	p       *mat.Dense
	history []float64 // regressor, newest first

	// Scratch vectors reused across samples.
	xv  *mat.VecDense
	px  *mat.VecDense
	ptx *mat.VecDense
	kxp *mat.Dense
}

// NewRLS creates an RLS filter with numTaps weights, forgetting factor
// lambda in (0, 1], and regularization delta (0 selects DefaultDelta).
// The inverse covariance is initialized to I/delta.
func NewRLS(numTaps int, lambda, delta float64) (*RLS, error) {
	if numTaps < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTaps, numTaps)
	}

	if lambda <= 0 || lambda > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidForgetting, lambda)
	}

	if delta == 0 {
		delta = DefaultDelta
	}

	if delta < 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDelta, delta)
	}

	f := &RLS{
		n:       numTaps,
		lambda:  lambda,
		delta:   delta,
		weights: mat.NewVecDense(numTaps, nil),
		p:       mat.NewDense(numTaps, numTaps, nil),
		history: make([]float64, numTaps),
		xv:      mat.NewVecDense(numTaps, nil),
		px:      mat.NewVecDense(numTaps, nil),
		ptx:     mat.NewVecDense(numTaps, nil),
		kxp:     mat.NewDense(numTaps, numTaps, nil),
	}

	f.initCovariance()

	return f, nil
}

func (f *RLS) initCovariance() {
	f.p.Zero()
	for i := range f.n {
		f.p.Set(i, i, 1/f.delta)
	}
}

// NumTaps returns the filter length.
func (f *RLS) NumTaps() int {
	return f.n
}

// ProcessSample consumes one primary sample x and one reference sample d,
// runs the RLS gain/update recursion, and returns the error e = d - y.
func (f *RLS) ProcessSample(x, d float64) float64 {
	copy(f.history[1:], f.history[:len(f.history)-1])
	f.history[0] = x

	for i, v := range f.history {
		f.xv.SetVec(i, v)
	}

	// k = P x / (lambda + x' P x)
	f.px.MulVec(f.p, f.xv)
	denom := f.lambda + mat.Dot(f.xv, f.px)

	// A priori error.
	e := d - mat.Dot(f.weights, f.xv)

	if denom == 0 {
		return e
	}

	// w += e/denom * (P x)
	f.weights.AddScaledVec(f.weights, e/denom, f.px)

	// P = (P - k (x' P)) / lambda
	f.ptx.MulVec(f.p.T(), f.xv)
	f.kxp.Outer(1/denom, f.px, f.ptx)
	f.p.Sub(f.p, f.kxp)
	f.p.Scale(1/f.lambda, f.p)

	return e
}

// Weights returns a copy of the current weight vector.
func (f *RLS) Weights() []float64 {
	out := make([]float64, f.n)
	for i := range out {
		out[i] = f.weights.AtVec(i)
	}

	return out
}

// SetWeights replaces the weight vector. The length must match NumTaps.
func (f *RLS) SetWeights(w []float64) error {
	if len(w) != f.n {
		return fmt.Errorf("%w: got %d, want %d", ErrWeightLength, len(w), f.n)
	}

	for i, v := range w {
		f.weights.SetVec(i, v)
	}

	return nil
}

// Covariance returns the inverse covariance matrix in row-major order.
func (f *RLS) Covariance() []float64 {
	out := make([]float64, f.n*f.n)
	for i := range f.n {
		for j := range f.n {
			out[i*f.n+j] = f.p.At(i, j)
		}
	}

	return out
}

// SetCovariance replaces the inverse covariance from row-major data.
func (f *RLS) SetCovariance(data []float64) error {
	if len(data) != f.n*f.n {
		return fmt.Errorf("%w: got %d, want %d", ErrCovarianceSize, len(data), f.n*f.n)
	}

	for i := range f.n {
		for j := range f.n {
			f.p.Set(i, j, data[i*f.n+j])
		}
	}

	return nil
}

// History returns a copy of the regressor, newest first.
func (f *RLS) History() []float64 {
	out := make([]float64, len(f.history))
	copy(out, f.history)

	return out
}

// SetHistory replaces the regressor (newest first).
func (f *RLS) SetHistory(h []float64) error {
	if len(h) != len(f.history) {
		return fmt.Errorf("%w: got %d, want %d", ErrWeightLength, len(h), len(f.history))
	}

	copy(f.history, h)

	return nil
}

// Reset zeroes the weights and regressor and reinitializes the covariance.
func (f *RLS) Reset() {
	f.weights.Zero()

	for i := range f.history {
		f.history[i] = 0
	}

	f.initCovariance()
}
