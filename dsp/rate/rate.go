// Package rate implements sample-rate conversion: integer interpolation and
// decimation with anti-imaging/anti-aliasing FIR filters, and rational
// resampling via a fused polyphase filter bank that never materializes the
// upsampled intermediate signal.
package rate

import (
	"errors"

	"github.com/cwbudde/algo-pipeline/dsp/filterdesign"
)

var (
	// ErrInvalidFactor indicates an interpolation/decimation factor below 2.
	ErrInvalidFactor = errors.New("rate: factor must be >= 2")
	// ErrInvalidRatio indicates a non-positive resampling ratio component.
	ErrInvalidRatio = errors.New("rate: ratio factors must be >= 1")
	// ErrInvalidOrder indicates an invalid anti-aliasing FIR length.
	ErrInvalidOrder = errors.New("rate: filter order must be odd and >= 3")
)

// DefaultOrder is the default anti-imaging/anti-aliasing FIR length.
const DefaultOrder = 51

// cutoffScale backs the cutoff off the theoretical edge to keep the
// transition band inside the passband of the windowed design.
const cutoffScale = 0.92

type config struct {
	order int
}

// Option configures a rate converter.
type Option func(*config)

// WithOrder overrides the FIR length. It must be odd and >= 3.
func WithOrder(n int) Option {
	return func(cfg *config) {
		cfg.order = n
	}
}

func resolveConfig(opts []Option) (config, error) {
	cfg := config{order: DefaultOrder}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.order < 3 || cfg.order%2 == 0 {
		return cfg, ErrInvalidOrder
	}

	return cfg, nil
}

// firState is a direct-form FIR with a circular delay line.
type firState struct {
	coeffs []float64
	delay  []float64
	pos    int
}

func newFIRState(coeffs []float64) *firState {
	c := make([]float64, len(coeffs))
	copy(c, coeffs)

	return &firState{
		coeffs: c,
		delay:  make([]float64, len(coeffs)),
	}
}

func (f *firState) processSample(x float64) float64 {
	f.delay[f.pos] = x

	var y float64

	n := len(f.coeffs)
	p := f.pos

	for k := range n {
		y += f.coeffs[k] * f.delay[p]

		p--
		if p < 0 {
			p = n - 1
		}
	}

	f.pos++
	if f.pos >= n {
		f.pos = 0
	}

	return y
}

func (f *firState) reset() {
	for i := range f.delay {
		f.delay[i] = 0
	}

	f.pos = 0
}

// snapshot returns the delay line contents and write position.
func (f *firState) snapshot() ([]float64, int) {
	out := make([]float64, len(f.delay))
	copy(out, f.delay)

	return out, f.pos
}

func (f *firState) restore(delay []float64, pos int) {
	if len(delay) == len(f.delay) {
		copy(f.delay, delay)
	}

	if pos >= 0 && pos < len(f.delay) {
		f.pos = pos
	}
}

func designLowpass(order int, cutoffNorm float64, gain float64) []float64 {
	h := filterdesign.WindowedSincLowpass(order, cutoffNorm*cutoffScale)
	if gain != 1 {
		for i := range h {
			h[i] *= gain
		}
	}

	return h
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}
