// Package envelope extracts signal envelopes via the analytic signal: each
// frame is transformed, negative frequencies are zeroed, and the magnitude
// of the inverse transform is the instantaneous amplitude.
package envelope

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
)

var (
	// ErrInvalidWindow indicates a window size that is not a power of two
	// of at least 2.
	ErrInvalidWindow = errors.New("envelope: window size must be a power of two >= 2")
	// ErrInvalidHop indicates a hop size outside [1, windowSize].
	ErrInvalidHop = errors.New("envelope: hop size must be in [1, windowSize]")
)

// DefaultWindowSize is the analysis frame length used when the caller
// passes zero.
const DefaultWindowSize = 64

// Hilbert computes a streaming envelope using frame-wise analytic signal
// magnitude. Frames advance by hopSize samples; each full frame emits its
// first hopSize envelope values.
type Hilbert struct {
	windowSize int
	hopSize    int

	plan *algofft.Plan[complex128]

	freq     []complex128
	analytic []complex128
	re       []float64
	im       []float64
	mag      []float64

	pending []float64
}

// NewHilbert creates an envelope follower. windowSize 0 selects
// DefaultWindowSize; hopSize 0 selects windowSize/2.
func NewHilbert(windowSize, hopSize int) (*Hilbert, error) {
	if windowSize == 0 {
		windowSize = DefaultWindowSize
	}

	if windowSize < 2 || windowSize&(windowSize-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowSize)
	}

	if hopSize == 0 {
		hopSize = windowSize / 2
	}

	if hopSize < 1 || hopSize > windowSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHop, hopSize)
	}

	plan, err := algofft.NewPlan64(windowSize)
	if err != nil {
		return nil, fmt.Errorf("envelope: fft plan: %w", err)
	}

	return &Hilbert{
		windowSize: windowSize,
		hopSize:    hopSize,
		plan:       plan,
		freq:       make([]complex128, windowSize),
		analytic:   make([]complex128, windowSize),
		re:         make([]float64, windowSize),
		im:         make([]float64, windowSize),
		mag:        make([]float64, windowSize),
	}, nil
}

// WindowSize returns the analysis frame length.
func (h *Hilbert) WindowSize() int {
	return h.windowSize
}

// HopSize returns the frame advance.
func (h *Hilbert) HopSize() int {
	return h.hopSize
}

// Process buffers the block and emits hopSize envelope samples for every
// complete frame. Samples not yet covered by a full frame stay pending.
func (h *Hilbert) Process(block []float64) ([]float64, error) {
	h.pending = append(h.pending, block...)

	var out []float64

	for len(h.pending) >= h.windowSize {
		env, err := h.frame(h.pending[:h.windowSize])
		if err != nil {
			return nil, err
		}

		out = append(out, env[:h.hopSize]...)
		h.pending = h.pending[h.hopSize:]
	}

	return out, nil
}

func (h *Hilbert) frame(frame []float64) ([]float64, error) {
	for i, v := range frame {
		h.analytic[i] = complex(v, 0)
	}

	if err := h.plan.Forward(h.freq, h.analytic); err != nil {
		return nil, fmt.Errorf("envelope: forward fft: %w", err)
	}

	// Analytic spectrum: keep DC and Nyquist, double positive
	// frequencies, zero negative frequencies.
	half := h.windowSize / 2
	for k := 1; k < half; k++ {
		h.freq[k] *= 2
	}

	for k := half + 1; k < h.windowSize; k++ {
		h.freq[k] = 0
	}

	if err := h.plan.Inverse(h.analytic, h.freq); err != nil {
		return nil, fmt.Errorf("envelope: inverse fft: %w", err)
	}

	for i, c := range h.analytic {
		h.re[i] = real(c)
		h.im[i] = imag(c)
	}

	vecmath.Magnitude(h.mag, h.re, h.im)

	return h.mag, nil
}

// Pending returns a copy of the samples awaiting a full frame.
func (h *Hilbert) Pending() []float64 {
	out := make([]float64, len(h.pending))
	copy(out, h.pending)

	return out
}

// SetPending restores buffered samples captured with Pending.
func (h *Hilbert) SetPending(p []float64) {
	h.pending = append(h.pending[:0], p...)
}

// Reset discards buffered samples.
func (h *Hilbert) Reset() {
	h.pending = h.pending[:0]
}
