package rate

import "fmt"

// Interpolator raises the sample rate by an integer factor. The anti-imaging
// lowpass is decomposed into a polyphase bank so each input sample yields
// factor output samples without computing zero-stuffed products.
type Interpolator struct {
	factor  int
	phases  [][]float64
	history []float64 // newest first, one slot per polyphase tap
}

// NewInterpolator creates an interpolator for the given factor (>= 2).
func NewInterpolator(factor int, opts ...Option) (*Interpolator, error) {
	if factor < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFactor, factor)
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	// Cutoff at the raised rate sits at the original Nyquist frequency.
	proto := designLowpass(cfg.order, 0.5/float64(factor), float64(factor))
	phases := decompose(proto, factor)

	return &Interpolator{
		factor:  factor,
		phases:  phases,
		history: make([]float64, len(phases[0])),
	}, nil
}

// Factor returns the interpolation factor.
func (it *Interpolator) Factor() int {
	return it.factor
}

// Process consumes an input block and returns factor*len(input) samples.
func (it *Interpolator) Process(input []float64) []float64 {
	out := make([]float64, 0, len(input)*it.factor)

	for _, x := range input {
		copy(it.history[1:], it.history[:len(it.history)-1])
		it.history[0] = x

		for _, taps := range it.phases {
			var y float64
			for k, c := range taps {
				y += c * it.history[k]
			}

			out = append(out, y)
		}
	}

	return out
}

// Reset clears the input history.
func (it *Interpolator) Reset() {
	for i := range it.history {
		it.history[i] = 0
	}
}

// History returns a copy of the input history, newest first.
func (it *Interpolator) History() []float64 {
	out := make([]float64, len(it.history))
	copy(out, it.history)

	return out
}

// SetHistory restores a previously captured input history.
func (it *Interpolator) SetHistory(h []float64) {
	if len(h) == len(it.history) {
		copy(it.history, h)
	}
}

// decompose splits a prototype FIR into factor polyphase branches, padded to
// equal length. Branch p holds proto[p], proto[p+factor], proto[p+2*factor]...
func decompose(proto []float64, factor int) [][]float64 {
	perPhase := (len(proto) + factor - 1) / factor
	phases := make([][]float64, factor)

	for p := range phases {
		taps := make([]float64, perPhase)

		for k := range perPhase {
			idx := p + k*factor
			if idx < len(proto) {
				taps[k] = proto[idx]
			}
		}

		phases[p] = taps
	}

	return phases
}
