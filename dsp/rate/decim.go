package rate

import "fmt"

// Decimator lowers the sample rate by an integer factor: an anti-aliasing
// lowpass followed by keep-every-Mth selection. The phase counter starts at
// zero, so the first filtered sample of a fresh stream is always emitted.
type Decimator struct {
	factor int
	fir    *firState
	phase  int
}

// NewDecimator creates a decimator for the given factor (>= 2).
func NewDecimator(factor int, opts ...Option) (*Decimator, error) {
	if factor < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFactor, factor)
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Decimator{
		factor: factor,
		fir:    newFIRState(designLowpass(cfg.order, 0.5/float64(factor), 1)),
	}, nil
}

// Factor returns the decimation factor.
func (d *Decimator) Factor() int {
	return d.factor
}

// Process consumes an input block and returns the surviving samples. Every
// input sample passes through the anti-aliasing filter even when discarded,
// so block boundaries do not disturb the output.
func (d *Decimator) Process(input []float64) []float64 {
	out := make([]float64, 0, len(input)/d.factor+1)

	for _, x := range input {
		y := d.fir.processSample(x)

		if d.phase == 0 {
			out = append(out, y)
		}

		d.phase++
		if d.phase >= d.factor {
			d.phase = 0
		}
	}

	return out
}

// Reset clears the filter state and phase counter.
func (d *Decimator) Reset() {
	d.fir.reset()
	d.phase = 0
}

// State returns the filter delay line, its write position, and the phase
// counter.
func (d *Decimator) State() (delay []float64, pos, phase int) {
	delay, pos = d.fir.snapshot()

	return delay, pos, d.phase
}

// SetState restores a previously captured filter state.
func (d *Decimator) SetState(delay []float64, pos, phase int) {
	d.fir.restore(delay, pos)

	if phase >= 0 && phase < d.factor {
		d.phase = phase
	}
}
