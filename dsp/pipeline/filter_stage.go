package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-pipeline/dsp/filterdesign"
)

// errEmptyCoefficients guards against a degenerate transfer function.
var errEmptyCoefficients = errors.New("pipeline: filter coefficients must not be empty")

// filterStage runs a direct-form II transposed transfer function per
// channel. Coefficients come from the design subsystem or directly from
// the caller; the delay line is the runtime state.
type filterStage struct {
	coeffs filterdesign.Coefficients
	order  int // delay slots: max(len(B), len(A)) - 1

	channels int
	delays   [][]float64
}

func newFilterStage(coeffs filterdesign.Coefficients) (*filterStage, error) {
	if len(coeffs.B) == 0 || len(coeffs.A) == 0 {
		return nil, errEmptyCoefficients
	}

	order := len(coeffs.B)
	if len(coeffs.A) > order {
		order = len(coeffs.A)
	}

	return &filterStage{coeffs: coeffs, order: order - 1}, nil
}

func (f *filterStage) kind() StageKind { return KindFilter }
func (f *filterStage) label() string   { return KindFilter.String() }

func (f *filterStage) process(rc runContext, buf []float64) ([]float64, error) {
	f.ensureDelays(rc.channels)

	frames := len(buf) / rc.channels

	for i := range frames {
		for c := range rc.channels {
			idx := i*rc.channels + c
			buf[idx] = f.tick(f.delays[c], buf[idx])
		}
	}

	return buf, nil
}

// tick advances one direct-form II transposed step.
func (f *filterStage) tick(z []float64, x float64) float64 {
	b, a := f.coeffs.B, f.coeffs.A

	y := b[0] * x
	if len(z) > 0 {
		y += z[0]
	}

	for i := range len(z) {
		var v float64

		if i+1 < len(b) {
			v = b[i+1] * x
		}

		if i+1 < len(z) {
			v += z[i+1]
		}

		if i+1 < len(a) {
			v -= a[i+1] * y
		}

		z[i] = v
	}

	return y
}

func (f *filterStage) ensureDelays(channels int) {
	if f.delays != nil && f.channels == channels {
		return
	}

	f.channels = channels
	f.delays = make([][]float64, channels)

	for c := range f.delays {
		f.delays[c] = make([]float64, f.order)
	}
}

func (f *filterStage) reset() {
	f.delays = nil
	f.channels = 0
}

type filterState struct {
	Channels int         `json:"channels"`
	Delays   [][]float64 `json:"delays"`
}

func (f *filterStage) snapshot() (json.RawMessage, error) {
	return json.Marshal(filterState{Channels: f.channels, Delays: f.delays})
}

func (f *filterStage) restore(raw json.RawMessage) error {
	var st filterState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("pipeline: filter state: %w", err)
	}

	f.reset()

	if st.Channels == 0 {
		return nil
	}

	f.ensureDelays(st.Channels)

	for c := range f.delays {
		if c < len(st.Delays) && len(st.Delays[c]) == f.order {
			copy(f.delays[c], st.Delays[c])
		}
	}

	return nil
}

func (f *filterStage) describe() StageInfo {
	return StageInfo{
		Kind:     KindFilter.String(),
		Label:    KindFilter.String(),
		Channels: f.channels,
	}
}
