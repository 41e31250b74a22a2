package rate

import "fmt"

// Resampler performs rational sample-rate conversion by the reduced ratio
// up/down using a fused polyphase FIR: conceptually upsample by up, lowpass,
// downsample by down, computed without ever materializing the raised-rate
// signal.
type Resampler struct {
	up   int
	down int

	taps       []float64
	phases     [][]float64
	maxPhaseLn int

	phase      int
	inputIndex int
	totalIn    int
	history    []float64
}

// ResamplerState captures the streaming position of a Resampler so a
// conversion can be suspended and resumed across process calls.
type ResamplerState struct {
	Phase      int       `json:"phase"`
	InputIndex int       `json:"inputIndex"`
	TotalIn    int       `json:"totalIn"`
	History    []float64 `json:"history"`
}

// NewResampler creates a resampler for ratio up/down. The ratio is reduced
// by its greatest common divisor, so NewResampler(160, 147) and
// NewResampler(320, 294) build identical converters.
func NewResampler(up, down int, opts ...Option) (*Resampler, error) {
	if up < 1 || down < 1 {
		return nil, fmt.Errorf("%w: got %d/%d", ErrInvalidRatio, up, down)
	}

	g := gcd(up, down)
	up /= g
	down /= g

	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	r := &Resampler{up: up, down: down}

	if up == 1 && down == 1 {
		return r, nil
	}

	// order taps per branch; the prototype covers all up branches.
	cutoff := 0.5 / float64(max(up, down))
	r.taps = designLowpass(cfg.order*up, cutoff, float64(up))
	r.phases = decompose(r.taps, up)
	r.maxPhaseLn = len(r.phases[0])
	r.history = make([]float64, 0, r.maxPhaseLn-1)

	return r, nil
}

// Ratio returns the reduced up/down conversion factors.
func (r *Resampler) Ratio() (up, down int) {
	return r.up, r.down
}

// Prototype returns a copy of the underlying prototype FIR taps.
func (r *Resampler) Prototype() []float64 {
	out := make([]float64, len(r.taps))
	copy(out, r.taps)

	return out
}

// Process converts an input block and preserves internal state for streaming.
func (r *Resampler) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	if r.up == 1 && r.down == 1 {
		out := make([]float64, len(input))
		copy(out, input)

		return out
	}

	out := make([]float64, 0, r.PredictOutputLen(len(input)))

	work := make([]float64, len(r.history)+len(input))
	copy(work, r.history)
	copy(work[len(r.history):], input)

	baseIndex := r.totalIn - len(r.history)
	lastAvail := r.totalIn + len(input) - 1

	for r.inputIndex <= lastAvail {
		taps := r.phases[r.phase]

		var y float64

		for k, c := range taps {
			idx := r.inputIndex - k
			if idx < baseIndex || idx > lastAvail {
				continue
			}

			y += c * work[idx-baseIndex]
		}

		out = append(out, y)

		r.phase += r.down
		r.inputIndex += r.phase / r.up
		r.phase %= r.up
	}

	r.totalIn += len(input)

	keep := r.maxPhaseLn - 1
	if keep > len(work) {
		keep = len(work)
	}

	r.history = append(r.history[:0], work[len(work)-keep:]...)

	return out
}

// PredictOutputLen reports how many samples the next Process call would
// yield for the given input length.
func (r *Resampler) PredictOutputLen(inputLen int) int {
	if inputLen <= 0 {
		return 0
	}

	if r.up == 1 && r.down == 1 {
		return inputLen
	}

	lastAvail := r.totalIn + inputLen - 1
	i := r.inputIndex
	phase := r.phase

	count := 0
	for i <= lastAvail {
		count++
		phase += r.down
		i += phase / r.up
		phase %= r.up
	}

	return count
}

// Reset clears the streaming position and input history.
func (r *Resampler) Reset() {
	r.phase = 0
	r.inputIndex = 0
	r.totalIn = 0
	r.history = r.history[:0]
}

// State captures the streaming position.
func (r *Resampler) State() ResamplerState {
	h := make([]float64, len(r.history))
	copy(h, r.history)

	return ResamplerState{
		Phase:      r.phase,
		InputIndex: r.inputIndex,
		TotalIn:    r.totalIn,
		History:    h,
	}
}

// SetState restores a position previously captured with State.
func (r *Resampler) SetState(s ResamplerState) {
	r.phase = s.Phase
	r.inputIndex = s.InputIndex
	r.totalIn = s.TotalIn
	r.history = append(r.history[:0], s.History...)
}
