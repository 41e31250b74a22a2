package pipeline

import (
	"encoding/json"
	"fmt"
	"math"

	statswin "github.com/cwbudde/algo-pipeline/stats/window"
)

// statStage implements the windowed aggregation stages: moving average,
// RMS, variance, z-score, and mean absolute value. Moving mode keeps one
// ring-buffer accumulator per channel; batch mode is stateless.
type statStage struct {
	k      StageKind
	name   string
	window Window

	resolved int
	channels int
	accums   []*statswin.Accumulator
}

func newStatStage(k StageKind, w Window) (*statStage, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}

	return &statStage{k: k, name: k.String(), window: w}, nil
}

func (s *statStage) kind() StageKind { return s.k }
func (s *statStage) label() string   { return s.name }

func (s *statStage) process(rc runContext, buf []float64) ([]float64, error) {
	if s.window.Mode == Batch {
		return s.processBatch(rc, buf), nil
	}

	if err := s.ensureAccums(rc); err != nil {
		return nil, err
	}

	frames := len(buf) / rc.channels

	for i := range frames {
		for c := range rc.channels {
			idx := i*rc.channels + c
			acc := s.accums[c]
			acc.Push(buf[idx])

			switch s.k {
			case KindMovingAverage:
				buf[idx] = acc.Mean()
			case KindRMS:
				buf[idx] = acc.RMS()
			case KindVariance:
				buf[idx] = acc.Variance()
			case KindMeanAbsValue:
				buf[idx] = acc.MeanAbs()
			case KindZScore:
				if sd := acc.StdDev(); sd > 0 {
					buf[idx] = (buf[idx] - acc.Mean()) / sd
				} else {
					buf[idx] = 0
				}
			}
		}
	}

	return buf, nil
}

// processBatch collapses each channel to a single aggregate, except z-score
// which normalizes the buffer in place by per-channel batch statistics.
func (s *statStage) processBatch(rc runContext, buf []float64) []float64 {
	chs := deinterleave(buf, rc.channels)

	if s.k == KindZScore {
		for _, ch := range chs {
			mean := statswin.Mean(ch)
			sd := statswin.StdDev(ch)

			for i := range ch {
				if sd > 0 {
					ch[i] = (ch[i] - mean) / sd
				} else {
					ch[i] = 0
				}
			}
		}

		out := interleave(chs)
		copy(buf, out)

		return buf
	}

	out := make([]float64, rc.channels)

	for c, ch := range chs {
		switch s.k {
		case KindMovingAverage:
			out[c] = statswin.Mean(ch)
		case KindRMS:
			out[c] = statswin.RMS(ch)
		case KindVariance:
			out[c] = statswin.Variance(ch)
		case KindMeanAbsValue:
			out[c] = statswin.MeanAbs(ch)
		}
	}

	return out
}

func (s *statStage) ensureAccums(rc runContext) error {
	size, err := s.window.resolve(rc.sampleRate)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}

	if s.accums != nil && s.resolved == size && s.channels == rc.channels {
		return nil
	}

	s.resolved = size
	s.channels = rc.channels
	s.accums = make([]*statswin.Accumulator, rc.channels)

	for c := range s.accums {
		acc, err := statswin.NewAccumulator(size)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}

		s.accums[c] = acc
	}

	return nil
}

func (s *statStage) reset() {
	s.accums = nil
	s.channels = 0
	s.resolved = 0
}

type statState struct {
	Window   int         `json:"window"`
	Channels int         `json:"channels"`
	Values   [][]float64 `json:"values"`
}

func (s *statStage) snapshot() (json.RawMessage, error) {
	st := statState{Window: s.resolved, Channels: s.channels}

	for _, acc := range s.accums {
		st.Values = append(st.Values, acc.Values())
	}

	return json.Marshal(st)
}

func (s *statStage) restore(raw json.RawMessage) error {
	var st statState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("pipeline: %s state: %w", s.name, err)
	}

	s.reset()

	if st.Window == 0 || st.Channels == 0 {
		return nil
	}

	s.resolved = st.Window
	s.channels = st.Channels
	s.accums = make([]*statswin.Accumulator, st.Channels)

	for c := range s.accums {
		acc, err := statswin.NewAccumulator(st.Window)
		if err != nil {
			return fmt.Errorf("pipeline: %s state: %w", s.name, err)
		}

		if c < len(st.Values) {
			acc.Restore(st.Values[c])
		}

		s.accums[c] = acc
	}

	return nil
}

func (s *statStage) describe() StageInfo {
	return StageInfo{
		Kind:     s.name,
		Label:    s.name,
		Mode:     s.window.Mode.String(),
		Window:   s.resolved,
		Channels: s.channels,
	}
}

// rectifyStage replaces every sample with its absolute value. It has no
// window and no runtime state.
type rectifyStage struct{}

func (rectifyStage) kind() StageKind { return KindRectify }
func (rectifyStage) label() string   { return KindRectify.String() }

func (rectifyStage) process(_ runContext, buf []float64) ([]float64, error) {
	for i, v := range buf {
		buf[i] = math.Abs(v)
	}

	return buf, nil
}

func (rectifyStage) reset() {}

func (rectifyStage) snapshot() (json.RawMessage, error) {
	return json.Marshal(struct{}{})
}

func (rectifyStage) restore(json.RawMessage) error { return nil }

func (rectifyStage) describe() StageInfo {
	return StageInfo{Kind: KindRectify.String(), Label: KindRectify.String()}
}
