package pipeline

import (
	"encoding/json"
	"fmt"
)

// RegressionOutput selects what a sliding linear regression stage emits per
// sample.
type RegressionOutput int

const (
	// Slope emits the fitted line's slope per sample.
	Slope RegressionOutput = iota
	// Intercept emits the fitted line's intercept per sample.
	Intercept
	// Residuals emits the newest sample minus its fitted value.
	Residuals
	// Predictions emits the fitted value at the newest sample.
	Predictions
)

func (o RegressionOutput) String() string {
	switch o {
	case Slope:
		return "slope"
	case Intercept:
		return "intercept"
	case Residuals:
		return "residuals"
	case Predictions:
		return "predictions"
	default:
		return "unknown"
	}
}

func (o RegressionOutput) stageKind() (StageKind, error) {
	switch o {
	case Slope:
		return KindRegressionSlope, nil
	case Intercept:
		return KindRegressionIntercept, nil
	case Residuals:
		return KindRegressionResiduals, nil
	case Predictions:
		return KindRegressionPredictions, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrRegressionOutput, int(o))
	}
}

// RegressionConfig configures a sliding-window least-squares stage.
type RegressionConfig struct {
	Window Window
	Output RegressionOutput
}

// regressionStage fits y = a + b*t over the window content per channel,
// with t the in-window sample index, and emits the selected quantity for
// every input sample.
type regressionStage struct {
	k      StageKind
	output RegressionOutput
	window Window

	resolved int
	channels int
	rings    [][]float64
	counts   []int
	pos      []int
}

func newRegressionStage(cfg RegressionConfig) (*regressionStage, error) {
	k, err := cfg.Output.stageKind()
	if err != nil {
		return nil, err
	}

	w := cfg.Window
	w.Mode = Moving

	if err := w.validate(); err != nil {
		return nil, err
	}

	return &regressionStage{k: k, output: cfg.Output, window: w}, nil
}

func (s *regressionStage) kind() StageKind { return s.k }
func (s *regressionStage) label() string   { return s.k.String() }

func (s *regressionStage) process(rc runContext, buf []float64) ([]float64, error) {
	if err := s.ensureRings(rc); err != nil {
		return nil, err
	}

	frames := len(buf) / rc.channels

	for i := range frames {
		for c := range rc.channels {
			idx := i*rc.channels + c
			s.push(c, buf[idx])
			buf[idx] = s.fit(c, buf[idx])
		}
	}

	return buf, nil
}

func (s *regressionStage) push(c int, x float64) {
	s.rings[c][s.pos[c]] = x

	s.pos[c]++
	if s.pos[c] == s.resolved {
		s.pos[c] = 0
	}

	if s.counts[c] < s.resolved {
		s.counts[c]++
	}
}

// fit runs least squares over the window content, oldest sample at t=0.
func (s *regressionStage) fit(c int, newest float64) float64 {
	n := s.counts[c]
	if n < 2 {
		// Degenerate fit: flat line through the only sample.
		switch s.output {
		case Slope, Residuals:
			return 0
		default:
			return newest
		}
	}

	start := s.pos[c] - n
	if start < 0 {
		start += s.resolved
	}

	var sumT, sumY, sumTT, sumTY float64

	for j := range n {
		y := s.rings[c][(start+j)%s.resolved]
		t := float64(j)

		sumT += t
		sumY += y
		sumTT += t * t
		sumTY += t * y
	}

	fn := float64(n)

	denom := fn*sumTT - sumT*sumT
	if denom == 0 {
		return 0
	}

	slope := (fn*sumTY - sumT*sumY) / denom
	intercept := (sumY - slope*sumT) / fn

	switch s.output {
	case Slope:
		return slope
	case Intercept:
		return intercept
	case Predictions:
		return intercept + slope*float64(n-1)
	case Residuals:
		return newest - (intercept + slope*float64(n-1))
	default:
		return 0
	}
}

func (s *regressionStage) ensureRings(rc runContext) error {
	size, err := s.window.resolve(rc.sampleRate)
	if err != nil {
		return fmt.Errorf("%s: %w", s.label(), err)
	}

	if s.rings != nil && s.resolved == size && s.channels == rc.channels {
		return nil
	}

	s.resolved = size
	s.channels = rc.channels
	s.rings = make([][]float64, rc.channels)
	s.counts = make([]int, rc.channels)
	s.pos = make([]int, rc.channels)

	for c := range s.rings {
		s.rings[c] = make([]float64, size)
	}

	return nil
}

func (s *regressionStage) reset() {
	s.rings = nil
	s.counts = nil
	s.pos = nil
	s.channels = 0
	s.resolved = 0
}

type regressionState struct {
	Window   int         `json:"window"`
	Channels int         `json:"channels"`
	Values   [][]float64 `json:"values"`
}

func (s *regressionStage) snapshot() (json.RawMessage, error) {
	st := regressionState{Window: s.resolved, Channels: s.channels}

	for c := range s.rings {
		n := s.counts[c]

		start := s.pos[c] - n
		if start < 0 {
			start += s.resolved
		}

		values := make([]float64, 0, n)
		for j := range n {
			values = append(values, s.rings[c][(start+j)%s.resolved])
		}

		st.Values = append(st.Values, values)
	}

	return json.Marshal(st)
}

func (s *regressionStage) restore(raw json.RawMessage) error {
	var st regressionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("pipeline: %s state: %w", s.label(), err)
	}

	s.reset()

	if st.Window == 0 || st.Channels == 0 {
		return nil
	}

	s.resolved = st.Window
	s.channels = st.Channels
	s.rings = make([][]float64, st.Channels)
	s.counts = make([]int, st.Channels)
	s.pos = make([]int, st.Channels)

	for c := range s.rings {
		s.rings[c] = make([]float64, st.Window)

		if c < len(st.Values) {
			for _, v := range st.Values[c] {
				s.push(c, v)
			}
		}
	}

	return nil
}

func (s *regressionStage) describe() StageInfo {
	return StageInfo{
		Kind:     s.k.String(),
		Label:    s.label(),
		Mode:     Moving.String(),
		Window:   s.resolved,
		Channels: s.channels,
	}
}
