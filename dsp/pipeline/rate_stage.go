package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-pipeline/dsp/rate"
)

// RateConfig configures an interpolation or decimation stage. Order 0
// selects rate.DefaultOrder.
type RateConfig struct {
	Factor int
	Order  int
}

// ResampleConfig configures a rational resampling stage. The Up/Down ratio
// is reduced by its gcd before the filter bank is built.
type ResampleConfig struct {
	Up    int
	Down  int
	Order int
}

// rateStage wraps the sample-rate converters, one converter instance per
// channel. Converters are created lazily for the channel count in effect
// and rebuilt if it changes.
type rateStage struct {
	k    StageKind
	opts []rate.Option

	factor   int
	up, down int

	channels int
	interps  []*rate.Interpolator
	decims   []*rate.Decimator
	resamps  []*rate.Resampler
}

func newRateStage(k StageKind, cfg RateConfig) (*rateStage, error) {
	s := &rateStage{k: k, factor: cfg.Factor, opts: rateOptions(cfg.Order)}

	// Construct a probe converter so invalid parameters fail at add time.
	var err error

	switch k {
	case KindInterpolate:
		_, err = rate.NewInterpolator(cfg.Factor, s.opts...)
	case KindDecimate:
		_, err = rate.NewDecimator(cfg.Factor, s.opts...)
	}

	if err != nil {
		return nil, err
	}

	return s, nil
}

func newResampleStage(cfg ResampleConfig) (*rateStage, error) {
	s := &rateStage{
		k:    KindResample,
		up:   cfg.Up,
		down: cfg.Down,
		opts: rateOptions(cfg.Order),
	}

	if _, err := rate.NewResampler(cfg.Up, cfg.Down, s.opts...); err != nil {
		return nil, err
	}

	return s, nil
}

func rateOptions(order int) []rate.Option {
	if order == 0 {
		return nil
	}

	return []rate.Option{rate.WithOrder(order)}
}

func (s *rateStage) kind() StageKind { return s.k }
func (s *rateStage) label() string   { return s.k.String() }

func (s *rateStage) process(rc runContext, buf []float64) ([]float64, error) {
	if err := s.ensureConverters(rc.channels); err != nil {
		return nil, err
	}

	chs := deinterleave(buf, rc.channels)

	for c, ch := range chs {
		switch s.k {
		case KindInterpolate:
			chs[c] = s.interps[c].Process(ch)
		case KindDecimate:
			chs[c] = s.decims[c].Process(ch)
		case KindResample:
			chs[c] = s.resamps[c].Process(ch)
		}
	}

	return interleave(chs), nil
}

func (s *rateStage) ensureConverters(channels int) error {
	if s.channels == channels {
		return nil
	}

	s.channels = channels
	s.interps = nil
	s.decims = nil
	s.resamps = nil

	for range channels {
		switch s.k {
		case KindInterpolate:
			it, err := rate.NewInterpolator(s.factor, s.opts...)
			if err != nil {
				return err
			}

			s.interps = append(s.interps, it)
		case KindDecimate:
			d, err := rate.NewDecimator(s.factor, s.opts...)
			if err != nil {
				return err
			}

			s.decims = append(s.decims, d)
		case KindResample:
			r, err := rate.NewResampler(s.up, s.down, s.opts...)
			if err != nil {
				return err
			}

			s.resamps = append(s.resamps, r)
		}
	}

	return nil
}

func (s *rateStage) reset() {
	s.channels = 0
	s.interps = nil
	s.decims = nil
	s.resamps = nil
}

type decimState struct {
	Delay []float64 `json:"delay"`
	Pos   int       `json:"pos"`
	Phase int       `json:"phase"`
}

type rateState struct {
	Channels  int                   `json:"channels"`
	Histories [][]float64           `json:"histories,omitempty"`
	Decims    []decimState          `json:"decims,omitempty"`
	Resamps   []rate.ResamplerState `json:"resamps,omitempty"`
}

func (s *rateStage) snapshot() (json.RawMessage, error) {
	st := rateState{Channels: s.channels}

	for _, it := range s.interps {
		st.Histories = append(st.Histories, it.History())
	}

	for _, d := range s.decims {
		delay, pos, phase := d.State()
		st.Decims = append(st.Decims, decimState{Delay: delay, Pos: pos, Phase: phase})
	}

	for _, r := range s.resamps {
		st.Resamps = append(st.Resamps, r.State())
	}

	return json.Marshal(st)
}

func (s *rateStage) restore(raw json.RawMessage) error {
	var st rateState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("pipeline: %s state: %w", s.k, err)
	}

	s.reset()

	if st.Channels == 0 {
		return nil
	}

	if err := s.ensureConverters(st.Channels); err != nil {
		return err
	}

	for c, it := range s.interps {
		if c < len(st.Histories) {
			it.SetHistory(st.Histories[c])
		}
	}

	for c, d := range s.decims {
		if c < len(st.Decims) {
			d.SetState(st.Decims[c].Delay, st.Decims[c].Pos, st.Decims[c].Phase)
		}
	}

	for c, r := range s.resamps {
		if c < len(st.Resamps) {
			r.SetState(st.Resamps[c])
		}
	}

	return nil
}

func (s *rateStage) describe() StageInfo {
	info := StageInfo{
		Kind:     s.k.String(),
		Label:    s.k.String(),
		Channels: s.channels,
	}

	if s.k == KindResample {
		info.Window = s.up
	} else {
		info.Window = s.factor
	}

	return info
}
