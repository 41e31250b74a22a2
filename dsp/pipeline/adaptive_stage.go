package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-pipeline/dsp/adaptive"
)

// LMSConfig configures an LMS/NLMS adaptive filter stage.
type LMSConfig struct {
	NumTaps    int
	Mu         float64
	Normalized bool
	Leakage    float64
}

// RLSConfig configures a recursive least-squares adaptive filter stage.
type RLSConfig struct {
	NumTaps int
	Lambda  float64
	Delta   float64 // 0 selects adaptive.DefaultDelta
}

// lmsStage adapts on interleaved (primary, reference) pairs and writes the
// error signal to both channels.
type lmsStage struct {
	filter *adaptive.LMS
}

func newLMSStage(cfg LMSConfig) (*lmsStage, error) {
	opts := []adaptive.LMSOption{adaptive.WithLeakage(cfg.Leakage)}
	if cfg.Normalized {
		opts = append(opts, adaptive.WithNormalization())
	}

	f, err := adaptive.NewLMS(cfg.NumTaps, cfg.Mu, opts...)
	if err != nil {
		return nil, err
	}

	return &lmsStage{filter: f}, nil
}

func (s *lmsStage) kind() StageKind { return KindLMS }
func (s *lmsStage) label() string   { return KindLMS.String() }

func (s *lmsStage) process(rc runContext, buf []float64) ([]float64, error) {
	if err := requireStereo(rc, s.label()); err != nil {
		return nil, err
	}

	for i := 0; i+1 < len(buf); i += 2 {
		e := s.filter.ProcessSample(buf[i], buf[i+1])
		buf[i] = e
		buf[i+1] = e
	}

	return buf, nil
}

func (s *lmsStage) reset() { s.filter.Reset() }

type lmsState struct {
	Weights []float64 `json:"weights"`
	History []float64 `json:"history"`
}

func (s *lmsStage) snapshot() (json.RawMessage, error) {
	return json.Marshal(lmsState{
		Weights: s.filter.Weights(),
		History: s.filter.History(),
	})
}

func (s *lmsStage) restore(raw json.RawMessage) error {
	var st lmsState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("pipeline: lms state: %w", err)
	}

	if err := s.filter.SetWeights(st.Weights); err != nil {
		return fmt.Errorf("pipeline: lms state: %w", err)
	}

	if err := s.filter.SetHistory(st.History); err != nil {
		return fmt.Errorf("pipeline: lms state: %w", err)
	}

	return nil
}

func (s *lmsStage) describe() StageInfo {
	return StageInfo{
		Kind:     KindLMS.String(),
		Label:    s.label(),
		Window:   s.filter.NumTaps(),
		Channels: 2,
	}
}

// rlsStage is the RLS counterpart of lmsStage.
type rlsStage struct {
	filter *adaptive.RLS
}

func newRLSStage(cfg RLSConfig) (*rlsStage, error) {
	f, err := adaptive.NewRLS(cfg.NumTaps, cfg.Lambda, cfg.Delta)
	if err != nil {
		return nil, err
	}

	return &rlsStage{filter: f}, nil
}

func (s *rlsStage) kind() StageKind { return KindRLS }
func (s *rlsStage) label() string   { return KindRLS.String() }

func (s *rlsStage) process(rc runContext, buf []float64) ([]float64, error) {
	if err := requireStereo(rc, s.label()); err != nil {
		return nil, err
	}

	for i := 0; i+1 < len(buf); i += 2 {
		e := s.filter.ProcessSample(buf[i], buf[i+1])
		buf[i] = e
		buf[i+1] = e
	}

	return buf, nil
}

func (s *rlsStage) reset() { s.filter.Reset() }

type rlsState struct {
	Weights    []float64 `json:"weights"`
	Covariance []float64 `json:"covariance"`
	History    []float64 `json:"history"`
}

func (s *rlsStage) snapshot() (json.RawMessage, error) {
	return json.Marshal(rlsState{
		Weights:    s.filter.Weights(),
		Covariance: s.filter.Covariance(),
		History:    s.filter.History(),
	})
}

func (s *rlsStage) restore(raw json.RawMessage) error {
	var st rlsState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("pipeline: rls state: %w", err)
	}

	if err := s.filter.SetWeights(st.Weights); err != nil {
		return fmt.Errorf("pipeline: rls state: %w", err)
	}

	if err := s.filter.SetCovariance(st.Covariance); err != nil {
		return fmt.Errorf("pipeline: rls state: %w", err)
	}

	if err := s.filter.SetHistory(st.History); err != nil {
		return fmt.Errorf("pipeline: rls state: %w", err)
	}

	return nil
}

func (s *rlsStage) describe() StageInfo {
	return StageInfo{
		Kind:     KindRLS.String(),
		Label:    s.label(),
		Window:   s.filter.NumTaps(),
		Channels: 2,
	}
}

func requireStereo(rc runContext, name string) error {
	if rc.channels != 2 {
		return fmt.Errorf("%w: %s needs 2 channels (primary, reference), got %d",
			ErrChannels, name, rc.channels)
	}

	return nil
}
