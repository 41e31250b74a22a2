package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-pipeline/dsp/convolve"
	"github.com/cwbudde/algo-pipeline/dsp/envelope"
	"github.com/cwbudde/algo-pipeline/dsp/wavelet"
)

// ConvolveConfig configures a convolution stage. Method Auto resolves to
// direct or FFT at add time based on the kernel length; AutoThreshold 0
// selects convolve.AutoThreshold.
type ConvolveConfig struct {
	Kernel        []float64
	Mode          Mode
	Method        convolve.Method
	AutoThreshold int
}

// convolveStage applies a fixed kernel per channel: batch mode runs one
// full convolution trimmed to the input length, moving mode streams
// causally across calls.
type convolveStage struct {
	kernel []float64
	mode   Mode
	method convolve.Method

	channels  int
	streamers []*convolve.Streamer
}

func newConvolveStage(cfg ConvolveConfig) (*convolveStage, error) {
	if len(cfg.Kernel) == 0 {
		return nil, convolve.ErrEmptyKernel
	}

	method := cfg.Method
	if method == convolve.Auto {
		threshold := cfg.AutoThreshold
		if threshold <= 0 {
			threshold = convolve.AutoThreshold
		}

		if len(cfg.Kernel) < threshold {
			method = convolve.Direct
		} else {
			method = convolve.FFT
		}
	}

	kernel := make([]float64, len(cfg.Kernel))
	copy(kernel, cfg.Kernel)

	return &convolveStage{kernel: kernel, mode: cfg.Mode, method: method}, nil
}

func (s *convolveStage) kind() StageKind { return KindConvolve }
func (s *convolveStage) label() string   { return KindConvolve.String() }

func (s *convolveStage) process(rc runContext, buf []float64) ([]float64, error) {
	chs := deinterleave(buf, rc.channels)

	if s.mode == Moving {
		s.ensureStreamers(rc.channels)

		for c, ch := range chs {
			out, err := s.streamers[c].Process(ch)
			if err != nil {
				return nil, err
			}

			chs[c] = out
		}

		out := interleave(chs)
		copy(buf, out)

		return buf, nil
	}

	for c, ch := range chs {
		full, err := convolve.Full(ch, s.kernel, s.method)
		if err != nil {
			return nil, err
		}

		chs[c] = full[:len(ch)]
	}

	out := interleave(chs)
	copy(buf, out)

	return buf, nil
}

func (s *convolveStage) ensureStreamers(channels int) {
	if s.streamers != nil && s.channels == channels {
		return
	}

	s.channels = channels
	s.streamers = make([]*convolve.Streamer, channels)

	for c := range s.streamers {
		// Kernel already validated at add time.
		s.streamers[c], _ = convolve.NewStreamer(s.kernel, s.method)
	}
}

func (s *convolveStage) reset() {
	s.streamers = nil
	s.channels = 0
}

type convolveState struct {
	Channels  int         `json:"channels"`
	Histories [][]float64 `json:"histories"`
}

func (s *convolveStage) snapshot() (json.RawMessage, error) {
	st := convolveState{Channels: s.channels}

	for _, sr := range s.streamers {
		st.Histories = append(st.Histories, sr.History())
	}

	return json.Marshal(st)
}

func (s *convolveStage) restore(raw json.RawMessage) error {
	var st convolveState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("pipeline: convolve state: %w", err)
	}

	s.reset()

	if st.Channels == 0 {
		return nil
	}

	s.ensureStreamers(st.Channels)

	for c, sr := range s.streamers {
		if c < len(st.Histories) {
			sr.SetHistory(st.Histories[c])
		}
	}

	return nil
}

func (s *convolveStage) describe() StageInfo {
	return StageInfo{
		Kind:     KindConvolve.String(),
		Label:    s.label(),
		Mode:     s.mode.String(),
		Window:   len(s.kernel),
		Channels: s.channels,
	}
}

// WaveletConfig configures a single-level wavelet decomposition stage.
type WaveletConfig struct {
	Family string
}

// waveletStage replaces each channel with its concatenated approximation
// and detail coefficients. It is stateless.
type waveletStage struct {
	w *wavelet.Wavelet
}

func newWaveletStage(cfg WaveletConfig) (*waveletStage, error) {
	w, err := wavelet.New(cfg.Family)
	if err != nil {
		return nil, err
	}

	return &waveletStage{w: w}, nil
}

func (s *waveletStage) kind() StageKind { return KindWavelet }
func (s *waveletStage) label() string   { return KindWavelet.String() }

func (s *waveletStage) process(rc runContext, buf []float64) ([]float64, error) {
	chs := deinterleave(buf, rc.channels)

	for c, ch := range chs {
		out, err := s.w.Transform(ch)
		if err != nil {
			return nil, err
		}

		chs[c] = out
	}

	return interleave(chs), nil
}

func (s *waveletStage) reset() {}

func (s *waveletStage) snapshot() (json.RawMessage, error) {
	return json.Marshal(struct{}{})
}

func (s *waveletStage) restore(json.RawMessage) error { return nil }

func (s *waveletStage) describe() StageInfo {
	return StageInfo{
		Kind:   KindWavelet.String(),
		Label:  s.w.Family(),
		Window: s.w.Len(),
	}
}

// HilbertConfig configures a Hilbert envelope stage. WindowSize 0 selects
// envelope.DefaultWindowSize; HopSize 0 selects WindowSize/2.
type HilbertConfig struct {
	WindowSize int
	HopSize    int
}

// hilbertStage extracts the analytic-signal envelope per channel. Samples
// not yet covered by a full frame stay pending inside each follower.
type hilbertStage struct {
	cfg HilbertConfig

	channels  int
	followers []*envelope.Hilbert
}

func newHilbertStage(cfg HilbertConfig) (*hilbertStage, error) {
	// Probe construction validates window and hop at add time.
	if _, err := envelope.NewHilbert(cfg.WindowSize, cfg.HopSize); err != nil {
		return nil, err
	}

	return &hilbertStage{cfg: cfg}, nil
}

func (s *hilbertStage) kind() StageKind { return KindHilbert }
func (s *hilbertStage) label() string   { return KindHilbert.String() }

func (s *hilbertStage) process(rc runContext, buf []float64) ([]float64, error) {
	if err := s.ensureFollowers(rc.channels); err != nil {
		return nil, err
	}

	chs := deinterleave(buf, rc.channels)

	for c, ch := range chs {
		out, err := s.followers[c].Process(ch)
		if err != nil {
			return nil, err
		}

		chs[c] = out
	}

	return interleave(chs), nil
}

func (s *hilbertStage) ensureFollowers(channels int) error {
	if s.followers != nil && s.channels == channels {
		return nil
	}

	s.channels = channels
	s.followers = make([]*envelope.Hilbert, channels)

	for c := range s.followers {
		h, err := envelope.NewHilbert(s.cfg.WindowSize, s.cfg.HopSize)
		if err != nil {
			return err
		}

		s.followers[c] = h
	}

	return nil
}

func (s *hilbertStage) reset() {
	s.followers = nil
	s.channels = 0
}

type hilbertState struct {
	Channels int         `json:"channels"`
	Pending  [][]float64 `json:"pending"`
}

func (s *hilbertStage) snapshot() (json.RawMessage, error) {
	st := hilbertState{Channels: s.channels}

	for _, h := range s.followers {
		st.Pending = append(st.Pending, h.Pending())
	}

	return json.Marshal(st)
}

func (s *hilbertStage) restore(raw json.RawMessage) error {
	var st hilbertState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("pipeline: hilbert state: %w", err)
	}

	s.reset()

	if st.Channels == 0 {
		return nil
	}

	if err := s.ensureFollowers(st.Channels); err != nil {
		return err
	}

	for c, h := range s.followers {
		if c < len(st.Pending) {
			h.SetPending(st.Pending[c])
		}
	}

	return nil
}

func (s *hilbertStage) describe() StageInfo {
	size := s.cfg.WindowSize
	if size == 0 {
		size = envelope.DefaultWindowSize
	}

	return StageInfo{
		Kind:     KindHilbert.String(),
		Label:    s.label(),
		Mode:     Moving.String(),
		Window:   size,
		Channels: s.channels,
	}
}
