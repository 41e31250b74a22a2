// Package pipeline implements a configurable streaming DSP pipeline: an
// ordered chain of stages (windowed statistics, filters, adaptive filters,
// rate converters, transforms) fed with interleaved multi-channel sample
// buffers. Stages keep internal state across calls; the whole runtime state
// can be saved, restored, and cleared independently of the configuration.
//
// A pipeline instance is single-owner: one Process call may be in flight at
// a time, and overlapping calls must be serialized by the caller. Results
// are delivered through futures resolved off the caller's goroutine, in
// submission order.
package pipeline

import (
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/cwbudde/algo-pipeline/dsp/filterdesign"
)

// defaultQueueDepth bounds how many process requests may be pending before
// Process blocks the caller.
const defaultQueueDepth = 64

// Callbacks is the observation surface invoked around each process call.
// All callbacks run synchronously on the processing goroutine after staged
// work finishes; a panicking tap or callback is isolated and logged, never
// failing the call.
type Callbacks struct {
	OnSample        func(value float64, index int, stage string)
	OnBatch         func(batch []float64)
	OnStageComplete func(stage string, duration time.Duration)
	OnError         func(stage string, err error)
	OnLog           func(e Event)
	OnLogBatch      func(events []Event)
	TopicFilter     string
}

// TapFunc observes the final buffer of a process call together with the
// joined stage-name trail. Taps are read-only; mutating the buffer is
// undefined behavior.
type TapFunc func(samples []float64, trail string)

// Option configures a pipeline at construction time.
type Option func(*Pipeline)

// WithSink routes all engine log events to s.
func WithSink(s Sink) Option {
	return func(p *Pipeline) {
		p.sink = s
	}
}

// WithCallbacks installs the observer callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(p *Pipeline) {
		p.callbacks = cb
	}
}

// WithDrift enables timestamp drift detection.
func WithDrift(cfg DriftConfig) Option {
	return func(p *Pipeline) {
		c := cfg
		p.driftCfg = &c
	}
}

// WithQueueDepth overrides how many process requests may queue before
// Process blocks.
func WithQueueDepth(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.queueDepth = n
		}
	}
}

// Pipeline owns an ordered stage list plus each stage's runtime state.
type Pipeline struct {
	id string

	stages []stage
	trace  []string
	err    error

	callbacks Callbacks
	sink      Sink
	taps      []TapFunc

	driftCfg *DriftConfig
	drift    *driftDetector

	queueDepth int
	jobs       chan *job
	mu         sync.Mutex
	closed     bool
	wg         sync.WaitGroup
}

// New creates an empty pipeline and starts its executor goroutine. Close
// must be called to release it.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		id:         xid.New().String(),
		queueDepth: defaultQueueDepth,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	p.jobs = make(chan *job, p.queueDepth)

	p.wg.Add(1)
	go p.serve()

	return p
}

// ID returns the pipeline's unique instance ID.
func (p *Pipeline) ID() string {
	return p.id
}

// Err returns the first configuration error recorded by a chained AddX
// call, or nil. After an error, further AddX calls are ignored.
func (p *Pipeline) Err() error {
	return p.err
}

// StageCount returns the number of configured stages.
func (p *Pipeline) StageCount() int {
	return len(p.stages)
}

// Trail returns the joined human-readable stage trace.
func (p *Pipeline) Trail() string {
	return joinTrail(p.trace)
}

// Tap registers a read-only observer of the final buffer, invoked in
// registration order after every successful process call.
func (p *Pipeline) Tap(fn TapFunc) *Pipeline {
	if fn != nil {
		p.taps = append(p.taps, fn)
	}

	return p
}

// Close stops the executor after draining queued requests. Process calls
// after Close resolve with ErrClosed.
func (p *Pipeline) Close() {
	p.mu.Lock()

	if !p.closed {
		p.closed = true
		close(p.jobs)
	}

	p.mu.Unlock()

	p.wg.Wait()
}

// addStage appends the stage produced by build, or records the first
// configuration error. A failed build leaves the pipeline unchanged.
func (p *Pipeline) addStage(build func() (stage, error)) *Pipeline {
	if p.err != nil {
		return p
	}

	st, err := build()
	if err != nil {
		p.err = err

		return p
	}

	p.stages = append(p.stages, st)
	p.trace = append(p.trace, st.label())

	return p
}

// AddMovingAverage appends a windowed mean stage.
func (p *Pipeline) AddMovingAverage(w Window) *Pipeline {
	return p.addStage(func() (stage, error) { return newStatStage(KindMovingAverage, w) })
}

// AddRMS appends a windowed root-mean-square stage.
func (p *Pipeline) AddRMS(w Window) *Pipeline {
	return p.addStage(func() (stage, error) { return newStatStage(KindRMS, w) })
}

// AddVariance appends a windowed variance stage.
func (p *Pipeline) AddVariance(w Window) *Pipeline {
	return p.addStage(func() (stage, error) { return newStatStage(KindVariance, w) })
}

// AddZScore appends a z-score normalization stage.
func (p *Pipeline) AddZScore(w Window) *Pipeline {
	return p.addStage(func() (stage, error) { return newStatStage(KindZScore, w) })
}

// AddMeanAbsoluteValue appends a windowed mean-absolute-value stage.
func (p *Pipeline) AddMeanAbsoluteValue(w Window) *Pipeline {
	return p.addStage(func() (stage, error) { return newStatStage(KindMeanAbsValue, w) })
}

// AddRectify appends a full-wave rectification stage.
func (p *Pipeline) AddRectify() *Pipeline {
	return p.addStage(func() (stage, error) { return rectifyStage{}, nil })
}

// AddFilter designs coefficients from spec and appends a filter stage.
func (p *Pipeline) AddFilter(spec filterdesign.Spec) *Pipeline {
	return p.addStage(func() (stage, error) {
		coeffs, err := filterdesign.Design(spec)
		if err != nil {
			return nil, err
		}

		return newFilterStage(coeffs)
	})
}

// AddFilterCoefficients appends a filter stage with caller-supplied
// transfer-function coefficients.
func (p *Pipeline) AddFilterCoefficients(coeffs filterdesign.Coefficients) *Pipeline {
	return p.addStage(func() (stage, error) { return newFilterStage(coeffs) })
}

// AddLMS appends an LMS/NLMS adaptive filter stage (two channels).
func (p *Pipeline) AddLMS(cfg LMSConfig) *Pipeline {
	return p.addStage(func() (stage, error) { return newLMSStage(cfg) })
}

// AddRLS appends a recursive least-squares stage (two channels).
func (p *Pipeline) AddRLS(cfg RLSConfig) *Pipeline {
	return p.addStage(func() (stage, error) { return newRLSStage(cfg) })
}

// AddInterpolate appends an integer interpolation stage.
func (p *Pipeline) AddInterpolate(cfg RateConfig) *Pipeline {
	return p.addStage(func() (stage, error) { return newRateStage(KindInterpolate, cfg) })
}

// AddDecimate appends an integer decimation stage.
func (p *Pipeline) AddDecimate(cfg RateConfig) *Pipeline {
	return p.addStage(func() (stage, error) { return newRateStage(KindDecimate, cfg) })
}

// AddResample appends a rational resampling stage.
func (p *Pipeline) AddResample(cfg ResampleConfig) *Pipeline {
	return p.addStage(func() (stage, error) { return newResampleStage(cfg) })
}

// AddConvolve appends a convolution stage.
func (p *Pipeline) AddConvolve(cfg ConvolveConfig) *Pipeline {
	return p.addStage(func() (stage, error) { return newConvolveStage(cfg) })
}

// AddWavelet appends a single-level wavelet decomposition stage.
func (p *Pipeline) AddWavelet(cfg WaveletConfig) *Pipeline {
	return p.addStage(func() (stage, error) { return newWaveletStage(cfg) })
}

// AddHilbertEnvelope appends a Hilbert envelope stage.
func (p *Pipeline) AddHilbertEnvelope(cfg HilbertConfig) *Pipeline {
	return p.addStage(func() (stage, error) { return newHilbertStage(cfg) })
}

// AddLinearRegression appends a sliding-window least-squares stage.
func (p *Pipeline) AddLinearRegression(cfg RegressionConfig) *Pipeline {
	return p.addStage(func() (stage, error) { return newRegressionStage(cfg) })
}

func joinTrail(trace []string) string {
	out := ""

	for i, s := range trace {
		if i > 0 {
			out += " -> "
		}

		out += s
	}

	return out
}
