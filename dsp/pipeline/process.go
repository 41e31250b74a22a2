package pipeline

import (
	"fmt"
	"time"
)

type processConfig struct {
	timestamps []float64
	sampleRate float64
	channels   int
}

// ProcessOption configures one process call.
type ProcessOption func(*processConfig)

// WithTimestamps supplies explicit per-sample timestamps in milliseconds.
// The length must equal the sample count.
func WithTimestamps(ts []float64) ProcessOption {
	return func(cfg *processConfig) {
		cfg.timestamps = ts
	}
}

// WithSampleRate sets the call's sample rate in Hz. Without explicit
// timestamps, they are generated as i*1000/rate milliseconds.
func WithSampleRate(rate float64) ProcessOption {
	return func(cfg *processConfig) {
		cfg.sampleRate = rate
	}
}

// WithChannels sets the interleaved channel count (default 1).
func WithChannels(n int) ProcessOption {
	return func(cfg *processConfig) {
		cfg.channels = n
	}
}

// Process enqueues samples for staged processing and returns a future. The
// buffer is mutated in place end to end; the caller must not touch it until
// the result resolves. Call shapes: explicit timestamps, a sample rate
// (timestamps generated from it), or neither (timestamps 0,1,2,... ms).
func (p *Pipeline) Process(samples []float64, opts ...ProcessOption) *Result {
	cfg := processConfig{channels: 1}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return p.submit(samples, cfg)
}

// ProcessCopy duplicates the buffer first and otherwise delegates to
// Process, leaving the caller's slice untouched.
func (p *Pipeline) ProcessCopy(samples []float64, opts ...ProcessOption) *Result {
	dup := make([]float64, len(samples))
	copy(dup, samples)

	return p.Process(dup, opts...)
}

// run executes one request on the executor goroutine: resolve timestamps,
// observe drift, run the stages in order, then fire taps and observer
// callbacks.
func (p *Pipeline) run(samples []float64, cfg processConfig) ([]float64, error) {
	if cfg.channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrChannels, cfg.channels)
	}

	if len(samples)%cfg.channels != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrBufferShape, len(samples), cfg.channels)
	}

	timestamps, err := resolveTimestamps(samples, cfg)
	if err != nil {
		return nil, err
	}

	var pool []Event

	poolRef := &pool
	if p.callbacks.OnLogBatch == nil {
		poolRef = nil
	}

	p.emit(poolRef, engineTopic(LevelDebug), LevelDebug, "process start", map[string]any{
		"samples":  len(samples),
		"channels": cfg.channels,
	})

	p.observeDrift(poolRef, timestamps, cfg.sampleRate)

	buf := samples
	rc := runContext{channels: cfg.channels, sampleRate: cfg.sampleRate}
	trail := joinTrail(p.trace)

	for i, st := range p.stages {
		start := time.Now()

		out, stageErr := st.process(rc, buf)
		if stageErr != nil {
			p.emit(poolRef, stageTopic(st.label(), "error"), LevelError, stageErr.Error(), map[string]any{
				"stage":   st.label(),
				"ordinal": i,
			})

			if p.callbacks.OnError != nil {
				p.callbacks.OnError(trail, stageErr)
			}

			p.flushLogBatch(pool)

			return nil, fmt.Errorf("pipeline: stage %d (%s): %w", i, st.label(), stageErr)
		}

		buf = out
		elapsed := time.Since(start)

		p.emit(poolRef, stageTopic(st.label(), "complete"), LevelDebug, "stage complete", map[string]any{
			"stage":      st.label(),
			"ordinal":    i,
			"durationMs": float64(elapsed) / float64(time.Millisecond),
		})

		if p.callbacks.OnStageComplete != nil {
			p.callbacks.OnStageComplete(st.label(), elapsed)
		}
	}

	p.runTaps(poolRef, buf, trail)

	if p.callbacks.OnBatch != nil {
		p.callbacks.OnBatch(buf)
	}

	if p.callbacks.OnSample != nil {
		for i, v := range buf {
			p.callbacks.OnSample(v, i, trail)
		}
	}

	p.flushLogBatch(pool)

	return buf, nil
}

// runTaps invokes taps in registration order. A panicking tap is logged
// and skipped; it never fails the call.
func (p *Pipeline) runTaps(pool *[]Event, buf []float64, trail string) {
	for i, tap := range p.taps {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.emit(pool, engineTopic(LevelError), LevelError, "tap panicked", map[string]any{
						"tap":   i,
						"panic": fmt.Sprint(r),
					})
				}
			}()

			tap(buf, trail)
		}()
	}
}

func (p *Pipeline) observeDrift(pool *[]Event, timestamps []float64, rate float64) {
	if p.driftCfg == nil || rate <= 0 {
		return
	}

	expected := p.driftCfg.ExpectedRate
	if expected <= 0 {
		expected = rate
	}

	if p.drift == nil || p.drift.expectedRate != expected {
		p.drift = newDriftDetector(*p.driftCfg, rate)
	}

	drifts, monotonic := p.drift.observe(timestamps)

	if !monotonic {
		p.emit(pool, engineTopic(LevelWarn), LevelWarn, "non-monotonic timestamps", nil)
	}

	if drifts > 0 {
		p.emit(pool, engineTopic(LevelWarn), LevelWarn, "sample rate drift detected", map[string]any{
			"gaps":          drifts,
			"estimatedRate": p.drift.estimatedRate(),
		})
	}
}

// EstimatedRate returns the drift detector's realized sample rate estimate
// in Hz, or 0 when drift detection has not observed enough samples.
func (p *Pipeline) EstimatedRate() float64 {
	if p.drift == nil {
		return 0
	}

	return p.drift.estimatedRate()
}

func (p *Pipeline) flushLogBatch(pool []Event) {
	if p.callbacks.OnLogBatch != nil && len(pool) > 0 {
		p.callbacks.OnLogBatch(pool)
	}
}

func resolveTimestamps(samples []float64, cfg processConfig) ([]float64, error) {
	if cfg.timestamps != nil {
		if len(cfg.timestamps) != len(samples) {
			return nil, fmt.Errorf("%w: %d timestamps, %d samples",
				ErrTimestampLength, len(cfg.timestamps), len(samples))
		}

		return cfg.timestamps, nil
	}

	ts := make([]float64, len(samples))

	if cfg.sampleRate > 0 {
		step := 1000 / cfg.sampleRate
		for i := range ts {
			ts[i] = float64(i) * step
		}
	} else {
		for i := range ts {
			ts[i] = float64(i)
		}
	}

	return ts, nil
}
