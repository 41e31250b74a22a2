package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cwbudde/algo-pipeline/dsp/adaptive"
	"github.com/cwbudde/algo-pipeline/dsp/convolve"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}

	return out
}

func TestMovingModeRequiresWindowBasis(t *testing.T) {
	p := New()
	defer p.Close()

	p.AddMovingAverage(Window{Mode: Moving})
	require.ErrorIs(t, p.Err(), ErrMissingWindow)
	assert.Equal(t, 0, p.StageCount())
}

func TestNegativeWindowSizeRejected(t *testing.T) {
	p := New()
	defer p.Close()

	p.AddRMS(Window{Mode: Moving, Size: -3})
	require.ErrorIs(t, p.Err(), ErrInvalidWindow)
}

func TestAddStageAfterErrorIsIgnored(t *testing.T) {
	p := New()
	defer p.Close()

	p.AddVariance(Window{Mode: Moving}).
		AddRectify()

	require.ErrorIs(t, p.Err(), ErrMissingWindow)
	assert.Equal(t, 0, p.StageCount(), "no partial mutation after a failed add")
}

func TestAdaptiveConfigErrors(t *testing.T) {
	p := New()
	defer p.Close()

	p.AddLMS(LMSConfig{NumTaps: 0, Mu: 0.1})
	require.ErrorIs(t, p.Err(), adaptive.ErrInvalidTaps)

	q := New()
	defer q.Close()

	q.AddRLS(RLSConfig{NumTaps: 32, Lambda: 1.5})
	require.ErrorIs(t, q.Err(), adaptive.ErrInvalidForgetting)
}

func TestMovingAverageSingleChannel(t *testing.T) {
	p := New().AddMovingAverage(Window{Mode: Moving, Size: 2})
	defer p.Close()

	require.NoError(t, p.Err())

	out, err := p.Process([]float64{2, 4, 6, 8}).Wait()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 3, 5, 7}, out, 1e-12)
}

func TestBatchModeCollapsesPerChannel(t *testing.T) {
	p := New().AddRMS(Window{Mode: Batch})
	defer p.Close()

	// Two channels: constant 3 and constant 4.
	out, err := p.Process([]float64{3, 4, 3, 4, 3, 4}, WithChannels(2)).Wait()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 3, out[0], 1e-12)
	assert.InDelta(t, 4, out[1], 1e-12)
}

func TestWindowDurationResolvesWithRate(t *testing.T) {
	p := New().AddMovingAverage(Window{Mode: Moving, Duration: 4}) // 4ms at 1kHz -> 4 samples
	defer p.Close()

	out, err := p.Process([]float64{4, 4, 4, 4, 0, 0, 0, 0}, WithSampleRate(1000)).Wait()
	require.NoError(t, err)
	assert.InDelta(t, 4, out[3], 1e-12)
	assert.InDelta(t, 0, out[7], 1e-12)
}

func TestWindowDurationWithoutRateFails(t *testing.T) {
	p := New().AddMovingAverage(Window{Mode: Moving, Duration: 10})
	defer p.Close()

	_, err := p.Process(ramp(8)).Wait()
	require.ErrorIs(t, err, ErrRateRequired)
}

func TestWindowSizeWinsOverDuration(t *testing.T) {
	p := New().AddMovingAverage(Window{Mode: Moving, Size: 2, Duration: 1000})
	defer p.Close()

	out, err := p.Process([]float64{2, 4, 6, 8}, WithSampleRate(1000)).Wait()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 3, 5, 7}, out, 1e-12)
}

func TestRectify(t *testing.T) {
	p := New().AddRectify()
	defer p.Close()

	out, err := p.Process([]float64{-1, 2, -3}).Wait()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestDecimateHalvesSamples(t *testing.T) {
	p := New().AddDecimate(RateConfig{Factor: 2})
	defer p.Close()

	out, err := p.Process(make([]float64, 1000), WithSampleRate(16000)).Wait()
	require.NoError(t, err)
	assert.Len(t, out, 500)
}

func TestResampleRatioReduction(t *testing.T) {
	p := New().AddResample(ResampleConfig{Up: 160, Down: 147})
	defer p.Close()

	q := New().AddResample(ResampleConfig{Up: 320, Down: 294})
	defer q.Close()

	input := make([]float64, 441)
	for i := range input {
		input[i] = math.Sin(2 * math.Pi * 30 * float64(i) / 441)
	}

	a, err := p.ProcessCopy(input, WithSampleRate(44100)).Wait()
	require.NoError(t, err)

	b, err := q.ProcessCopy(input, WithSampleRate(44100)).Wait()
	require.NoError(t, err)

	assert.Equal(t, a, b, "gcd reduction is idempotent")
}

func TestLMSRequiresTwoChannels(t *testing.T) {
	p := New().AddLMS(LMSConfig{NumTaps: 4, Mu: 0.1})
	defer p.Close()

	_, err := p.Process(ramp(8)).Wait()
	require.ErrorIs(t, err, ErrChannels)
}

func TestLMSErrorSignalOnBothChannels(t *testing.T) {
	p := New().AddLMS(LMSConfig{NumTaps: 2, Mu: 0.1})
	defer p.Close()

	out, err := p.Process([]float64{1, 0.5, -1, 0.25}, WithChannels(2)).Wait()
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, out[0], out[1])
	assert.Equal(t, out[2], out[3])
}

func TestProcessCopyLeavesInputUntouched(t *testing.T) {
	p := New().AddRectify()
	defer p.Close()

	input := []float64{-1, -2}

	out, err := p.ProcessCopy(input).Wait()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, out)
	assert.Equal(t, []float64{-1, -2}, input)
}

func TestExplicitTimestampLengthMismatch(t *testing.T) {
	p := New().AddRectify()
	defer p.Close()

	_, err := p.Process(ramp(4), WithTimestamps([]float64{0, 1})).Wait()
	require.ErrorIs(t, err, ErrTimestampLength)
}

func TestBufferShapeValidation(t *testing.T) {
	p := New().AddRectify()
	defer p.Close()

	_, err := p.Process(ramp(5), WithChannels(2)).Wait()
	require.ErrorIs(t, err, ErrBufferShape)
}

func TestDriftCallbackFiresExactlyOnce(t *testing.T) {
	var events []DriftEvent

	p := New(WithDrift(DriftConfig{
		ExpectedRate:     100,
		ThresholdPercent: 10,
		OnDrift:          func(e DriftEvent) { events = append(events, e) },
	})).AddRectify()
	defer p.Close()

	_, err := p.Process(make([]float64, 4),
		WithTimestamps([]float64{0, 10, 19, 31}),
		WithSampleRate(100),
	).Wait()
	require.NoError(t, err)

	// Gaps are 10, 9, 12 ms against 10 expected: only the 12 ms gap
	// exceeds 10 percent.
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].Index)
	assert.InDelta(t, 12, events[0].GapMillis, 1e-12)
	assert.InDelta(t, 20, events[0].DeviationPercent, 1e-9)
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	build := func() *Pipeline {
		return New().
			AddMovingAverage(Window{Mode: Moving, Size: 8}).
			AddLMS(LMSConfig{NumTaps: 4, Mu: 0.1})
	}

	original := build()
	defer original.Close()

	first := make([]float64, 64)
	second := make([]float64, 64)

	for i := range first {
		first[i] = math.Sin(0.3 * float64(i))
		second[i] = math.Cos(0.2 * float64(i))
	}

	_, err := original.ProcessCopy(first, WithChannels(2)).Wait()
	require.NoError(t, err)

	state, err := original.SaveState()
	require.NoError(t, err)

	restored := build()
	defer restored.Close()
	require.NoError(t, restored.LoadState(state))

	want, err := original.ProcessCopy(second, WithChannels(2)).Wait()
	require.NoError(t, err)

	got, err := restored.ProcessCopy(second, WithChannels(2)).Wait()
	require.NoError(t, err)

	assert.Equal(t, want, got, "restored pipeline continues identically")
}

func TestLoadStateRejectsMismatchedStages(t *testing.T) {
	p := New().AddRectify()
	defer p.Close()

	state, err := p.SaveState()
	require.NoError(t, err)

	q := New().AddRectify().AddRectify()
	defer q.Close()
	require.ErrorIs(t, q.LoadState(state), ErrStateMismatch)

	r := New().AddMovingAverage(Window{Mode: Moving, Size: 4})
	defer r.Close()
	require.ErrorIs(t, r.LoadState(state), ErrStateMismatch)
}

func TestClearStateResetsMovingWindows(t *testing.T) {
	p := New().AddMovingAverage(Window{Mode: Moving, Size: 4})
	defer p.Close()

	input := []float64{1, 2, 3, 4}

	want, err := p.ProcessCopy(input).Wait()
	require.NoError(t, err)

	// Pollute the window, then clear.
	_, err = p.ProcessCopy([]float64{100, 100, 100, 100}).Wait()
	require.NoError(t, err)

	p.ClearState()

	got, err := p.ProcessCopy(input).Wait()
	require.NoError(t, err)
	assert.Equal(t, want, got, "clearState restores fresh-pipeline behavior")
}

func TestListState(t *testing.T) {
	p := New().
		AddMovingAverage(Window{Mode: Moving, Size: 4}).
		AddRectify()
	defer p.Close()

	_, err := p.Process(ramp(8)).Wait()
	require.NoError(t, err)

	infos := p.ListState()
	require.Len(t, infos, 2)
	assert.Equal(t, 0, infos[0].Ordinal)
	assert.Equal(t, "movingAverage", infos[0].Kind)
	assert.Equal(t, "moving", infos[0].Mode)
	assert.Equal(t, 4, infos[0].Window)
	assert.Equal(t, "rectify", infos[1].Kind)
}

func TestTapPanicIsIsolated(t *testing.T) {
	tapped := 0

	p := New().
		AddRectify().
		Tap(func([]float64, string) { panic("boom") }).
		Tap(func(samples []float64, trail string) {
			tapped = len(samples)
			assert.Equal(t, "rectify", trail)
		})
	defer p.Close()

	out, err := p.Process([]float64{-1, -2, -3}).Wait()
	require.NoError(t, err, "a panicking tap never fails the call")
	assert.Len(t, out, 3)
	assert.Equal(t, 3, tapped, "later taps still run")
}

func TestObserverCallbacks(t *testing.T) {
	var (
		stages  []string
		batches int
		samples int
	)

	cb := Callbacks{
		OnStageComplete: func(stage string, d time.Duration) {
			stages = append(stages, stage)
			assert.GreaterOrEqual(t, d, time.Duration(0))
		},
		OnBatch:  func([]float64) { batches++ },
		OnSample: func(float64, int, string) { samples++ },
	}

	p := New(WithCallbacks(cb)).
		AddRectify().
		AddMovingAverage(Window{Mode: Moving, Size: 2})
	defer p.Close()

	_, err := p.Process(ramp(4)).Wait()
	require.NoError(t, err)

	assert.Equal(t, []string{"rectify", "movingAverage"}, stages)
	assert.Equal(t, 1, batches)
	assert.Equal(t, 4, samples)
}

func TestOnErrorReceivesTrail(t *testing.T) {
	var trail string

	p := New(WithCallbacks(Callbacks{
		OnError: func(stage string, err error) {
			trail = stage
			assert.Error(t, err)
		},
	})).
		AddRectify().
		AddLMS(LMSConfig{NumTaps: 2, Mu: 0.1})
	defer p.Close()

	_, err := p.Process(ramp(4)).Wait() // single channel: LMS stage fails
	require.ErrorIs(t, err, ErrChannels)
	assert.Equal(t, "rectify -> lms", trail)
}

func TestLogEventsAndTopicFilter(t *testing.T) {
	var topics []string

	var p *Pipeline
	p = New(WithCallbacks(Callbacks{
		TopicFilter: "pipeline.stage.*.complete",
		OnLog: func(e Event) {
			topics = append(topics, e.Topic)
			assert.Equal(t, LevelDebug, e.Level)
			assert.Equal(t, 2, e.Priority)
			assert.Equal(t, p.ID(), e.Context["pipeline"])
		},
	})).
		AddRectify().
		AddMovingAverage(Window{Mode: Moving, Size: 2})
	defer p.Close()

	_, err := p.Process(ramp(4)).Wait()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"pipeline.stage.rectify.complete",
		"pipeline.stage.movingAverage.complete",
	}, topics)
}

func TestOnLogBatchPoolsPerCall(t *testing.T) {
	var batches [][]Event

	p := New(WithCallbacks(Callbacks{
		OnLogBatch: func(events []Event) { batches = append(batches, events) },
	})).AddRectify()
	defer p.Close()

	_, err := p.Process(ramp(2)).Wait()
	require.NoError(t, err)

	require.Len(t, batches, 1)
	assert.NotEmpty(t, batches[0])
}

func TestProcessAfterClose(t *testing.T) {
	p := New().AddRectify()
	p.Close()

	_, err := p.Process(ramp(2)).Wait()
	require.ErrorIs(t, err, ErrClosed)
}

func TestResultsDeliverInSubmissionOrder(t *testing.T) {
	p := New().AddMovingAverage(Window{Mode: Moving, Size: 2})
	defer p.Close()

	r1 := p.Process([]float64{2, 2})
	r2 := p.Process([]float64{4, 4})

	out1, err := r1.Wait()
	require.NoError(t, err)

	out2, err := r2.Wait()
	require.NoError(t, err)

	// The second call sees window state left by the first.
	assert.InDelta(t, 2, out1[1], 1e-12)
	assert.InDelta(t, 3, out2[0], 1e-12)
}

func TestHilbertStageEmitsEnvelope(t *testing.T) {
	p := New().AddHilbertEnvelope(HilbertConfig{WindowSize: 64, HopSize: 32})
	defer p.Close()

	input := make([]float64, 256)
	for i := range input {
		input[i] = math.Sin(2 * math.Pi * 8 * float64(i) / 64)
	}

	out, err := p.Process(input).Wait()
	require.NoError(t, err)
	require.Len(t, out, 224)

	for _, v := range out {
		assert.InDelta(t, 1, v, 1e-9)
	}
}

func TestWaveletStage(t *testing.T) {
	p := New().AddWavelet(WaveletConfig{Family: "haar"})
	defer p.Close()

	out, err := p.Process([]float64{1, 1, 0, 0}).Wait()
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.InDelta(t, math.Sqrt2, out[0], 1e-12)
}

func TestUnknownWaveletFamilyFailsAdd(t *testing.T) {
	p := New().AddWavelet(WaveletConfig{Family: "sym4"})
	defer p.Close()

	require.Error(t, p.Err())
}

func TestConvolveBatchStage(t *testing.T) {
	p := New().AddConvolve(ConvolveConfig{
		Kernel: []float64{1, 1},
		Mode:   Batch,
		Method: convolve.Direct,
	})
	defer p.Close()

	out, err := p.Process([]float64{1, 2, 3}).Wait()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 3, 5}, out, 1e-12)
}

func TestEmptyKernelFailsAdd(t *testing.T) {
	p := New().AddConvolve(ConvolveConfig{Kernel: nil})
	defer p.Close()

	require.ErrorIs(t, p.Err(), convolve.ErrEmptyKernel)
}

func TestLinearRegressionSlope(t *testing.T) {
	p := New().AddLinearRegression(RegressionConfig{
		Window: Window{Size: 4},
		Output: Slope,
	})
	defer p.Close()

	out, err := p.Process(ramp(8)).Wait()
	require.NoError(t, err)

	// A perfect ramp has slope 1 once two samples are in the window.
	for i := 1; i < len(out); i++ {
		assert.InDelta(t, 1, out[i], 1e-9, "sample %d", i)
	}
}

func TestLinearRegressionResidualsOnRamp(t *testing.T) {
	p := New().AddLinearRegression(RegressionConfig{
		Window: Window{Size: 4},
		Output: Residuals,
	})
	defer p.Close()

	out, err := p.Process(ramp(8)).Wait()
	require.NoError(t, err)

	for i, v := range out {
		assert.InDelta(t, 0, v, 1e-9, "sample %d", i)
	}
}
