package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-pipeline/dsp/pipeline"
)

func TestObserverCountsProcessing(t *testing.T) {
	reg := prometheus.NewRegistry()

	o, err := NewObserver(Config{Registry: reg, Namespace: "dsp"})
	require.NoError(t, err)

	p := pipeline.New(pipeline.WithCallbacks(o.Callbacks())).
		AddRectify().
		AddMovingAverage(pipeline.Window{Mode: pipeline.Moving, Size: 4})
	defer p.Close()

	_, err = p.Process([]float64{-1, 2, -3, 4}).Wait()
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(o.batches), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(o.samples), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(o.stageDuration))
}

func TestObserverCountsStageErrors(t *testing.T) {
	reg := prometheus.NewRegistry()

	o, err := NewObserver(Config{Registry: reg})
	require.NoError(t, err)

	p := pipeline.New(pipeline.WithCallbacks(o.Callbacks())).
		AddLMS(pipeline.LMSConfig{NumTaps: 2, Mu: 0.1})
	defer p.Close()

	_, err = p.Process([]float64{1, 2, 3}).Wait() // one channel: stage fails
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(o.stageErrors.WithLabelValues("lms")), 0)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewObserver(Config{Registry: reg})
	require.NoError(t, err)

	_, err = NewObserver(Config{Registry: reg})
	require.Error(t, err)
}
