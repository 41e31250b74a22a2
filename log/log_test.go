package log

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-pipeline/dsp/pipeline"
)

func TestSinkMapsLevelsAndFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	sink := NewSink(logger)

	sink.Log(pipeline.Event{
		Topic:     "pipeline.stage.lms.error",
		Level:     pipeline.LevelError,
		Message:   "stage failed",
		Context:   map[string]any{"stage": "lms"},
		Timestamp: time.Now(),
		Priority:  9,
	})

	require.Len(t, hook.Entries, 1)

	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "stage failed", entry.Message)
	assert.Equal(t, "pipeline.stage.lms.error", entry.Data["topic"])
	assert.Equal(t, 9, entry.Data["priority"])
	assert.Equal(t, "lms", entry.Data["stage"])

	hook.Reset()

	sink.Log(pipeline.Event{
		Topic:   "pipeline.debug",
		Level:   pipeline.LevelDebug,
		Message: "process start",
	})

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestNewSinkDefaultsToSharedLogger(t *testing.T) {
	sink := NewSink(nil)
	require.NotNil(t, sink.logger)
	assert.Same(t, GetLogger(), sink.logger)
}
