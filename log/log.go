// Package log provides the process-wide logger and the default sink that
// routes pipeline log events into logrus.
package log

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-pipeline/dsp/pipeline"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// GetLogger returns the shared logrus logger, creating it on first use.
func GetLogger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	})

	return logger
}

// Sink adapts a logrus logger to the pipeline.Sink interface. Event topics
// and priorities become structured fields; levels map one to one.
type Sink struct {
	logger *logrus.Logger
}

// NewSink creates a sink around l, falling back to the shared logger when
// l is nil.
func NewSink(l *logrus.Logger) *Sink {
	if l == nil {
		l = GetLogger()
	}

	return &Sink{logger: l}
}

// Log implements pipeline.Sink.
func (s *Sink) Log(e pipeline.Event) {
	entry := s.logger.WithFields(logrus.Fields{
		"topic":    e.Topic,
		"priority": e.Priority,
	})

	if len(e.Context) > 0 {
		entry = entry.WithFields(logrus.Fields(e.Context))
	}

	switch e.Level {
	case pipeline.LevelDebug:
		entry.Debug(e.Message)
	case pipeline.LevelInfo:
		entry.Info(e.Message)
	case pipeline.LevelWarn:
		entry.Warn(e.Message)
	case pipeline.LevelError:
		entry.Error(e.Message)
	default:
		entry.Info(e.Message)
	}
}
