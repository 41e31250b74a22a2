package pipeline

import (
	"time"

	"github.com/cwbudde/algo-pipeline/dsp/pipeline/topic"
)

// Level classifies a log event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Priority returns the numeric priority attached to events of this level.
func (l Level) Priority() int {
	switch l {
	case LevelDebug:
		return 2
	case LevelInfo:
		return 5
	case LevelWarn:
		return 7
	case LevelError:
		return 9
	default:
		return 5
	}
}

// Event is a structured log record emitted by the engine. Topics are
// hierarchical: "pipeline.<level>" for engine events and
// "pipeline.stage.<label>.<category>" for stage events.
type Event struct {
	Topic     string         `json:"topic"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Priority  int            `json:"priority"`
}

// Sink receives every event that passes the topic filter. Implementations
// must be fast; they run synchronously on the processing goroutine.
type Sink interface {
	Log(e Event)
}

// emit builds an event, applies the topic filter, and delivers it to the
// sink, the OnLog callback, and the per-call pool for OnLogBatch.
func (p *Pipeline) emit(pool *[]Event, topicStr string, level Level, msg string, ctx map[string]any) {
	if p.sink == nil && p.callbacks.OnLog == nil && p.callbacks.OnLogBatch == nil {
		return
	}

	if !topic.Match(p.callbacks.TopicFilter, topicStr) {
		return
	}

	if ctx == nil {
		ctx = map[string]any{}
	}

	ctx["pipeline"] = p.id

	e := Event{
		Topic:     topicStr,
		Level:     level,
		Message:   msg,
		Context:   ctx,
		Timestamp: time.Now(),
		Priority:  level.Priority(),
	}

	if p.sink != nil {
		p.sink.Log(e)
	}

	if p.callbacks.OnLog != nil {
		p.callbacks.OnLog(e)
	}

	if p.callbacks.OnLogBatch != nil && pool != nil {
		*pool = append(*pool, e)
	}
}

func engineTopic(level Level) string {
	return "pipeline." + string(level)
}

func stageTopic(label, category string) string {
	return "pipeline.stage." + label + "." + category
}
