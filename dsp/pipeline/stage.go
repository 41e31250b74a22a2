package pipeline

import "encoding/json"

// runContext carries the per-call environment every stage sees.
type runContext struct {
	channels   int
	sampleRate float64
}

// stage is the internal contract every variant implements. process may
// mutate the buffer in place or return a replacement of a different length
// (rate-changing and transform stages). Runtime state is owned exclusively
// by the pipeline and touched only inside process, reset, or restore.
type stage interface {
	kind() StageKind
	label() string
	process(rc runContext, buf []float64) ([]float64, error)
	reset()
	snapshot() (json.RawMessage, error)
	restore(raw json.RawMessage) error
	describe() StageInfo
}

// StageInfo is the diagnostic summary returned by ListState. It never
// carries runtime state.
type StageInfo struct {
	Ordinal  int    `json:"ordinal"`
	Kind     string `json:"kind"`
	Label    string `json:"label"`
	Mode     string `json:"mode,omitempty"`
	Window   int    `json:"window,omitempty"`
	Channels int    `json:"channels,omitempty"`
}

// deinterleave splits an interleaved buffer into per-channel slices.
func deinterleave(buf []float64, channels int) [][]float64 {
	out := make([][]float64, channels)
	frames := len(buf) / channels

	for c := range out {
		ch := make([]float64, frames)
		for i := range frames {
			ch[i] = buf[i*channels+c]
		}

		out[c] = ch
	}

	return out
}

// interleave merges equal-length per-channel slices back into one buffer.
func interleave(chs [][]float64) []float64 {
	if len(chs) == 0 {
		return nil
	}

	frames := len(chs[0])
	out := make([]float64, frames*len(chs))

	for c, ch := range chs {
		for i, v := range ch {
			out[i*len(chs)+c] = v
		}
	}

	return out
}
