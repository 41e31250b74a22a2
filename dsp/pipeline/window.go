package pipeline

import (
	"fmt"
	"math"
)

// Mode selects between stateless whole-buffer aggregation and stateful
// sliding-window processing.
type Mode int

const (
	// Batch collapses the entire input per call; no window state.
	Batch Mode = iota
	// Moving slides a window across the stream, one output per sample.
	Moving
)

func (m Mode) String() string {
	if m == Moving {
		return "moving"
	}

	return "batch"
}

// Window configures a moving-mode stage's sizing basis. Exactly one of
// Size (sample count) or Duration (milliseconds, converted with the sample
// rate in effect when data first flows) must be set for moving mode; when
// both are set, Size wins. Batch mode ignores both.
type Window struct {
	Mode     Mode
	Size     int
	Duration float64
}

// validate applies the fail-fast checks shared by every windowed stage.
func (w Window) validate() error {
	if w.Size < 0 || w.Duration < 0 {
		return fmt.Errorf("%w: size %d, duration %vms", ErrInvalidWindow, w.Size, w.Duration)
	}

	if w.Mode == Moving && w.Size == 0 && w.Duration == 0 {
		return ErrMissingWindow
	}

	return nil
}

// resolve converts the sizing basis to an effective sample count. Duration
// needs the call's sample rate.
func (w Window) resolve(sampleRate float64) (int, error) {
	if w.Size > 0 {
		return w.Size, nil
	}

	if w.Duration > 0 {
		if sampleRate <= 0 {
			return 0, fmt.Errorf("%w: window duration %vms needs a rate", ErrRateRequired, w.Duration)
		}

		n := int(math.Round(w.Duration * sampleRate / 1000))
		if n < 1 {
			n = 1
		}

		return n, nil
	}

	return 0, ErrMissingWindow
}
