package envelope

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-pipeline/internal/testutil"
)

func TestNewHilbertValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewHilbert(63, 0); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("non power of two: got %v", err)
	}

	if _, err := NewHilbert(1, 0); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("window 1: got %v", err)
	}

	if _, err := NewHilbert(64, 65); !errors.Is(err, ErrInvalidHop) {
		t.Errorf("hop beyond window: got %v", err)
	}

	if _, err := NewHilbert(64, -1); !errors.Is(err, ErrInvalidHop) {
		t.Errorf("negative hop: got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	h, err := NewHilbert(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.WindowSize() != DefaultWindowSize {
		t.Errorf("window %d, want %d", h.WindowSize(), DefaultWindowSize)
	}

	if h.HopSize() != DefaultWindowSize/2 {
		t.Errorf("hop %d, want %d", h.HopSize(), DefaultWindowSize/2)
	}
}

func TestSineEnvelopeIsFlat(t *testing.T) {
	t.Parallel()

	h, err := NewHilbert(64, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Eight full cycles per frame: the frame is periodic, so the
	// analytic magnitude is exact.
	signal := testutil.Sine(256, 8, 64)

	out, err := h.Process(signal)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(out) == 0 {
		t.Fatal("no output")
	}

	for i, v := range out {
		if math.Abs(v-1) > 1e-9 {
			t.Fatalf("sample %d: envelope %v, want 1", i, v)
		}
	}
}

func TestScaledAmplitude(t *testing.T) {
	t.Parallel()

	h, _ := NewHilbert(64, 32)

	signal := testutil.Sine(128, 4, 64)
	for i := range signal {
		signal[i] *= 2.5
	}

	out, err := h.Process(signal)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	for i, v := range out {
		if math.Abs(v-2.5) > 1e-9 {
			t.Fatalf("sample %d: envelope %v, want 2.5", i, v)
		}
	}
}

func TestOutputLengthAndPending(t *testing.T) {
	t.Parallel()

	h, _ := NewHilbert(64, 32)

	out, err := h.Process(make([]float64, 256))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// Frames at offsets 0..192 each emit 32 samples.
	if len(out) != 224 {
		t.Fatalf("got %d samples, want 224", len(out))
	}

	if got := len(h.Pending()); got != 32 {
		t.Fatalf("pending %d, want 32", got)
	}
}

func TestShortInputStaysPending(t *testing.T) {
	t.Parallel()

	h, _ := NewHilbert(64, 32)

	out, err := h.Process(make([]float64, 63))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(out) != 0 {
		t.Fatalf("got %d samples, want 0", len(out))
	}
}

func TestPendingRoundTrip(t *testing.T) {
	t.Parallel()

	signal := testutil.Sine(300, 8, 64)

	a, _ := NewHilbert(64, 32)
	b, _ := NewHilbert(64, 32)

	if _, err := a.Process(signal[:150]); err != nil {
		t.Fatal(err)
	}

	b.SetPending(a.Pending())

	oa, _ := a.Process(signal[150:])
	ob, _ := b.Process(signal[150:])

	testutil.RequireSliceNearlyEqual(t, ob, oa, 0)
}

func TestChunkedMatchesWhole(t *testing.T) {
	t.Parallel()

	signal := testutil.Sine(512, 16, 64)

	whole, _ := NewHilbert(64, 32)
	chunked, _ := NewHilbert(64, 32)

	want, err := whole.Process(signal)
	if err != nil {
		t.Fatal(err)
	}

	var got []float64

	for start := 0; start < len(signal); start += 50 {
		end := min(start+50, len(signal))

		out, err := chunked.Process(signal[start:end])
		if err != nil {
			t.Fatal(err)
		}

		got = append(got, out...)
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}
