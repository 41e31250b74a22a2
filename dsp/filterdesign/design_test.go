package filterdesign

import (
	"errors"
	"math"
	"math/cmplx"
	"strings"
	"testing"
)

const testRate = 48000.0

// response evaluates |H(e^jw)| at freq Hz.
func response(c Coefficients, freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate

	var num, den complex128
	for k, b := range c.B {
		num += complex(b, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}

	for k, a := range c.A {
		den += complex(a, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}

	return cmplx.Abs(num / den)
}

func TestDesignMissingParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{
			"no sample rate",
			Spec{Family: FamilyFIR, Response: Lowpass, Cutoff: 1000},
			"SampleRate",
		},
		{
			"no cutoff",
			Spec{Family: FamilyButterworth, Response: Lowpass, SampleRate: testRate},
			"Cutoff",
		},
		{
			"band missing high edge",
			Spec{Family: FamilyFIR, Response: Bandpass, CutoffLow: 500, SampleRate: testRate},
			"CutoffHigh",
		},
		{
			"band missing low edge",
			Spec{Family: FamilyBiquad, Response: Bandstop, CutoffHigh: 500, SampleRate: testRate},
			"CutoffLow",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Design(tc.spec)
			if !errors.Is(err, ErrMissingParameter) {
				t.Fatalf("expected ErrMissingParameter, got %v", err)
			}

			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should name parameter %q", err, tc.want)
			}

			if !strings.Contains(err.Error(), tc.spec.Family.String()) {
				t.Errorf("error %q should name family %q", err, tc.spec.Family)
			}
		})
	}
}

func TestDesignUnsupportedCombination(t *testing.T) {
	t.Parallel()

	_, err := Design(Spec{
		Family:     FamilyChebyshev,
		Response:   Peak,
		Cutoff:     1000,
		SampleRate: testRate,
	})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}

	if !strings.Contains(err.Error(), "chebyshev") || !strings.Contains(err.Error(), "peak") {
		t.Errorf("error %q should name family and response", err)
	}
}

func TestDesignFIRLowpass(t *testing.T) {
	t.Parallel()

	c, err := Design(Spec{Family: FamilyFIR, Response: Lowpass, Cutoff: 2000, SampleRate: testRate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !c.IsFIR() {
		t.Fatalf("FIR design must have A = [1], got %v", c.A)
	}

	if len(c.B) != DefaultFIRTaps {
		t.Fatalf("taps = %d, want %d", len(c.B), DefaultFIRTaps)
	}

	// Linear phase: coefficients are symmetric.
	for i := range len(c.B) / 2 {
		if math.Abs(c.B[i]-c.B[len(c.B)-1-i]) > 1e-12 {
			t.Fatalf("asymmetric at %d", i)
		}
	}

	if g := response(c, 0.001, testRate); math.Abs(g-1) > 1e-3 {
		t.Errorf("DC gain = %v, want 1", g)
	}

	if g := response(c, 12000, testRate); g > 0.01 {
		t.Errorf("stopband gain = %v, want < 0.01", g)
	}
}

func TestDesignFIREvenOrderRejected(t *testing.T) {
	t.Parallel()

	_, err := Design(Spec{
		Family: FamilyFIR, Response: Lowpass,
		Cutoff: 2000, SampleRate: testRate, Order: 10,
	})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for even tap count, got %v", err)
	}
}

func TestDesignFIRHighpassGains(t *testing.T) {
	t.Parallel()

	c, err := Design(Spec{Family: FamilyFIR, Response: Highpass, Cutoff: 4000, SampleRate: testRate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g := response(c, 1, testRate); g > 0.01 {
		t.Errorf("DC gain = %v, want ~0", g)
	}

	if g := response(c, 20000, testRate); math.Abs(g-1) > 0.05 {
		t.Errorf("passband gain = %v, want ~1", g)
	}
}

func TestDesignButterworthLowpass(t *testing.T) {
	t.Parallel()

	c, err := Design(Spec{
		Family: FamilyButterworth, Response: Lowpass,
		Cutoff: 1000, SampleRate: testRate, Order: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.B) != 5 || len(c.A) != 5 {
		t.Fatalf("order-4 transfer function sizes = %d/%d, want 5/5", len(c.B), len(c.A))
	}

	if c.A[0] != 1 {
		t.Fatalf("A[0] = %v, want 1", c.A[0])
	}

	if g := response(c, 1, testRate); math.Abs(g-1) > 1e-6 {
		t.Errorf("DC gain = %v, want 1", g)
	}

	// -3 dB at the corner.
	if g := response(c, 1000, testRate); math.Abs(g-1/math.Sqrt2) > 0.02 {
		t.Errorf("corner gain = %v, want %v", g, 1/math.Sqrt2)
	}

	if g := response(c, 8000, testRate); g > 0.01 {
		t.Errorf("stopband gain = %v, want < 0.01", g)
	}
}

func TestDesignButterworthOddOrder(t *testing.T) {
	t.Parallel()

	c, err := Design(Spec{
		Family: FamilyButterworth, Response: Highpass,
		Cutoff: 1000, SampleRate: testRate, Order: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.A) != 4 {
		t.Fatalf("order-3 denominator size = %d, want 4", len(c.A))
	}

	if g := response(c, 20000, testRate); math.Abs(g-1) > 1e-3 {
		t.Errorf("passband gain = %v, want 1", g)
	}
}

func TestDesignChebyshevLowpass(t *testing.T) {
	t.Parallel()

	c, err := Design(Spec{
		Family: FamilyChebyshev, Response: Lowpass,
		Cutoff: 1000, SampleRate: testRate, Order: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Even-order Type I: DC gain sits at the bottom of the ripple band.
	want := math.Pow(10, -DefaultRippleDB/20)
	if g := response(c, 1, testRate); math.Abs(g-want) > 0.05 {
		t.Errorf("DC gain = %v, want ~%v", g, want)
	}

	if g := response(c, 10000, testRate); g > 0.01 {
		t.Errorf("stopband gain = %v, want < 0.01", g)
	}
}

func TestDesignBiquadPeakUnityAtZeroGain(t *testing.T) {
	t.Parallel()

	c, err := Design(Spec{
		Family: FamilyBiquad, Response: Peak,
		Cutoff: 1000, SampleRate: testRate,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, f := range []float64{100, 1000, 10000} {
		if g := response(c, f, testRate); math.Abs(g-1) > 1e-9 {
			t.Errorf("gain at %v Hz = %v, want 1", f, g)
		}
	}
}

func TestDesignBiquadNotch(t *testing.T) {
	t.Parallel()

	c, err := Design(Spec{
		Family: FamilyBiquad, Response: Notch,
		Cutoff: 50, Q: 10, SampleRate: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g := response(c, 50, 1000); g > 1e-6 {
		t.Errorf("gain at notch center = %v, want ~0", g)
	}

	if g := response(c, 400, 1000); math.Abs(g-1) > 0.05 {
		t.Errorf("gain far from notch = %v, want ~1", g)
	}
}

func TestDesignBiquadShelves(t *testing.T) {
	t.Parallel()

	c, err := Design(Spec{
		Family: FamilyBiquad, Response: LowShelf,
		Cutoff: 1000, GainDB: 6, SampleRate: testRate,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := math.Pow(10, 6.0/20)
	if g := response(c, 1, testRate); math.Abs(g-want) > 0.05 {
		t.Errorf("low-shelf DC gain = %v, want ~%v", g, want)
	}

	if g := response(c, 20000, testRate); math.Abs(g-1) > 0.05 {
		t.Errorf("low-shelf HF gain = %v, want ~1", g)
	}
}

func TestDesignButterworthBandpass(t *testing.T) {
	t.Parallel()

	c, err := Design(Spec{
		Family: FamilyButterworth, Response: Bandpass,
		CutoffLow: 800, CutoffHigh: 1250, SampleRate: testRate, Order: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	center := math.Sqrt(800 * 1250.0)
	if g := response(c, center, testRate); math.Abs(g-1) > 0.05 {
		t.Errorf("center gain = %v, want ~1", g)
	}

	if g := response(c, 50, testRate); g > 0.05 {
		t.Errorf("low-side rejection = %v, want < 0.05", g)
	}
}

func TestWindowedSincLowpassClamps(t *testing.T) {
	t.Parallel()

	h := WindowedSincLowpass(51, 0.25)
	if len(h) != 51 {
		t.Fatalf("taps = %d, want 51", len(h))
	}

	var sum float64
	for _, v := range h {
		sum += v
	}

	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("DC gain = %v, want 1", sum)
	}
}
