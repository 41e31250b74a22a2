package filterdesign

import (
	"math"

	"github.com/cwbudde/algo-pipeline/dsp/window"
)

func designFIR(spec Spec) (Coefficients, error) {
	taps := spec.Order + 1
	if spec.Order == 0 {
		taps = DefaultFIRTaps
	}

	if taps%2 == 0 {
		return Coefficients{}, spec.invalid("Order", spec.Order)
	}

	var b []float64

	switch spec.Response {
	case Lowpass:
		b = WindowedSincLowpass(taps, spec.Cutoff/spec.SampleRate)
	case Highpass:
		b = spectralInvert(WindowedSincLowpass(taps, spec.Cutoff/spec.SampleRate))
	case Bandpass:
		b = subtract(
			WindowedSincLowpass(taps, spec.CutoffHigh/spec.SampleRate),
			WindowedSincLowpass(taps, spec.CutoffLow/spec.SampleRate),
		)
	case Bandstop:
		b = spectralInvert(subtract(
			WindowedSincLowpass(taps, spec.CutoffHigh/spec.SampleRate),
			WindowedSincLowpass(taps, spec.CutoffLow/spec.SampleRate),
		))
	default:
		return Coefficients{}, spec.unsupported()
	}

	return Coefficients{B: b, A: []float64{1}}, nil
}

// WindowedSincLowpass designs a Hamming-windowed sinc lowpass FIR with the
// given odd tap count. cutoffNorm is the cutoff divided by the sample rate,
// in (0, 0.5). DC gain is normalized to 1.
func WindowedSincLowpass(taps int, cutoffNorm float64) []float64 {
	if taps <= 0 {
		return nil
	}

	if cutoffNorm <= 0 {
		cutoffNorm = 1e-6
	}

	if cutoffNorm >= 0.5 {
		cutoffNorm = 0.5 - 1e-6
	}

	h := make([]float64, taps)
	mid := float64(taps-1) / 2

	for i := range h {
		h[i] = 2 * cutoffNorm * sinc(2*cutoffNorm*(float64(i)-mid))
	}

	window.Apply(window.TypeHamming, h)

	// Normalize DC gain to unity.
	var sum float64
	for _, v := range h {
		sum += v
	}

	if sum != 0 {
		for i := range h {
			h[i] /= sum
		}
	}

	return h
}

// spectralInvert converts a unity-gain lowpass into its complementary
// response (delta minus the original). Requires an odd tap count.
func spectralInvert(h []float64) []float64 {
	out := make([]float64, len(h))
	for i := range h {
		out[i] = -h[i]
	}

	out[(len(h)-1)/2] += 1

	return out
}

func subtract(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}

	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}

	px := math.Pi * x

	return math.Sin(px) / px
}
