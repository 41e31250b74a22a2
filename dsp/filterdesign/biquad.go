package filterdesign

import (
	"errors"
	"math"
)

// RBJ cookbook biquad sections, normalized to a0 = 1.

func designBiquad(spec Spec) (Coefficients, error) {
	var (
		s   section
		err error
	)

	switch spec.Response {
	case Lowpass:
		s, err = rbjLowpass(spec.Cutoff, spec.q(), spec.SampleRate)
	case Highpass:
		s, err = rbjHighpass(spec.Cutoff, spec.q(), spec.SampleRate)
	case Bandpass:
		f0, q := bandCenter(spec.CutoffLow, spec.CutoffHigh)
		s, err = rbjBandpass(f0, q, spec.SampleRate)
	case Bandstop:
		f0, q := bandCenter(spec.CutoffLow, spec.CutoffHigh)
		s, err = rbjNotch(f0, q, spec.SampleRate)
	case Notch:
		s, err = rbjNotch(spec.Cutoff, spec.q(), spec.SampleRate)
	case Peak:
		s, err = rbjPeak(spec.Cutoff, spec.GainDB, spec.q(), spec.SampleRate)
	case LowShelf:
		s, err = rbjLowShelf(spec.Cutoff, spec.GainDB, spec.q(), spec.SampleRate)
	case HighShelf:
		s, err = rbjHighShelf(spec.Cutoff, spec.GainDB, spec.q(), spec.SampleRate)
	default:
		return Coefficients{}, spec.unsupported()
	}

	if err != nil {
		return Coefficients{}, err
	}

	return flatten([]section{s}), nil
}

// bandCenter converts band edges to a geometric center frequency and the
// quality factor matching the bandwidth.
func bandCenter(low, high float64) (f0, q float64) {
	f0 = math.Sqrt(low * high)
	q = f0 / (high - low)

	return f0, q
}

func angularFreq(freq, sampleRate float64) (w0, cw, sw float64, ok bool) {
	if sampleRate <= 0 || freq <= 0 || freq >= sampleRate/2 {
		return 0, 0, 0, false
	}

	w0 = 2 * math.Pi * freq / sampleRate

	return w0, math.Cos(w0), math.Sin(w0), true
}

var errSection = errors.New("filterdesign: frequency out of range")

func rbjLowpass(freq, q, sampleRate float64) (section, error) {
	_, cw, sw, ok := angularFreq(freq, sampleRate)
	if !ok {
		return section{}, errSection
	}

	alpha := sw / (2 * q)
	a0 := 1 + alpha

	return section{
		b0: (1 - cw) / 2 / a0,
		b1: (1 - cw) / a0,
		b2: (1 - cw) / 2 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}, nil
}

func rbjHighpass(freq, q, sampleRate float64) (section, error) {
	_, cw, sw, ok := angularFreq(freq, sampleRate)
	if !ok {
		return section{}, errSection
	}

	alpha := sw / (2 * q)
	a0 := 1 + alpha

	return section{
		b0: (1 + cw) / 2 / a0,
		b1: -(1 + cw) / a0,
		b2: (1 + cw) / 2 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}, nil
}

func rbjBandpass(freq, q, sampleRate float64) (section, error) {
	_, cw, sw, ok := angularFreq(freq, sampleRate)
	if !ok {
		return section{}, errSection
	}

	alpha := sw / (2 * q)
	a0 := 1 + alpha

	return section{
		b0: sw / 2 / a0,
		b1: 0,
		b2: -sw / 2 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}, nil
}

func rbjNotch(freq, q, sampleRate float64) (section, error) {
	_, cw, sw, ok := angularFreq(freq, sampleRate)
	if !ok {
		return section{}, errSection
	}

	alpha := sw / (2 * q)
	a0 := 1 + alpha

	return section{
		b0: 1 / a0,
		b1: -2 * cw / a0,
		b2: 1 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}, nil
}

func rbjPeak(freq, gainDB, q, sampleRate float64) (section, error) {
	_, cw, sw, ok := angularFreq(freq, sampleRate)
	if !ok {
		return section{}, errSection
	}

	alpha := sw / (2 * q)
	a := math.Pow(10, gainDB/40)
	a0 := 1 + alpha/a

	return section{
		b0: (1 + alpha*a) / a0,
		b1: -2 * cw / a0,
		b2: (1 - alpha*a) / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha/a) / a0,
	}, nil
}

func rbjLowShelf(freq, gainDB, q, sampleRate float64) (section, error) {
	_, cw, sw, ok := angularFreq(freq, sampleRate)
	if !ok {
		return section{}, errSection
	}

	alpha := sw / (2 * q)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * alpha
	a0 := (a + 1) + (a-1)*cw + beta

	return section{
		b0: a * ((a + 1) - (a-1)*cw + beta) / a0,
		b1: 2 * a * ((a - 1) - (a+1)*cw) / a0,
		b2: a * ((a + 1) - (a-1)*cw - beta) / a0,
		a1: -2 * ((a - 1) + (a+1)*cw) / a0,
		a2: ((a + 1) + (a-1)*cw - beta) / a0,
	}, nil
}

func rbjHighShelf(freq, gainDB, q, sampleRate float64) (section, error) {
	_, cw, sw, ok := angularFreq(freq, sampleRate)
	if !ok {
		return section{}, errSection
	}

	alpha := sw / (2 * q)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * alpha
	a0 := (a + 1) - (a-1)*cw + beta

	return section{
		b0: a * ((a + 1) + (a-1)*cw + beta) / a0,
		b1: -2 * a * ((a - 1) + (a+1)*cw) / a0,
		b2: a * ((a + 1) + (a-1)*cw - beta) / a0,
		a1: 2 * ((a - 1) - (a+1)*cw) / a0,
		a2: ((a + 1) - (a-1)*cw - beta) / a0,
	}, nil
}
