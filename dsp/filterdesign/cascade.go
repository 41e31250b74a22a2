package filterdesign

import "math"

func designButterworth(spec Spec) (Coefficients, error) {
	order := spec.iirOrder()

	var (
		sections []section
		err      error
	)

	switch spec.Response {
	case Lowpass:
		sections, err = butterworthCascade(spec, order, rbjLowpass)
	case Highpass:
		sections, err = butterworthCascade(spec, order, rbjHighpass)
	case Bandpass:
		sections, err = bandCascade(spec, order, rbjBandpass)
	case Bandstop:
		sections, err = bandCascade(spec, order, rbjNotch)
	default:
		return Coefficients{}, spec.unsupported()
	}

	if err != nil {
		return Coefficients{}, err
	}

	return flatten(sections), nil
}

// butterworthCascade builds order/2 second-order sections with the
// Butterworth pole quality factors, plus a first-order section for odd
// orders.
func butterworthCascade(
	spec Spec,
	order int,
	design func(freq, q, sampleRate float64) (section, error),
) ([]section, error) {
	sections := make([]section, 0, (order+1)/2)

	for i := order/2 - 1; i >= 0; i-- {
		s, err := design(spec.Cutoff, butterworthQ(order, i), spec.SampleRate)
		if err != nil {
			return nil, err
		}

		sections = append(sections, s)
	}

	if order%2 != 0 {
		s, err := firstOrder(spec.Cutoff, spec.SampleRate, spec.Response == Highpass)
		if err != nil {
			return nil, err
		}

		sections = append(sections, s)
	}

	return sections, nil
}

// bandCascade repeats a band section (RBJ bandpass or notch at the geometric
// center with bandwidth-matched Q) order/2 times, at least once.
func bandCascade(
	spec Spec,
	order int,
	design func(freq, q, sampleRate float64) (section, error),
) ([]section, error) {
	n := order / 2
	if n < 1 {
		n = 1
	}

	f0, q := bandCenter(spec.CutoffLow, spec.CutoffHigh)
	sections := make([]section, 0, n)

	for range n {
		s, err := design(f0, q, spec.SampleRate)
		if err != nil {
			return nil, err
		}

		sections = append(sections, s)
	}

	return sections, nil
}

func designChebyshev(spec Spec) (Coefficients, error) {
	order := spec.iirOrder()

	switch spec.Response {
	case Lowpass:
		return flattenOrErr(chebyshev1LP(spec.Cutoff, order, spec.ripple(), spec.SampleRate), spec)
	case Highpass:
		return flattenOrErr(chebyshev1HP(spec.Cutoff, order, spec.ripple(), spec.SampleRate), spec)
	default:
		return Coefficients{}, spec.unsupported()
	}
}

func flattenOrErr(sections []section, spec Spec) (Coefficients, error) {
	if sections == nil {
		return Coefficients{}, spec.invalid("Cutoff", spec.Cutoff)
	}

	return flatten(sections), nil
}

// chebyshev1LP designs a lowpass Chebyshev Type I cascade via the bilinear
// transform. Odd orders append a first-order Butterworth section.
func chebyshev1LP(freq float64, order int, rippleDB, sampleRate float64) []section {
	k, ok := bilinearK(freq, sampleRate)
	if !ok || order <= 0 {
		return nil
	}

	r0, r1 := cheby1RippleFactors(order, rippleDB)
	sections := make([]section, 0, (order+1)/2)
	k2 := k * k

	for i := (order / 2) - 1; i >= 0; i-- {
		tt := math.Cos(float64(2*i+1) * math.Pi / (2 * float64(order)))
		b := 1 / (r0 - tt*tt)
		a := k * 2 * b * r1 * tt
		t := 1 / (a + b + k2)
		sections = append(sections, section{
			b0: k2 * t,
			b1: 2 * k2 * t,
			b2: k2 * t,
			a1: 2 * (b - k2) * t,
			a2: (a - k2 - b) * t,
		})
	}

	if order%2 != 0 {
		s, err := firstOrder(freq, sampleRate, false)
		if err != nil {
			return nil
		}

		sections = append(sections, s)
	}

	return sections
}

// chebyshev1HP designs a highpass Chebyshev Type I cascade.
func chebyshev1HP(freq float64, order int, rippleDB, sampleRate float64) []section {
	k, ok := bilinearK(freq, sampleRate)
	if !ok || order <= 0 {
		return nil
	}

	r0, r1 := cheby1RippleFactors(order, rippleDB)
	sections := make([]section, 0, (order+1)/2)
	k2 := k * k

	for i := (order / 2) - 1; i >= 0; i-- {
		s := math.Sin(float64(2*i+1) * math.Pi / (4 * float64(order)))
		tt := s * s
		a := 1 / (r0 + 4*tt - 4*tt*tt - 1)
		b := 2 * k * a * r1 * (1 - 2*tt)
		t := 1 / (b + 1 + a*k2)
		sections = append(sections, section{
			b0: t,
			b1: -2 * t,
			b2: t,
			a1: 2 * (1 - a*k2) * t,
			a2: (b - 1 - a*k2) * t,
		})
	}

	if order%2 != 0 {
		s, err := firstOrder(freq, sampleRate, true)
		if err != nil {
			return nil
		}

		sections = append(sections, s)
	}

	return sections
}

func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))

	s := math.Sin(theta)
	if s == 0 {
		return DefaultQ
	}

	return 1 / (2 * s)
}

func bilinearK(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || freq <= 0 || freq >= sampleRate/2 {
		return 0, false
	}

	return math.Tan(math.Pi * freq / sampleRate), true
}

func cheby1RippleFactors(order int, rippleDB float64) (float64, float64) {
	if rippleDB <= 0 {
		rippleDB = DefaultRippleDB
	}

	t := math.Asinh(rippleDB) / float64(order)
	r1 := math.Sinh(t)
	r0 := math.Cosh(t)

	return r0 * r0, r1
}

// firstOrder designs a first-order Butterworth section, lowpass or highpass.
func firstOrder(freq, sampleRate float64, highpass bool) (section, error) {
	k, ok := bilinearK(freq, sampleRate)
	if !ok {
		return section{}, errSection
	}

	norm := 1 / (1 + k)

	if highpass {
		return section{
			b0: norm,
			b1: -norm,
			a1: (k - 1) * norm,
		}, nil
	}

	return section{
		b0: k * norm,
		b1: k * norm,
		a1: (k - 1) * norm,
	}, nil
}
