package filterdesign

// Coefficients holds a digital filter transfer function in ascending powers
// of z^-1. A is normalized so A[0] == 1; FIR filters have A == [1].
type Coefficients struct {
	B []float64
	A []float64
}

// IsFIR reports whether the filter has a trivial denominator.
func (c Coefficients) IsFIR() bool {
	return len(c.A) == 1
}

// section is a single second-order (or degenerate first-order) stage with
// a0 normalized to 1.
type section struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// flatten multiplies cascaded sections into a single transfer function.
func flatten(sections []section) Coefficients {
	b := []float64{1}
	a := []float64{1}

	for _, s := range sections {
		nb := []float64{s.b0, s.b1, s.b2}
		na := []float64{1, s.a1, s.a2}

		// First-order sections carry zero trailing terms; keep the
		// polynomials tight so FIR/IIR orders stay exact.
		if s.b2 == 0 && s.a2 == 0 {
			nb = nb[:2]
			na = na[:2]
		}

		b = polyMul(b, nb)
		a = polyMul(a, na)
	}

	return Coefficients{B: b, A: a}
}

// polyMul convolves two polynomial coefficient slices.
func polyMul(p, q []float64) []float64 {
	out := make([]float64, len(p)+len(q)-1)
	for i, pv := range p {
		for j, qv := range q {
			out[i+j] += pv * qv
		}
	}

	return out
}
