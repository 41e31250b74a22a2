package wavelet

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-pipeline/internal/polyroot"
)

// daubechies builds the order-N scaling filter (2N taps) by spectral
// factorization: find the roots of the binomial half-band polynomial, keep
// the factors inside the unit circle, and attach N zeros at z = -1. The
// result is the extremal-phase filter, normalized so the taps sum to
// sqrt(2).
func daubechies(order int) ([]float64, error) {
	if order == 1 {
		return haar(), nil
	}

	n := order

	// P(y) = sum_{k=0}^{N-1} C(N-1+k, k) y^k, descending order for the
	// root finder.
	coeff := make([]complex128, n)
	for k := range n {
		coeff[n-1-k] = complex(binomial(n-1+k, k), 0)
	}

	yroots, err := polyroot.DurandKerner(coeff)
	if err != nil {
		return nil, fmt.Errorf("wavelet: db%d factorization: %w", order, err)
	}

	// Each y root maps to a reciprocal pair of z roots; keep the one
	// inside the unit circle.
	zroots := make([]complex128, 0, n-1)

	for _, y := range yroots {
		b := 2 - 4*y
		disc := cmplx.Sqrt(b*b - 4)

		z := (b + disc) / 2
		if alt := (b - disc) / 2; cmplx.Abs(alt) < cmplx.Abs(z) {
			z = alt
		}

		zroots = append(zroots, z)
	}

	// (1+z)^N * prod(z - zk), ascending powers.
	poly := []complex128{1}

	for range n {
		poly = mulPoly(poly, []complex128{1, 1})
	}

	for _, z := range zroots {
		poly = mulPoly(poly, []complex128{-z, 1})
	}

	// Complex roots occur in conjugate pairs, so the imaginary parts only
	// carry rounding noise.
	h := make([]float64, len(poly))

	var sum float64

	for i, c := range poly {
		h[i] = real(c)
		sum += h[i]
	}

	if sum == 0 {
		return nil, fmt.Errorf("wavelet: db%d factorization: %w", order, polyroot.ErrDegeneratePolynomial)
	}

	scale := math.Sqrt2 / sum
	for i := range h {
		h[i] *= scale
	}

	// Canonical extremal-phase ordering puts the dominant tap first.
	if math.Abs(h[0]) < math.Abs(h[len(h)-1]) {
		for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
			h[i], h[j] = h[j], h[i]
		}
	}

	return h, nil
}

func mulPoly(a, b []complex128) []complex128 {
	out := make([]complex128, len(a)+len(b)-1)

	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}

	return out
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}

	if k > n-k {
		k = n - k
	}

	v := 1.0
	for i := range k {
		v = v * float64(n-i) / float64(i+1)
	}

	return v
}
