// Package wavelet implements single-level discrete wavelet decomposition
// with Haar and Daubechies filter banks. Daubechies coefficients are built
// at runtime by spectral factorization rather than from lookup tables.
package wavelet

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrUnknownFamily indicates an unrecognized wavelet family name.
	ErrUnknownFamily = errors.New("wavelet: unknown family")
	// ErrEmptyInput indicates an empty decomposition input.
	ErrEmptyInput = errors.New("wavelet: empty input")
)

// MaxOrder is the highest supported Daubechies order.
const MaxOrder = 10

// Wavelet holds an orthogonal analysis filter pair.
type Wavelet struct {
	family  string
	order   int
	lowpass []float64 // scaling filter h, sum sqrt(2)
	detail  []float64 // wavelet filter g, quadrature mirror of h
}

// New creates a wavelet for the named family: "haar" or "db1" through
// "db10". Names are case-insensitive.
func New(family string) (*Wavelet, error) {
	name := strings.ToLower(strings.TrimSpace(family))

	order, err := parseFamily(name)
	if err != nil {
		return nil, err
	}

	h, err := daubechies(order)
	if err != nil {
		return nil, err
	}

	return &Wavelet{
		family:  name,
		order:   order,
		lowpass: h,
		detail:  mirror(h),
	}, nil
}

func parseFamily(name string) (int, error) {
	if name == "haar" {
		return 1, nil
	}

	num, ok := strings.CutPrefix(name, "db")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}

	order, err := strconv.Atoi(num)
	if err != nil || order < 1 || order > MaxOrder {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}

	return order, nil
}

// Family returns the normalized family name.
func (w *Wavelet) Family() string {
	return w.family
}

// Order returns the number of vanishing moments.
func (w *Wavelet) Order() int {
	return w.order
}

// Len returns the filter length (twice the order).
func (w *Wavelet) Len() int {
	return len(w.lowpass)
}

// Filters returns copies of the scaling and wavelet filters.
func (w *Wavelet) Filters() (lowpass, detail []float64) {
	lowpass = make([]float64, len(w.lowpass))
	copy(lowpass, w.lowpass)

	detail = make([]float64, len(w.detail))
	copy(detail, w.detail)

	return lowpass, detail
}

// Decompose runs one analysis level over the signal, zero-extending past
// the end. Both outputs have ceil(len(signal)/2) samples.
func (w *Wavelet) Decompose(signal []float64) (approx, detail []float64, err error) {
	if len(signal) == 0 {
		return nil, nil, ErrEmptyInput
	}

	half := (len(signal) + 1) / 2
	approx = make([]float64, half)
	detail = make([]float64, half)

	for i := range half {
		var a, d float64

		for k := range w.lowpass {
			idx := 2*i + k
			if idx >= len(signal) {
				break
			}

			a += w.lowpass[k] * signal[idx]
			d += w.detail[k] * signal[idx]
		}

		approx[i] = a
		detail[i] = d
	}

	return approx, detail, nil
}

// Transform returns the approximation coefficients followed by the detail
// coefficients as a single slice.
func (w *Wavelet) Transform(signal []float64) ([]float64, error) {
	approx, detail, err := w.Decompose(signal)
	if err != nil {
		return nil, err
	}

	return append(approx, detail...), nil
}

// mirror derives the wavelet filter from the scaling filter:
// g[k] = (-1)^k h[L-1-k].
func mirror(h []float64) []float64 {
	g := make([]float64, len(h))
	for k := range h {
		g[k] = h[len(h)-1-k]
		if k%2 == 1 {
			g[k] = -g[k]
		}
	}

	return g
}

func haar() []float64 {
	v := 1 / math.Sqrt2

	return []float64{v, v}
}
