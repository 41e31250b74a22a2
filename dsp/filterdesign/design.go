// Package filterdesign produces filter coefficient sets from frequency-domain
// specifications. Four families are supported: windowed-sinc FIR, Butterworth
// and Chebyshev Type I biquad cascades (flattened to a single transfer
// function), and single RBJ biquad sections.
package filterdesign

import (
	"errors"
	"fmt"
	"math"
)

// Family selects the filter design family.
type Family int

const (
	FamilyFIR Family = iota
	FamilyButterworth
	FamilyChebyshev
	FamilyBiquad
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyFIR:
		return "fir"
	case FamilyButterworth:
		return "butterworth"
	case FamilyChebyshev:
		return "chebyshev"
	case FamilyBiquad:
		return "biquad"
	default:
		return "unknown"
	}
}

// Response selects the frequency response shape.
type Response int

const (
	Lowpass Response = iota
	Highpass
	Bandpass
	Bandstop
	Notch
	Peak
	LowShelf
	HighShelf
)

// String returns the response name.
func (r Response) String() string {
	switch r {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case Bandstop:
		return "bandstop"
	case Notch:
		return "notch"
	case Peak:
		return "peak"
	case LowShelf:
		return "lowshelf"
	case HighShelf:
		return "highshelf"
	default:
		return "unknown"
	}
}

var (
	// ErrMissingParameter indicates a required design parameter was absent.
	ErrMissingParameter = errors.New("filterdesign: missing parameter")
	// ErrUnsupported indicates an unsupported family/response combination.
	ErrUnsupported = errors.New("filterdesign: unsupported design")
	// ErrInvalidParameter indicates an out-of-range design parameter.
	ErrInvalidParameter = errors.New("filterdesign: invalid parameter")
)

// Defaults applied when optional parameters are zero-valued.
const (
	DefaultRippleDB = 0.5
	DefaultQ        = 1 / math.Sqrt2
	DefaultFIRTaps  = 51
	DefaultIIROrder = 4
)

// Spec is a declarative filter design request.
type Spec struct {
	Family   Family
	Response Response

	// Cutoff is the corner/center frequency in Hz for single-frequency
	// responses (lowpass, highpass, notch, peak, shelves).
	Cutoff float64

	// CutoffLow and CutoffHigh bound band responses (bandpass, bandstop).
	CutoffLow  float64
	CutoffHigh float64

	// SampleRate in Hz. Required for every design.
	SampleRate float64

	// Order is the filter order. Zero selects the family default
	// (FIR: 50, giving 51 taps; IIR: 4). FIR orders must be even so the
	// tap count stays odd.
	Order int

	// RippleDB is the Chebyshev passband ripple (default 0.5 dB).
	RippleDB float64

	// Q is the biquad quality factor (default 1/sqrt 2).
	Q float64

	// GainDB is the biquad peak/shelf gain (default 0 dB).
	GainDB float64
}

func (s Spec) missing(param string) error {
	return fmt.Errorf("%w: %s %s requires %s", ErrMissingParameter, s.Family, s.Response, param)
}

func (s Spec) unsupported() error {
	return fmt.Errorf("%w: %s does not implement %s", ErrUnsupported, s.Family, s.Response)
}

func (s Spec) invalid(param string, v any) error {
	return fmt.Errorf("%w: %s %s: %s = %v", ErrInvalidParameter, s.Family, s.Response, param, v)
}

// Design validates the spec and produces transfer-function coefficients.
func Design(spec Spec) (Coefficients, error) {
	if err := spec.validate(); err != nil {
		return Coefficients{}, err
	}

	switch spec.Family {
	case FamilyFIR:
		return designFIR(spec)
	case FamilyButterworth:
		return designButterworth(spec)
	case FamilyChebyshev:
		return designChebyshev(spec)
	case FamilyBiquad:
		return designBiquad(spec)
	default:
		return Coefficients{}, spec.unsupported()
	}
}

//nolint:cyclop
func (s Spec) validate() error {
	if s.SampleRate <= 0 {
		return s.missing("SampleRate")
	}

	nyquist := s.SampleRate / 2

	switch s.Response {
	case Bandpass, Bandstop:
		if s.CutoffLow <= 0 {
			return s.missing("CutoffLow")
		}

		if s.CutoffHigh <= 0 {
			return s.missing("CutoffHigh")
		}

		if s.CutoffLow >= s.CutoffHigh {
			return s.invalid("CutoffLow", s.CutoffLow)
		}

		if s.CutoffHigh >= nyquist {
			return s.invalid("CutoffHigh", s.CutoffHigh)
		}
	default:
		if s.Cutoff <= 0 {
			return s.missing("Cutoff")
		}

		if s.Cutoff >= nyquist {
			return s.invalid("Cutoff", s.Cutoff)
		}
	}

	if s.Order < 0 {
		return s.invalid("Order", s.Order)
	}

	if s.RippleDB < 0 {
		return s.invalid("RippleDB", s.RippleDB)
	}

	if s.Q < 0 {
		return s.invalid("Q", s.Q)
	}

	return nil
}

func (s Spec) q() float64 {
	if s.Q == 0 {
		return DefaultQ
	}

	return s.Q
}

func (s Spec) ripple() float64 {
	if s.RippleDB == 0 {
		return DefaultRippleDB
	}

	return s.RippleDB
}

func (s Spec) iirOrder() int {
	if s.Order == 0 {
		return DefaultIIROrder
	}

	return s.Order
}
