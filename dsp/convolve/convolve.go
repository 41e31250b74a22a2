// Package convolve implements linear convolution: direct time-domain
// evaluation for short kernels, FFT overlap-add for long ones, and a causal
// streaming convolver that carries kernel history across blocks.
package convolve

import "errors"

var (
	// ErrEmptyKernel indicates an empty convolution kernel.
	ErrEmptyKernel = errors.New("convolve: empty kernel")
	// ErrEmptyInput indicates an empty input signal.
	ErrEmptyInput = errors.New("convolve: empty input")
	// ErrUnknownMethod indicates an unrecognized Method value.
	ErrUnknownMethod = errors.New("convolve: unknown method")
)

// Method selects the convolution algorithm.
type Method int

const (
	// Auto picks Direct below AutoThreshold kernel taps and FFT above.
	Auto Method = iota
	// Direct evaluates the convolution sum in the time domain.
	Direct
	// FFT uses overlap-add frequency-domain convolution.
	FFT
)

// AutoThreshold is the kernel length at which Auto switches from direct to
// FFT convolution.
const AutoThreshold = 64

func (m Method) String() string {
	switch m {
	case Auto:
		return "auto"
	case Direct:
		return "direct"
	case FFT:
		return "fft"
	default:
		return "unknown"
	}
}

// Full computes the full linear convolution of signal and kernel using the
// given method. The result has len(signal)+len(kernel)-1 samples.
func Full(signal, kernel []float64, method Method) ([]float64, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	if len(signal) == 0 {
		return nil, ErrEmptyInput
	}

	switch method {
	case Direct:
		return direct(signal, kernel), nil
	case FFT:
		oa, err := NewOverlapAdd(kernel, 0)
		if err != nil {
			return nil, err
		}

		return oa.Process(signal)
	case Auto:
		if len(kernel) < AutoThreshold {
			return direct(signal, kernel), nil
		}

		return Full(signal, kernel, FFT)
	default:
		return nil, ErrUnknownMethod
	}
}

func direct(signal, kernel []float64) []float64 {
	out := make([]float64, len(signal)+len(kernel)-1)

	for i, x := range signal {
		if x == 0 {
			continue
		}

		for k, h := range kernel {
			out[i+k] += x * h
		}
	}

	return out
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
