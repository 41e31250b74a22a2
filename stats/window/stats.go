// Package window provides sliding-window and whole-buffer signal statistics
// for the pipeline's aggregating stages.
package window

import (
	"errors"
	"math"
)

// ErrInvalidSize is returned when an accumulator size is not positive.
var ErrInvalidSize = errors.New("stats/window: size must be > 0")

// Accumulator maintains running statistics over the last N pushed samples.
// Until N samples have been pushed, statistics cover the partial fill.
type Accumulator struct {
	ring   []float64
	pos    int
	count  int
	sum    float64
	sumSq  float64
	sumAbs float64
}

// NewAccumulator creates an accumulator over a window of size samples.
func NewAccumulator(size int) (*Accumulator, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	return &Accumulator{ring: make([]float64, size)}, nil
}

// Push adds one sample, evicting the oldest once the window is full.
func (a *Accumulator) Push(x float64) {
	if a.count == len(a.ring) {
		old := a.ring[a.pos]
		a.sum -= old
		a.sumSq -= old * old
		a.sumAbs -= math.Abs(old)
	} else {
		a.count++
	}

	a.ring[a.pos] = x
	a.pos++

	if a.pos == len(a.ring) {
		a.pos = 0
	}

	a.sum += x
	a.sumSq += x * x
	a.sumAbs += math.Abs(x)
}

// Count returns the number of samples currently in the window.
func (a *Accumulator) Count() int {
	return a.count
}

// Size returns the configured window size.
func (a *Accumulator) Size() int {
	return len(a.ring)
}

// Mean returns the mean of the current window content.
func (a *Accumulator) Mean() float64 {
	if a.count == 0 {
		return 0
	}

	return a.sum / float64(a.count)
}

// MeanAbs returns the mean absolute value of the current window content.
func (a *Accumulator) MeanAbs() float64 {
	if a.count == 0 {
		return 0
	}

	return a.sumAbs / float64(a.count)
}

// RMS returns the root-mean-square of the current window content.
func (a *Accumulator) RMS() float64 {
	if a.count == 0 {
		return 0
	}

	return math.Sqrt(a.sumSq / float64(a.count))
}

// Variance returns the population variance of the current window content.
// Running sums can drift slightly negative for near-constant input; the
// result is clamped to zero.
func (a *Accumulator) Variance() float64 {
	if a.count == 0 {
		return 0
	}

	n := float64(a.count)
	mean := a.sum / n

	v := a.sumSq/n - mean*mean
	if v < 0 {
		v = 0
	}

	return v
}

// StdDev returns the population standard deviation of the window content.
func (a *Accumulator) StdDev() float64 {
	return math.Sqrt(a.Variance())
}

// Reset empties the window.
func (a *Accumulator) Reset() {
	for i := range a.ring {
		a.ring[i] = 0
	}

	a.pos = 0
	a.count = 0
	a.sum = 0
	a.sumSq = 0
	a.sumAbs = 0
}

// Values returns the window content in push order, oldest first.
func (a *Accumulator) Values() []float64 {
	out := make([]float64, 0, a.count)

	start := a.pos - a.count
	if start < 0 {
		start += len(a.ring)
	}

	for i := range a.count {
		out = append(out, a.ring[(start+i)%len(a.ring)])
	}

	return out
}

// Restore refills the accumulator from values in push order, oldest first.
// Values beyond the window size are ignored except for their eviction effect.
func (a *Accumulator) Restore(values []float64) {
	a.Reset()

	for _, v := range values {
		a.Push(v)
	}
}

// Mean returns the mean of the signal.
func Mean(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sum float64
	for _, x := range signal {
		sum += x
	}

	return sum / float64(len(signal))
}

// MeanAbs returns the mean absolute value of the signal.
func MeanAbs(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sum float64
	for _, x := range signal {
		sum += math.Abs(x)
	}

	return sum / float64(len(signal))
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// Variance returns the population variance of the signal using Welford's
// online algorithm for numerical stability.
func Variance(signal []float64) float64 {
	n := len(signal)
	if n == 0 {
		return 0
	}

	var mean, m2 float64

	for i, x := range signal {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}

	return m2 / float64(n)
}

// StdDev returns the population standard deviation of the signal.
func StdDev(signal []float64) float64 {
	return math.Sqrt(Variance(signal))
}
