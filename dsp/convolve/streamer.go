package convolve

// Streamer convolves a signal delivered in blocks with a fixed kernel,
// producing one causal output sample per input sample. The tail of each
// block is remembered so results match convolving the concatenated stream.
type Streamer struct {
	kernel  []float64
	method  Method
	history []float64 // last len(kernel)-1 input samples, oldest first
}

// NewStreamer creates a streaming convolver for the kernel.
func NewStreamer(kernel []float64, method Method) (*Streamer, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	k := make([]float64, len(kernel))
	copy(k, kernel)

	return &Streamer{
		kernel:  k,
		method:  method,
		history: make([]float64, 0, len(kernel)-1),
	}, nil
}

// Process consumes a block and returns exactly len(block) output samples,
// where output[n] = sum over k of kernel[k]*x[n-k] with x the full stream.
func (s *Streamer) Process(block []float64) ([]float64, error) {
	if len(block) == 0 {
		return nil, ErrEmptyInput
	}

	work := make([]float64, len(s.history)+len(block))
	copy(work, s.history)
	copy(work[len(s.history):], block)

	full, err := Full(work, s.kernel, s.method)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(block))
	copy(out, full[len(s.history):len(s.history)+len(block)])

	keep := len(s.kernel) - 1
	if keep > len(work) {
		keep = len(work)
	}

	s.history = append(s.history[:0], work[len(work)-keep:]...)

	return out, nil
}

// Reset discards the carried input history.
func (s *Streamer) Reset() {
	s.history = s.history[:0]
}

// History returns a copy of the carried input tail, oldest first.
func (s *Streamer) History() []float64 {
	out := make([]float64, len(s.history))
	copy(out, s.history)

	return out
}

// SetHistory restores a tail previously captured with History.
func (s *Streamer) SetHistory(h []float64) {
	s.history = append(s.history[:0], h...)
}

// Kernel returns a copy of the convolution kernel.
func (s *Streamer) Kernel() []float64 {
	out := make([]float64, len(s.kernel))
	copy(out, s.kernel)

	return out
}
