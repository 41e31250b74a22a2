package pipeline

// job is one queued process request.
type job struct {
	samples []float64
	cfg     processConfig
	res     *Result
}

// Result is the future returned by Process. It resolves once the pipeline's
// executor has run the request; there is no cancellation.
type Result struct {
	done chan struct{}
	out  []float64
	err  error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// Wait blocks until the request has run and returns its output buffer and
// error.
func (r *Result) Wait() ([]float64, error) {
	<-r.done

	return r.out, r.err
}

// Done returns a channel closed when the result is available.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

func (r *Result) resolve(out []float64, err error) {
	r.out = out
	r.err = err
	close(r.done)
}

// serve is the per-pipeline executor: requests run one at a time, in
// submission order, off the callers' goroutines.
func (p *Pipeline) serve() {
	defer p.wg.Done()

	for j := range p.jobs {
		out, err := p.run(j.samples, j.cfg)
		j.res.resolve(out, err)
	}
}

// submit enqueues a request, resolving immediately with ErrClosed when the
// pipeline has been closed.
func (p *Pipeline) submit(samples []float64, cfg processConfig) *Result {
	res := newResult()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		res.resolve(nil, ErrClosed)

		return res
	}

	p.jobs <- &job{samples: samples, cfg: cfg, res: res}

	return res
}
