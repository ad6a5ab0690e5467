package engine

import (
	"context"
	"sync"
)

// RunOutcome is the result of one pooled analysis job
type RunOutcome struct {
	Name   string
	Result *RunResult
	Err    error
}

type poolJob struct {
	name  string
	input RunInput
	out   chan RunOutcome
}

// Pool runs analyses across a fixed set of workers. Submit returns a
// channel that receives exactly one outcome; Close waits for in-flight
// jobs to finish.
type Pool struct {
	analyzer *Analyzer
	jobs     chan poolJob
	wg       sync.WaitGroup
}

// NewPool starts a pool with the given worker count
func NewPool(ctx context.Context, analyzer *Analyzer, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		analyzer: analyzer,
		jobs:     make(chan poolJob),
	}

	for _i := 0; _i < workers; _i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				result, err := p.analyzer.Run(ctx, job.input)
				job.out <- RunOutcome{Name: job.name, Result: result, Err: err}
				close(job.out)
			}
		}()
	}
	return p
}

// Submit queues one recording for analysis. The returned channel is
// buffered, so the outcome can be collected at any time.
func (p *Pool) Submit(name string, input RunInput) <-chan RunOutcome {
	out := make(chan RunOutcome, 1)
	p.jobs <- poolJob{name: name, input: input, out: out}
	return out
}

// Close stops accepting jobs and waits for running analyses to complete
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
