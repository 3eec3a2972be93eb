// Package pool runs submitted jobs on a fixed set of goroutines.
package pool

import "sync"

type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
}

func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs: make(chan func(), n*2),
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for f := range p.jobs {
				if f != nil {
					f()
				}
			}
		}()
	}
	return p
}

// Submit blocks while every worker is busy and the queue is full.
// Submitting after Close panics.
func (p *Pool) Submit(f func()) {
	p.jobs <- f
}

func (p *Pool) Close() {
	p.once.Do(func() { close(p.jobs) })
}

// Wait blocks until queued jobs finish. Call Close first.
func (p *Pool) Wait() {
	p.wg.Wait()
}
