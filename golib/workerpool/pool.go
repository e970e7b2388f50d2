package workerpool

import (
	"sync"

	"github.com/kiteco/perfrnn/golib/errors"
)

// Job is a unit of work run by the pool.
type Job func() error

// Pool runs jobs on a fixed number of goroutines.
type Pool struct {
	jobs chan Job
	quit chan struct{}
	wg   sync.WaitGroup

	m       sync.Mutex
	errs    errors.List
	stopped bool
	pending sync.WaitGroup
}

// New starts a pool with n workers.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs: make(chan Job),
		quit: make(chan struct{}),
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.work()
	}
	return p
}

// Add schedules jobs; it does not block on their completion.
func (p *Pool) Add(jobs []Job) {
	p.m.Lock()
	if p.stopped {
		p.m.Unlock()
		return
	}
	p.pending.Add(len(jobs))
	p.m.Unlock()

	go func() {
		for i, job := range jobs {
			if p.isStopped() {
				p.pending.Add(-(len(jobs) - i))
				return
			}
			select {
			case p.jobs <- job:
			case <-p.quit:
				// drop what is left
				p.pending.Add(-(len(jobs) - i))
				return
			}
		}
	}()
}

// Wait blocks until every added job has run or been dropped by Stop, and returns the
// errors the jobs returned.
func (p *Pool) Wait() error {
	p.pending.Wait()
	p.m.Lock()
	defer p.m.Unlock()
	return p.errs.Err()
}

// Stop drops jobs that have not started yet. Running jobs finish.
func (p *Pool) Stop() {
	p.m.Lock()
	defer p.m.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	close(p.quit)
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			if p.isStopped() {
				p.pending.Done()
				continue
			}
			err := job()
			if err != nil {
				p.m.Lock()
				p.errs = errors.Append(p.errs, err)
				p.m.Unlock()
			}
			p.pending.Done()
		case <-p.quit:
			return
		}
	}
}

func (p *Pool) isStopped() bool {
	select {
	case <-p.quit:
		return true
	default:
		return false
	}
}
