package suite

import (
	"sync"
	"sync/atomic"

	"github.com/copyleftdev/tundr-bench/internal/errors"
	"github.com/copyleftdev/tundr-bench/internal/problem"
)

// Pool keeps idle instances of one problem so that concurrent callers each
// get an exclusive instance with its own scratch buffers.
type Pool struct {
	build func() (problem.Problem, error)
	size  int

	mu     sync.Mutex
	idle   []problem.Problem
	closed bool

	created atomic.Int64
}

// NewPool creates a pool that keeps at most size idle instances and builds
// new ones with build.
func NewPool(size int, build func() (problem.Problem, error)) *Pool {
	if size < 0 {
		size = 0
	}
	return &Pool{
		build: build,
		size:  size,
		idle:  make([]problem.Problem, 0, size),
	}
}

// Get returns an idle instance or builds a new one.
func (p *Pool) Get() (problem.Problem, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		inst := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return inst, nil
	}
	p.mu.Unlock()

	inst, err := p.build()
	if err != nil {
		return nil, err
	}
	p.created.Add(1)
	return inst, nil
}

// Put returns an instance obtained from Get. The instance is closed when the
// pool is full or already closed.
func (p *Pool) Put(inst problem.Problem) {
	p.mu.Lock()
	if !p.closed && len(p.idle) < p.size {
		p.idle = append(p.idle, inst)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	_ = inst.Close()
}

// Idle returns the number of pooled instances.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Created returns how many instances the pool has built.
func (p *Pool) Created() int {
	return int(p.created.Load())
}

// Close closes every idle instance. Instances still checked out are closed
// when they are returned.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var errs []error
	for _, inst := range idle {
		if err := inst.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
