package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Selector picks which backend serves the next call. Implementations
// own their cursor state; the pool holds none.
type Selector interface {
	Next(size int) int
}

// RoundRobin selects backends in strict rotation: call N picks backend
// N mod size. The cursor advances on every call regardless of the
// call's outcome. A lost update between two concurrent readers only
// skews load distribution, never the correctness of a request.
type RoundRobin struct {
	cursor atomic.Uint64
}

// NewRoundRobin creates a rotation selector starting at backend 0.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

func (r *RoundRobin) Next(size int) int {
	n := r.cursor.Add(1) - 1
	return int(n % uint64(size))
}

// Pool routes chat calls across interchangeable backends. It performs
// no per-request fallback: a backend failure propagates to the caller,
// and the next call rotates to the next backend. Retry policy belongs
// to the application layer.
type Pool struct {
	backends []ChatClient
	selector Selector
	timeout  time.Duration
}

// NewPool creates a pool over the given backends. A zero timeout
// disables the per-call bound.
func NewPool(selector Selector, timeout time.Duration, backends ...ChatClient) (*Pool, error) {
	if len(backends) == 0 {
		return nil, errors.New("llm: pool requires at least one backend")
	}
	if selector == nil {
		selector = NewRoundRobin()
	}
	return &Pool{
		backends: backends,
		selector: selector,
		timeout:  timeout,
	}, nil
}

// Size returns the number of backends in the pool.
func (p *Pool) Size() int {
	return len(p.backends)
}

// Chat selects one backend and forwards the call, bounded by the pool
// timeout. The selector has already advanced by the time the backend
// fails, so a retried request naturally lands on the next backend.
func (p *Pool) Chat(ctx context.Context, messages []Message) (string, error) {
	backend := p.backends[p.selector.Next(len(p.backends))]

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	return backend.Chat(ctx, messages)
}
