package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrGatewayUnavailable is returned when the gateway client could not be
// loaded.  The buyer sees a generic payment error and may retry.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// DefaultLoadTimeout bounds a single gateway client load.
const DefaultLoadTimeout = 30 * time.Second

// ScriptLoader loads the gateway client at most once per process.
// Concurrent callers wait on the same in-flight load; each caller's
// context only bounds its own wait.  A failed load is forgotten so the
// next call tries again.
type ScriptLoader struct {
	load    func(ctx context.Context) error
	Timeout time.Duration

	mu       sync.Mutex
	loaded   bool
	inflight *loadCall
}

type loadCall struct {
	done chan struct{}
	err  error
}

// NewScriptLoader wraps load.
func NewScriptLoader(load func(ctx context.Context) error) *ScriptLoader {
	return &ScriptLoader{load: load, Timeout: DefaultLoadTimeout}
}

// Load runs the load function unless it already succeeded.
func (l *ScriptLoader) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.loaded {
		l.mu.Unlock()
		return nil
	}
	c := l.inflight
	if c == nil {
		c = &loadCall{done: make(chan struct{})}
		l.inflight = c
		go l.run(context.WithoutCancel(ctx), c)
	}
	l.mu.Unlock()

	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *ScriptLoader) run(ctx context.Context, c *loadCall) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := l.load(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	l.mu.Lock()
	l.inflight = nil
	l.loaded = err == nil
	c.err = err
	close(c.done)
	l.mu.Unlock()
}

// Loaded reports whether a load has succeeded.
func (l *ScriptLoader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}
