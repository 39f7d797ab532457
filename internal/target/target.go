// Package target models one addressable page context on the far side of
// the bridge. Each target owns a private backing store, an instrumentation
// scope, and a single goroutine that drains submitted jobs one at a time,
// so commands against a target never run concurrently with each other.
package target

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opfskit/bridge/internal/injection"
	"github.com/opfskit/bridge/internal/store"
	"github.com/opfskit/bridge/internal/wire"
)

// ErrClosed is returned when a job is submitted to a closed target.
var ErrClosed = errors.New("target closed")

// Scope is the target's instrumentation slot.
type Scope struct {
	mu   sync.Mutex
	inst *injection.Instrumentation
}

// Instrumentation returns the installed record, or nil when bare.
func (s *Scope) Instrumentation() *injection.Instrumentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inst
}

// Install replaces the instrumentation record.
func (s *Scope) Install(inst *injection.Instrumentation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inst = inst
	return nil
}

// Target is one page context: an ID, a store, a scope, and the job loop.
type Target struct {
	id      string
	created time.Time
	store   store.Store
	scope   *Scope
	log     *zap.Logger

	jobs      chan func()
	quit      chan struct{}
	closeOnce sync.Once
}

// New creates a target over the given store and starts its job loop.
func New(id string, st store.Store, log *zap.Logger) *Target {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Target{
		id:      id,
		created: time.Now(),
		store:   st,
		scope:   &Scope{},
		log:     log,
		jobs:    make(chan func()),
		quit:    make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *Target) loop() {
	for {
		select {
		case job := <-t.jobs:
			job()
		case <-t.quit:
			return
		}
	}
}

// ID returns the target's identifier.
func (t *Target) ID() string { return t.id }

// CreatedAt returns when the target was registered.
func (t *Target) CreatedAt() time.Time { return t.created }

// Store returns the target's private backing store.
func (t *Target) Store() store.Store { return t.store }

// Scope returns the target's instrumentation slot.
func (t *Target) Scope() *Scope { return t.scope }

// Closed reports whether Close has been called.
func (t *Target) Closed() bool {
	select {
	case <-t.quit:
		return true
	default:
		return false
	}
}

// Evaluate runs fn on the target's job loop and waits for its result.
// The context stops the wait, not the job: a job already handed to the
// loop runs to completion even if the caller gives up.
func (t *Target) Evaluate(ctx context.Context, fn func() *wire.Response) (*wire.Response, error) {
	result := make(chan *wire.Response, 1)
	job := func() { result <- fn() }

	select {
	case t.jobs <- job:
	case <-t.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-result:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the job loop. Jobs submitted after Close fail with
// ErrClosed; the job running at close time finishes normally.
func (t *Target) Close() {
	t.closeOnce.Do(func() {
		close(t.quit)
		t.log.Debug("target closed", zap.String("target_id", t.id))
	})
}
