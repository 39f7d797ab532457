// Package relay is the privileged middle of the bridge: it owns the target
// registry, instruments targets on demand, and forwards commands from the
// dispatcher to the executor installed in each target's scope.
//
// The relay distinguishes two failure planes. Command-level errors travel
// inside a response untouched; pipeline failures (unknown target, failed
// instrumentation, a target that vanished mid-call) are reported as
// EXECUTION_ERROR, and a target that yields neither data nor error is
// NO_RESULT.
package relay

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opfskit/bridge/internal/executor"
	"github.com/opfskit/bridge/internal/infrastructure/monitoring"
	"github.com/opfskit/bridge/internal/injection"
	"github.com/opfskit/bridge/internal/shared/id"
	"github.com/opfskit/bridge/internal/store"
	"github.com/opfskit/bridge/internal/target"
	"github.com/opfskit/bridge/internal/wire"
)

// ErrUnknownTarget is returned by lifecycle operations on an unregistered ID.
var ErrUnknownTarget = errors.New("unknown target")

// StoreFactory builds the private backing store for a new target.
type StoreFactory func(targetID string) (store.Store, error)

// MemoryFactory backs each target with an in-memory store.
func MemoryFactory(quota uint64) StoreFactory {
	return func(string) (store.Store, error) {
		return store.NewMemory(store.WithQuota(quota)), nil
	}
}

// DiskFactory backs each target with its own directory under root, the way
// a browser roots one private area per origin.
func DiskFactory(root string, quota uint64) StoreFactory {
	return func(targetID string) (store.Store, error) {
		return store.NewDisk(filepath.Join(root, targetID), store.WithDiskQuota(quota))
	}
}

// TargetInfo is the registry's public view of one target.
type TargetInfo struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Instrumented string    `json:"instrumentedVersion,omitempty"`
}

// Relay routes commands to targets.
type Relay struct {
	log      *zap.Logger
	injector *injection.Manager
	metrics  *monitoring.Metrics
	factory  StoreFactory

	mu      sync.RWMutex
	targets map[string]*target.Target
}

// Option configures a Relay.
type Option func(*Relay)

// WithMetrics attaches a metrics collector.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// New creates a relay whose targets are backed by the given factory.
func New(factory StoreFactory, log *zap.Logger, opts ...Option) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Relay{
		log:      log,
		injector: injection.NewManager(log),
		factory:  factory,
		targets:  make(map[string]*target.Target),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateTarget registers a new target with a fresh store.
func (r *Relay) CreateTarget() (TargetInfo, error) {
	tid := id.NewTargetID().String()
	st, err := r.factory(tid)
	if err != nil {
		return TargetInfo{}, fmt.Errorf("create store for %s: %w", tid, err)
	}
	tgt := target.New(tid, st, r.log)

	r.mu.Lock()
	r.targets[tid] = tgt
	count := len(r.targets)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.IncTargetsTotal()
		r.metrics.SetTargetsActive(count)
	}
	r.log.Info("target created", zap.String("target_id", tid))
	return r.info(tgt), nil
}

// Targets lists registered targets, oldest ID first.
func (r *Relay) Targets() []TargetInfo {
	r.mu.RLock()
	infos := make([]TargetInfo, 0, len(r.targets))
	for _, tgt := range r.targets {
		infos = append(infos, r.info(tgt))
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// CloseTarget stops a target and removes it from the registry.
func (r *Relay) CloseTarget(targetID string) error {
	r.mu.Lock()
	tgt, ok := r.targets[targetID]
	if ok {
		delete(r.targets, targetID)
	}
	count := len(r.targets)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, targetID)
	}
	tgt.Close()
	if r.metrics != nil {
		r.metrics.SetTargetsActive(count)
	}
	r.log.Info("target closed", zap.String("target_id", targetID))
	return nil
}

// Close stops every registered target.
func (r *Relay) Close() {
	r.mu.Lock()
	targets := r.targets
	r.targets = make(map[string]*target.Target)
	r.mu.Unlock()

	for _, tgt := range targets {
		tgt.Close()
	}
	if r.metrics != nil {
		r.metrics.SetTargetsActive(0)
	}
}

func (r *Relay) info(tgt *target.Target) TargetInfo {
	info := TargetInfo{ID: tgt.ID(), CreatedAt: tgt.CreatedAt()}
	if inst := tgt.Scope().Instrumentation(); inst != nil {
		info.Instrumented = inst.Version
	}
	return info
}

func (r *Relay) target(targetID string) (*target.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tgt, ok := r.targets[targetID]
	return tgt, ok
}

// Handle runs one command against one target: ensure instrumentation, hand
// the invocation to the target's job loop, and normalize the outcome.
// Handle never returns nil.
func (r *Relay) Handle(ctx context.Context, targetID, command string, params map[string]interface{}) *wire.Response {
	tgt, ok := r.target(targetID)
	if !ok {
		return r.finish(command, wire.Fail(wire.Errorf(wire.CodeExecutionError, "unknown target: %s", targetID)))
	}

	var timer *monitoring.Timer
	if r.metrics != nil {
		timer = monitoring.NewTimer(r.metrics, command)
	}

	handler, err := r.injector.Ensure(tgt.Scope(), executor.Version, func() (injection.Handler, error) {
		if r.metrics != nil {
			r.metrics.IncInjections()
		}
		exec := executor.New(tgt.Store(), r.log)
		return exec.Execute, nil
	})
	if err != nil {
		return r.record(command, timer, wire.Fail(wire.Errorf(wire.CodeExecutionError, "instrument target %s: %v", targetID, err)))
	}

	resp, err := tgt.Evaluate(ctx, func() *wire.Response {
		return handler(ctx, command, params)
	})
	if err != nil {
		return r.record(command, timer, wire.Fail(wire.Errorf(wire.CodeExecutionError, "evaluate on target %s: %v", targetID, err)))
	}
	if resp == nil || (!resp.OK && resp.Error == nil) {
		return r.record(command, timer, wire.Fail(wire.NewError(wire.CodeNoResult, "target returned no result")))
	}
	return r.record(command, timer, resp)
}

func (r *Relay) finish(command string, resp *wire.Response) *wire.Response {
	return r.record(command, nil, resp)
}

func (r *Relay) record(command string, timer *monitoring.Timer, resp *wire.Response) *wire.Response {
	if r.metrics != nil {
		status := "ok"
		if !resp.OK {
			status = "error"
			r.metrics.RecordRPCError(command, string(resp.Error.Code))
		}
		if timer != nil {
			timer.Stop(status)
		} else {
			r.metrics.RecordRPC(command, status, 0)
		}
	}
	return resp
}
