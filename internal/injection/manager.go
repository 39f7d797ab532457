// Package injection manages the command handler installed into a target's
// scope. Installation is version-tagged and idempotent: ensuring an
// already-instrumented scope at the current version is a no-op, while a
// stale tag forces a fresh install so upgraded command engines replace old
// ones in long-lived targets.
package injection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opfskit/bridge/internal/wire"
)

// Handler executes one command inside the target's context.
type Handler func(ctx context.Context, command string, params map[string]interface{}) *wire.Response

// Instrumentation is the record a scope holds once instrumented: the
// installed handler plus the version tag it was built at.
type Instrumentation struct {
	Version string
	Handler Handler
}

// Scope is the slot a target exposes for instrumentation. Lookups and
// installs happen from the relay goroutine handling the request, so
// implementations must be safe for concurrent use.
type Scope interface {
	Instrumentation() *Instrumentation
	Install(*Instrumentation) error
}

// Manager performs version-gated installs.
type Manager struct {
	log *zap.Logger
}

// NewManager creates an injection manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{log: log}
}

// Ensure returns a handler at the expected version, installing one via
// build when the scope is bare or carries a stale tag. The check and the
// install happen in the same pass, so the caller pays a single round trip
// into the scope regardless of its prior state.
func (m *Manager) Ensure(scope Scope, version string, build func() (Handler, error)) (Handler, error) {
	if cur := scope.Instrumentation(); cur != nil {
		if cur.Version == version {
			return cur.Handler, nil
		}
		m.log.Info("replacing stale instrumentation",
			zap.String("installed", cur.Version),
			zap.String("expected", version),
		)
	}

	handler, err := build()
	if err != nil {
		return nil, fmt.Errorf("build handler %s: %w", version, err)
	}
	inst := &Instrumentation{Version: version, Handler: handler}
	if err := scope.Install(inst); err != nil {
		return nil, fmt.Errorf("install handler %s: %w", version, err)
	}
	m.log.Debug("instrumentation installed", zap.String("version", version))
	return handler, nil
}
