package injection_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opfskit/bridge/internal/injection"
	"github.com/opfskit/bridge/internal/wire"
)

type memScope struct {
	mu   sync.Mutex
	inst *injection.Instrumentation
}

func (s *memScope) Instrumentation() *injection.Instrumentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inst
}

func (s *memScope) Install(inst *injection.Instrumentation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inst = inst
	return nil
}

func handlerReturning(data interface{}) injection.Handler {
	return func(context.Context, string, map[string]interface{}) *wire.Response {
		return wire.OK(data)
	}
}

func TestEnsureInstallsOnce(t *testing.T) {
	m := injection.NewManager(nil)
	scope := &memScope{}

	builds := 0
	build := func() (injection.Handler, error) {
		builds++
		return handlerReturning("v1"), nil
	}

	h, err := m.Ensure(scope, "exec/1", build)
	require.NoError(t, err)
	assert.Equal(t, 1, builds)
	assert.Equal(t, "v1", h(context.Background(), "x", nil).Data)

	// Same version: no rebuild, same handler back.
	h, err = m.Ensure(scope, "exec/1", build)
	require.NoError(t, err)
	assert.Equal(t, 1, builds)
	assert.Equal(t, "v1", h(context.Background(), "x", nil).Data)
}

func TestEnsureReplacesStaleVersion(t *testing.T) {
	m := injection.NewManager(nil)
	scope := &memScope{}

	_, err := m.Ensure(scope, "exec/1", func() (injection.Handler, error) {
		return handlerReturning("old"), nil
	})
	require.NoError(t, err)

	h, err := m.Ensure(scope, "exec/2", func() (injection.Handler, error) {
		return handlerReturning("new"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", h(context.Background(), "x", nil).Data)
	assert.Equal(t, "exec/2", scope.Instrumentation().Version)
}

func TestEnsureBuildFailure(t *testing.T) {
	m := injection.NewManager(nil)
	scope := &memScope{}

	_, err := m.Ensure(scope, "exec/1", func() (injection.Handler, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	assert.Nil(t, scope.Instrumentation())
}
