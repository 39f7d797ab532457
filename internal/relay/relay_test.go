package relay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opfskit/bridge/internal/executor"
	"github.com/opfskit/bridge/internal/relay"
	"github.com/opfskit/bridge/internal/store"
	"github.com/opfskit/bridge/internal/wire"
)

func newRelay(t *testing.T) (*relay.Relay, string) {
	t.Helper()
	r := relay.New(relay.MemoryFactory(1<<20), nil)
	t.Cleanup(r.Close)
	info, err := r.CreateTarget()
	require.NoError(t, err)
	return r, info.ID
}

func TestHandleRoundTrip(t *testing.T) {
	r, tid := newRelay(t)
	ctx := context.Background()

	resp := r.Handle(ctx, tid, executor.CmdWriteText, map[string]interface{}{
		"path": "/note.txt", "text": "hello",
	})
	require.True(t, resp.OK, "write failed: %+v", resp.Error)

	resp = r.Handle(ctx, tid, executor.CmdReadText, map[string]interface{}{"path": "/note.txt"})
	require.True(t, resp.OK)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "hello", data["text"])
}

func TestHandleUnknownTarget(t *testing.T) {
	r, _ := newRelay(t)

	resp := r.Handle(context.Background(), "tgt_nope", executor.CmdStat, map[string]interface{}{"path": "/"})
	require.False(t, resp.OK)
	assert.Equal(t, wire.CodeExecutionError, resp.Error.Code)
}

func TestHandleCommandErrorPassesThrough(t *testing.T) {
	r, tid := newRelay(t)

	// A command-level failure keeps its taxonomy code and is not rewrapped
	// as a bridge failure.
	resp := r.Handle(context.Background(), tid, executor.CmdReadText, map[string]interface{}{"path": "/missing"})
	require.False(t, resp.OK)
	assert.Equal(t, wire.CodeNotFound, resp.Error.Code)
}

func TestInstrumentationHappensOnce(t *testing.T) {
	r, tid := newRelay(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp := r.Handle(ctx, tid, executor.CmdIsAvailable, nil)
		require.True(t, resp.OK)
	}

	targets := r.Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, executor.Version, targets[0].Instrumented)
}

func TestClosedTargetIsExecutionError(t *testing.T) {
	r, tid := newRelay(t)
	require.NoError(t, r.CloseTarget(tid))

	resp := r.Handle(context.Background(), tid, executor.CmdIsAvailable, nil)
	require.False(t, resp.OK)
	assert.Equal(t, wire.CodeExecutionError, resp.Error.Code)
}

func TestCloseTargetUnknown(t *testing.T) {
	r, _ := newRelay(t)
	assert.ErrorIs(t, r.CloseTarget("tgt_nope"), relay.ErrUnknownTarget)
}

func TestTargetsAreIsolated(t *testing.T) {
	r, tid := newRelay(t)
	other, err := r.CreateTarget()
	require.NoError(t, err)
	ctx := context.Background()

	resp := r.Handle(ctx, tid, executor.CmdWriteText, map[string]interface{}{
		"path": "/only-here.txt", "text": "x",
	})
	require.True(t, resp.OK)

	// The other target's store never sees the file.
	resp = r.Handle(ctx, other.ID, executor.CmdStat, map[string]interface{}{"path": "/only-here.txt"})
	require.False(t, resp.OK)
	assert.Equal(t, wire.CodeNotFound, resp.Error.Code)
}

func TestFactoryFailureSurfaces(t *testing.T) {
	r := relay.New(func(string) (store.Store, error) {
		return nil, errors.New("no backing storage")
	}, nil)
	defer r.Close()

	_, err := r.CreateTarget()
	assert.Error(t, err)
	assert.Empty(t, r.Targets())
}
