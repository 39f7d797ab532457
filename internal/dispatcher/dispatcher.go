// Package dispatcher is the control-surface client of the bridge. It turns
// a Call into one wire request, parks the caller on a correlation channel
// keyed by requestId, and resolves it when the matching response arrives.
// Responses may come back in any order.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/opfskit/bridge/internal/shared/id"
	"github.com/opfskit/bridge/internal/wire"
)

// ErrNoTransport is returned by Call when no channel to the relay exists.
// Calls fail fast instead of queueing against a link that may never come up.
var ErrNoTransport = errors.New("no transport attached")

// ErrNoTarget is returned by Call when the target ID is empty.
var ErrNoTarget = errors.New("no target configured")

// Transport is one message channel to the relay. Implementations must be
// safe for concurrent Send.
type Transport interface {
	Send(data []byte) error
	Close() error
}

// Dispatcher correlates in-flight calls with their responses.
type Dispatcher struct {
	log *zap.Logger

	mu        sync.Mutex
	transport Transport
	pending   map[string]chan *wire.Response
}

// New creates a dispatcher with no transport attached.
func New(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		log:     log,
		pending: make(map[string]chan *wire.Response),
	}
}

// Attach sets the transport used by subsequent calls.
func (d *Dispatcher) Attach(t Transport) {
	d.mu.Lock()
	d.transport = t
	d.mu.Unlock()
}

// Detach drops the transport and fails every in-flight call. The read loop
// calls this when the connection dies.
func (d *Dispatcher) Detach(cause error) {
	d.mu.Lock()
	d.transport = nil
	pending := d.pending
	d.pending = make(map[string]chan *wire.Response)
	d.mu.Unlock()

	if len(pending) > 0 {
		d.log.Warn("failing in-flight calls", zap.Int("count", len(pending)), zap.Error(cause))
	}
	for _, ch := range pending {
		close(ch)
	}
}

// Call executes one command on a target and returns its data. Failures come
// back as *wire.Error so callers can branch on the taxonomy code; transport
// and context failures are plain errors. The context stops the wait only;
// the remote operation, once sent, runs to completion either way.
func (d *Dispatcher) Call(ctx context.Context, targetID, command string, params map[string]interface{}) (interface{}, error) {
	if targetID == "" {
		return nil, ErrNoTarget
	}
	rid := id.NewRequestID().String()
	ch := make(chan *wire.Response, 1)

	d.mu.Lock()
	tp := d.transport
	if tp == nil {
		d.mu.Unlock()
		return nil, ErrNoTransport
	}
	d.pending[rid] = ch
	d.mu.Unlock()
	defer d.forget(rid)

	req := wire.Request{
		Type:      wire.TypeRequest,
		TargetID:  targetID,
		Command:   command,
		Params:    params,
		RequestID: rid,
	}
	data, err := wire.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if err := tp.Send(data); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, wire.NewError(wire.CodeExecutionError, "connection lost while waiting for response")
		}
		if resp == nil {
			return nil, wire.NewError(wire.CodeNoResult, "response carried neither data nor error")
		}
		if resp.OK {
			return resp.Data, nil
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return nil, wire.NewError(wire.CodeNoResult, "response carried neither data nor error")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HandleMessage feeds one inbound frame from the transport. Frames that are
// not responses, or that correlate to nothing, are dropped.
func (d *Dispatcher) HandleMessage(data []byte) {
	var env wire.Envelope
	if err := wire.Unmarshal(data, &env); err != nil {
		d.log.Warn("malformed frame", zap.Error(err))
		return
	}
	if env.Type != wire.TypeResponse {
		return
	}

	d.mu.Lock()
	ch, ok := d.pending[env.RequestID]
	if ok {
		delete(d.pending, env.RequestID)
	}
	d.mu.Unlock()

	if !ok {
		// Late or unsolicited; the caller already gave up.
		d.log.Debug("dropping uncorrelated response", zap.String("request_id", env.RequestID))
		return
	}
	ch <- env.Response
}

func (d *Dispatcher) forget(rid string) {
	d.mu.Lock()
	delete(d.pending, rid)
	d.mu.Unlock()
}
