// Package executor implements the command engine that runs at the far end
// of the bridge, inside a target's context. It owns the mapping from a
// command name plus parameters to a primitive or composite storage
// operation, and it owns error normalization: no failure escapes Execute
// as anything but a tagged taxonomy error.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/opfskit/bridge/internal/store"
	"github.com/opfskit/bridge/internal/wire"
)

// Version identifies the current build of the command engine. It must be
// bumped whenever the command set or any handler's behavior changes, to
// force re-injection into already-instrumented targets.
const Version = "opfs-exec/3"

// Command names. The vocabulary is closed: anything else yields
// UNKNOWN_COMMAND.
const (
	CmdIsAvailable = "opfs.isAvailable"
	CmdEstimate    = "opfs.estimate"
	CmdList        = "fs.list"
	CmdStat        = "fs.stat"
	CmdReadText    = "fs.readText"
	CmdWriteText   = "fs.writeText"
	CmdReadBase64  = "fs.readBase64"
	CmdWriteBase64 = "fs.writeBase64"
	CmdMkdir       = "fs.mkdir"
	CmdCreateFile  = "fs.createFile"
	CmdDelete      = "fs.delete"
	CmdCopy        = "fs.copy"
	CmdMove        = "fs.move"
)

// Read caps: the returned payload never exceeds the cap even when the file
// is larger; truncation is reported instead.
const (
	DefaultTextCap   = 2 << 20  // 2 MiB
	DefaultBase64Cap = 10 << 20 // 10 MiB
)

// Executor dispatches commands against one backing store.
type Executor struct {
	store store.Store
	log   *zap.Logger
}

// New creates an executor over the given store.
func New(st store.Store, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{store: st, log: log}
}

// Execute runs one command. Every handler failure is caught here and
// converted to a tagged error response; Execute never panics a fault
// upward and never returns a Go error.
func (e *Executor) Execute(ctx context.Context, command string, params map[string]interface{}) (resp *wire.Response) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("command panicked",
				zap.String("command", command),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			resp = wire.Fail(wire.NewError(wire.CodeUnknownError, fmt.Sprintf("internal fault: %v", r)))
		}
	}()

	handler, ok := e.handlers()[command]
	if !ok {
		return wire.Fail(wire.Errorf(wire.CodeUnknownCommand, "unknown command: %s", command))
	}

	data, err := handler(ctx, params)
	if err != nil {
		werr := normalize(err)
		e.log.Debug("command failed",
			zap.String("command", command),
			zap.String("code", string(werr.Code)),
			zap.String("message", werr.Message),
		)
		return wire.Fail(werr)
	}
	return wire.OK(data)
}

type handlerFunc func(ctx context.Context, params map[string]interface{}) (interface{}, error)

func (e *Executor) handlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		CmdIsAvailable: e.isAvailable,
		CmdEstimate:    e.estimate,
		CmdList:        e.list,
		CmdStat:        e.stat,
		CmdReadText:    e.readText,
		CmdWriteText:   e.writeText,
		CmdReadBase64:  e.readBase64,
		CmdWriteBase64: e.writeBase64,
		CmdMkdir:       e.mkdir,
		CmdCreateFile:  e.createFile,
		CmdDelete:      e.delete,
		CmdCopy:        e.copy,
		CmdMove:        e.move,
	}
}

// errorCodes is the finite mapping from native store failures to taxonomy
// codes. Keeping it as one table makes the mapping a single testable unit.
var errorCodes = []struct {
	target error
	code   wire.Code
}{
	{store.ErrNotFound, wire.CodeNotFound},
	{store.ErrNotAllowed, wire.CodeNotAllowed},
	{store.ErrTypeMismatch, wire.CodeTypeMismatch},
	{store.ErrInvalidModification, wire.CodeInvalidModification},
	{store.ErrLocked, wire.CodeLocked},
}

// normalize folds any handler failure onto the closed taxonomy, preserving
// the original message as diagnostic detail.
func normalize(err error) *wire.Error {
	var werr *wire.Error
	if errors.As(err, &werr) {
		return werr
	}
	for _, m := range errorCodes {
		if errors.Is(err, m.target) {
			return wire.NewError(m.code, err.Error())
		}
	}
	return wire.NewError(wire.CodeUnknownError, err.Error()).WithDetails(fmt.Sprintf("%+v", err))
}

// isAvailable probes backing-store support and base accessibility. It never
// fails: an unusable store is reported as available=false with a reason.
func (e *Executor) isAvailable(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	result := map[string]interface{}{"available": false}
	if e.store == nil {
		result["reason"] = "no backing store configured"
		return result, nil
	}
	available, reason := e.store.Available()
	result["available"] = available
	if reason != "" {
		result["reason"] = reason
	}
	return result, nil
}

func (e *Executor) estimate(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	usage, quota, err := e.store.Estimate()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"usage": usage, "quota": quota}, nil
}

// Param helpers. Params arrive from JSON, so numbers are float64 and
// booleans untyped.

func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", wire.Errorf(wire.CodeUnknownError, "%s parameter required", key)
	}
	return v, nil
}

func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return def
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}
