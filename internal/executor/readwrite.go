package executor

import (
	"context"
	"encoding/base64"

	"github.com/opfskit/bridge/internal/store"
	"github.com/opfskit/bridge/internal/wire"
)

// readCapped returns at most maxBytes bytes of the file's content plus the
// truncation flag. When truncated, exactly the first maxBytes bytes are
// returned, never the full content. Callers guarantee maxBytes > 0.
func readCapped(f store.File, maxBytes int) ([]byte, bool, error) {
	size, err := f.Size()
	if err != nil {
		return nil, false, err
	}
	if size <= int64(maxBytes) {
		data, err := f.ReadAll()
		if err != nil {
			return nil, false, err
		}
		return data, false, nil
	}
	buf := make([]byte, maxBytes)
	n, err := f.ReadAt(buf, 0)
	if err != nil {
		return nil, false, err
	}
	return buf[:n], true, nil
}

func (e *Executor) readText(_ context.Context, params map[string]interface{}) (interface{}, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	maxBytes := intParam(params, "maxBytes", DefaultTextCap)
	if maxBytes <= 0 {
		maxBytes = DefaultTextCap
	}

	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	f, err := resolveFile(root, path, false)
	if err != nil {
		return nil, err
	}
	data, truncated, err := readCapped(f, maxBytes)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"text":      string(data),
		"truncated": truncated,
	}, nil
}

// writeText writes the full text and closes the stream before resolving, so
// callers can rely on the store's durability semantics once this returns.
func (e *Executor) writeText(_ context.Context, params map[string]interface{}) (interface{}, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	text, ok := params["text"].(string)
	if !ok {
		return nil, wire.Errorf(wire.CodeUnknownError, "text parameter required")
	}

	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	f, err := resolveFile(root, path, true)
	if err != nil {
		return nil, err
	}
	if err := f.WriteAll([]byte(text)); err != nil {
		return nil, err
	}
	return nil, nil
}

func (e *Executor) readBase64(_ context.Context, params map[string]interface{}) (interface{}, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	maxBytes := intParam(params, "maxBytes", DefaultBase64Cap)
	if maxBytes <= 0 {
		maxBytes = DefaultBase64Cap
	}

	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	f, err := resolveFile(root, path, false)
	if err != nil {
		return nil, err
	}
	data, truncated, err := readCapped(f, maxBytes)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"base64":    base64.StdEncoding.EncodeToString(data),
		"mimeType":  mimeFor(path, data),
		"truncated": truncated,
	}, nil
}

func (e *Executor) writeBase64(_ context.Context, params map[string]interface{}) (interface{}, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	encoded, ok := params["base64"].(string)
	if !ok {
		return nil, wire.Errorf(wire.CodeUnknownError, "base64 parameter required")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, wire.Errorf(wire.CodeUnknownError, "invalid base64 payload: %v", err)
	}

	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	f, err := resolveFile(root, path, true)
	if err != nil {
		return nil, err
	}
	if err := f.WriteAll(data); err != nil {
		return nil, err
	}
	return nil, nil
}

// mkdir creates all missing intermediate directories plus the final one.
// Creating an existing directory is idempotent; a file in the way fails
// with a type mismatch from the underlying open.
func (e *Executor) mkdir(_ context.Context, params map[string]interface{}) (interface{}, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	if _, err := resolveDirectory(root, path, true); err != nil {
		return nil, err
	}
	return nil, nil
}

// createFile has the same idempotent-creation contract as mkdir, including
// any missing parent directories.
func (e *Executor) createFile(_ context.Context, params map[string]interface{}) (interface{}, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	root, err := e.store.Root()
	if err != nil {
		return nil, err
	}
	if _, err := resolveFile(root, path, true); err != nil {
		return nil, err
	}
	return nil, nil
}
