package relay_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opfskit/bridge/internal/executor"
	"github.com/opfskit/bridge/internal/infrastructure/config"
	"github.com/opfskit/bridge/internal/relay"
	"github.com/opfskit/bridge/internal/wire"
)

// One server for the whole test: prometheus collectors register against the
// default registry, so a second NewServer in the same process would panic
// on duplicate registration.
func TestServerEndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.RateLimit.Enabled = false

	srv, err := relay.NewServer(cfg)
	require.NoError(t, err)
	defer srv.Close()

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	// Health
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Create a target
	resp, err = http.Post(ts.URL+"/targets", "application/json", nil)
	require.NoError(t, err)
	var info relay.TargetInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, strings.HasPrefix(info.ID, "tgt_"))

	// List targets
	resp, err = http.Get(ts.URL + "/targets")
	require.NoError(t, err)
	var listing struct {
		Targets []relay.TargetInfo `json:"targets"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	resp.Body.Close()
	require.Len(t, listing.Targets, 1)
	assert.Equal(t, info.ID, listing.Targets[0].ID)

	// RPC over websocket
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/rpc"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	send := func(requestID, command string, params map[string]interface{}) {
		req := wire.Request{
			Type:      wire.TypeRequest,
			TargetID:  info.ID,
			Command:   command,
			Params:    params,
			RequestID: requestID,
		}
		data, err := wire.Marshal(req)
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
	}

	recv := func() wire.Envelope {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var env wire.Envelope
		require.NoError(t, wire.Unmarshal(data, &env))
		return env
	}

	send("req_1", executor.CmdWriteText, map[string]interface{}{"path": "/a.txt", "text": "hi"})
	env := recv()
	assert.Equal(t, wire.TypeResponse, env.Type)
	assert.Equal(t, "req_1", env.RequestID)
	require.NotNil(t, env.Response)
	assert.True(t, env.Response.OK)

	send("req_2", executor.CmdReadText, map[string]interface{}{"path": "/a.txt"})
	env = recv()
	assert.Equal(t, "req_2", env.RequestID)
	require.True(t, env.Response.OK)
	data := env.Response.Data.(map[string]interface{})
	assert.Equal(t, "hi", data["text"])

	// A failing command still correlates by requestId.
	send("req_3", executor.CmdReadText, map[string]interface{}{"path": "/missing"})
	env = recv()
	assert.Equal(t, "req_3", env.RequestID)
	require.False(t, env.Response.OK)
	assert.Equal(t, wire.CodeNotFound, env.Response.Error.Code)

	// Malformed frames are dropped without killing the session.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	send("req_4", executor.CmdIsAvailable, nil)
	env = recv()
	assert.Equal(t, "req_4", env.RequestID)
	assert.True(t, env.Response.OK)

	// Delete the target
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/targets/"+info.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Deleting again is a 404.
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
