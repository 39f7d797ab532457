package relay

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/opfskit/bridge/internal/wire"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origins are filtered by the CORS layer
	},
}

// handleRPC upgrades the connection and serves the request/response wire
// protocol. Each request runs concurrently; responses are written back in
// completion order and correlated by requestId, never by arrival order.
func (s *Server) handleRPC(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	s.metrics.IncWSConnections()
	defer s.metrics.DecWSConnections()
	s.logger.Info("RPC session opened", zap.String("session", session))

	reqCtx := c.Request.Context()

	// One writer at a time; response goroutines share the connection.
	var writeMu sync.Mutex
	writeEnvelope := func(requestID string, resp *wire.Response) {
		env := wire.Envelope{Type: wire.TypeResponse, RequestID: requestID, Response: resp}
		data, err := wire.Marshal(env)
		if err != nil {
			s.logger.Error("Failed to encode response", zap.Error(err))
			return
		}
		writeMu.Lock()
		err = conn.WriteMessage(websocket.TextMessage, data)
		writeMu.Unlock()
		if err != nil {
			s.logger.Warn("Failed to write response", zap.String("session", session), zap.Error(err))
			return
		}
		s.metrics.RecordWSMessage("out", wire.TypeResponse)
	}

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info("RPC session closed", zap.String("session", session), zap.Error(err))
			return
		}

		var req wire.Request
		if err := wire.Unmarshal(data, &req); err != nil {
			s.logger.Warn("Malformed message", zap.String("session", session), zap.Error(err))
			continue
		}
		if req.Type != wire.TypeRequest {
			continue
		}
		s.metrics.RecordWSMessage("in", req.Type)

		inflight.Add(1)
		go func(req wire.Request) {
			defer inflight.Done()
			resp := s.relay.Handle(reqCtx, req.TargetID, req.Command, req.Params)
			writeEnvelope(req.RequestID, resp)
		}(req)
	}
}
