package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// WSTransport is a websocket channel to the relay's /rpc endpoint.
type WSTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// DialWS connects to the relay, attaches the transport to the dispatcher,
// and starts the read loop. When the connection dies the dispatcher is
// detached and every in-flight call fails.
func DialWS(ctx context.Context, url string, d *Dispatcher) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}
	t := &WSTransport{conn: conn}
	d.Attach(t)
	go t.readLoop(d)
	return t, nil
}

func (t *WSTransport) readLoop(d *Dispatcher) {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			d.Detach(err)
			return
		}
		d.HandleMessage(data)
	}
}

// Send writes one frame. Safe for concurrent callers.
func (t *WSTransport) Send(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Close tears down the connection; the read loop then detaches the
// dispatcher.
func (t *WSTransport) Close() error {
	return t.conn.Close()
}
