package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/coder/websocket"
)

// Dial opens the byte stream to the server. With ws set, addr is a
// WebSocket URL (or host:port, which is expanded to ws://host:port/ws) and
// frames travel inside binary messages.
func Dial(ctx context.Context, addr string, ws bool) (io.ReadWriteCloser, error) {
	if !ws {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial tcp %s: %w", addr, err)
		}
		return conn, nil
	}

	url := addr
	if !strings.Contains(url, "://") {
		url = "ws://" + addr + "/ws"
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", url, err)
	}
	// The stream outlives the dial context.
	return websocket.NetConn(context.Background(), conn, websocket.MessageBinary), nil
}
