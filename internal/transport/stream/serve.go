// Package stream binds one bidirectional byte stream to the hub: frames
// read from it are submitted, and the hub's writer owns its write side.
package stream

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/framechat/internal/core"
	"github.com/vovakirdan/framechat/internal/frame"
)

// Serve registers conn with hub and reads frames until the stream ends or
// ctx is cancelled. It returns once the read side is finished.
func Serve(ctx context.Context, hub core.Hub, codec frame.Codec, conn net.Conn, logger *zerolog.Logger) {
	id := hub.RegisterConn(conn, conn.RemoteAddr().String())
	log := logger.With().Str("conn_id", string(id)).Logger()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		payload, err := codec.Decode(conn)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				log.Debug().Msg("stream closed")
			case frame.IsFramingError(err):
				log.Warn().Err(err).Msg("malformed frame")
			default:
				log.Warn().Err(err).Msg("read stream")
			}
			hub.UnregisterConn(id, err)
			return
		}
		hub.Submit(id, payload)
	}
}
