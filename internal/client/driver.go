// Package client drives one chat connection from a stream of typed lines.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vovakirdan/framechat/internal/frame"
	"github.com/vovakirdan/framechat/internal/proto"
)

const (
	timestampLayout = "15:04"
	noticeInvalid   = "Invalid command. Make sure everything is spelled correctly and there are spaces in the right places."
	noticeLeft      = "You left the chat"
	noticeClosed    = "The server closed the connection."
)

// Display renders complete human-readable lines for the user.
type Display interface {
	Render(line string)
}

// Driver turns typed lines into requests and renders server notices. At
// most one request is in flight: the next line is sent only after some
// frame has arrived since the previous send.
type Driver struct {
	conn    io.ReadWriteCloser
	name    string
	codec   frame.Codec
	display Display
	now     func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithCodec overrides the frame codec.
func WithCodec(c frame.Codec) Option {
	return func(d *Driver) { d.codec = c }
}

// WithClock overrides the clock used for local notices.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// NewDriver builds a driver that speaks for name over conn.
func NewDriver(conn io.ReadWriteCloser, name string, display Display, opts ...Option) *Driver {
	d := &Driver{
		conn:    conn,
		name:    name,
		codec:   frame.Default,
		display: display,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type inbound struct {
	payload []byte
	err     error
}

// Run processes lines until the user quits, the server closes the
// connection or ctx is cancelled. A closed lines channel counts as quit.
// The connection is closed on return.
func (d *Driver) Run(ctx context.Context, lines <-chan string) error {
	defer d.conn.Close()

	frames := make(chan inbound, 1)
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	go d.readLoop(readCtx, frames)

	var pending []string
	gateOpen := true

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case in := <-frames:
			if in.err != nil {
				if errors.Is(in.err, io.EOF) {
					d.display.Render(noticeClosed)
					return nil
				}
				return fmt.Errorf("read frame: %w", in.err)
			}
			d.display.Render(string(in.payload))
			gateOpen = true

		case line, ok := <-lines:
			if !ok {
				lines = nil
				pending = append(pending, proto.LiteralQuit)
				break
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			pending = append(pending, line)
		}

		for gateOpen && len(pending) > 0 {
			line := pending[0]
			pending = pending[1:]

			req, err := proto.ParseLine(d.name, line)
			if err != nil {
				d.display.Render(noticeInvalid)
				continue
			}
			payload, err := req.Encode()
			if err != nil {
				d.display.Render(noticeInvalid)
				continue
			}
			if err := d.codec.Write(d.conn, payload); err != nil {
				return fmt.Errorf("send %s: %w", req.Kind, err)
			}
			if req.Kind == proto.KindQuit {
				d.display.Render(d.now().Format(timestampLayout) + " " + noticeLeft)
				return nil
			}
			gateOpen = false
		}
	}
}

func (d *Driver) readLoop(ctx context.Context, out chan<- inbound) {
	for {
		payload, err := d.codec.Decode(d.conn)
		select {
		case out <- inbound{payload: payload, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
