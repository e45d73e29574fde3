package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/framechat/internal/frame"
	"github.com/vovakirdan/framechat/internal/utils"
)

const (
	eventBuffer = 64
	// maxBatch bounds how many ready events one wake-up handles before the
	// outbound queue is drained.
	maxBatch = 64
)

// Hub coordinates the chat room. Transports register connections, submit
// the frames they read and report when the read side ends; the hub owns
// every piece of room state on a single goroutine.
type Hub interface {
	Run(ctx context.Context)
	RegisterConn(w io.WriteCloser, addr string) ConnID
	Submit(id ConnID, payload []byte)
	UnregisterConn(id ConnID, err error)
	Roster(ctx context.Context) (Roster, error)
}

// ErrHubStopped is returned by queries issued after the hub has stopped.
var ErrHubStopped = errors.New("hub stopped")

// Option customizes a hub.
type Option func(*hub)

// WithClock replaces the clock used for notice timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *hub) { h.now = now }
}

// WithIDGenerator replaces the connection ID source.
func WithIDGenerator(next func() ConnID) Option {
	return func(h *hub) { h.newID = next }
}

type hub struct {
	events chan event
	done   chan struct{}

	reg    *Registry
	queue  *Queue
	engine *Engine
	peers  map[ConnID]*peer

	now   func() time.Time
	newID func() ConnID
	log   *zerolog.Logger
}

// NewHub creates a hub that frames notices with codec.
func NewHub(codec frame.Codec, logger *zerolog.Logger, opts ...Option) Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	h := &hub{
		events: make(chan event, eventBuffer),
		done:   make(chan struct{}),
		reg:    NewRegistry(),
		queue:  &Queue{},
		peers:  make(map[ConnID]*peer),
		now:    time.Now,
		newID:  func() ConnID { return ConnID(utils.NewID()) },
		log:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.engine = NewEngine(h.reg, h.queue, codec, h.now, logger)
	return h
}

// Run processes events until ctx is cancelled.
func (h *hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			h.process(ev)
		batch:
			for n := 1; n < maxBatch; n++ {
				select {
				case ev := <-h.events:
					h.process(ev)
				default:
					break batch
				}
			}
		}
		h.flush()
	}
}

func (h *hub) process(ev event) {
	switch ev.kind {
	case eventAccept:
		p := newPeer(ev.id, ev.writer)
		h.peers[ev.id] = p
		go h.writeLoop(p)
		h.engine.Accept(ev.id, ev.addr, func() { h.dropPeer(ev.id) })
	case eventFrame:
		h.engine.Handle(ev.id, ev.payload)
	case eventClose:
		if ev.err != nil && frame.IsFramingError(ev.err) {
			h.log.Warn().Err(ev.err).Str("conn_id", string(ev.id)).Msg("malformed frame, dropping connection")
		}
		h.engine.Disconnect(ev.id)
	case eventWritten:
		if p, ok := h.peers[ev.id]; ok {
			p.busy = false
		}
		if ev.err != nil {
			h.log.Debug().Err(ev.err).Str("conn_id", string(ev.id)).Msg("send failed, recipient presumed gone")
		}
	case eventRoster:
		ev.roster <- Roster{Members: h.reg.Members(), Managers: h.reg.Managers()}
	}
	h.engine.EnsureManager()
}

// flush drains the outbound queue. Evictions during a drain can empty the
// manager set, so promotion is re-checked and its notices drained too.
func (h *hub) flush() {
	for {
		h.queue.Drain(h)
		if !h.engine.EnsureManager() {
			return
		}
	}
}

// Deliver implements Sender. A connection is writable while its writer has
// nothing in flight.
func (h *hub) Deliver(id ConnID, payload []byte, removeAfter bool) DeliveryStatus {
	p, ok := h.peers[id]
	if !ok || p.closed {
		return Gone
	}
	if p.busy {
		return Busy
	}
	p.busy = true
	p.outbox <- payload
	if removeAfter {
		h.engine.Evict(id)
	}
	return Delivered
}

func (h *hub) dropPeer(id ConnID) {
	if p, ok := h.peers[id]; ok {
		p.close()
		delete(h.peers, id)
	}
}

func (h *hub) writeLoop(p *peer) {
	for payload := range p.outbox {
		_, err := p.w.Write(payload)
		h.post(event{kind: eventWritten, id: p.id, err: err})
	}
	if err := p.w.Close(); err != nil {
		h.log.Debug().Err(err).Str("conn_id", string(p.id)).Msg("close transport")
	}
}

func (h *hub) shutdown() {
	close(h.done)
	for id, p := range h.peers {
		p.close()
		_ = p.w.Close()
		delete(h.peers, id)
	}
	h.log.Info().Int("pending_messages", h.queue.Len()).Msg("hub stopped")
}

func (h *hub) post(ev event) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// RegisterConn issues an ID for a new connection whose outbound bytes go to w.
func (h *hub) RegisterConn(w io.WriteCloser, addr string) ConnID {
	id := h.newID()
	if !h.post(event{kind: eventAccept, id: id, addr: addr, writer: w}) {
		_ = w.Close()
	}
	return id
}

// Submit hands a complete frame payload read from id to the hub.
func (h *hub) Submit(id ConnID, payload []byte) {
	h.post(event{kind: eventFrame, id: id, payload: payload})
}

// UnregisterConn reports that id's read side ended with err (nil or io.EOF
// for a clean close).
func (h *hub) UnregisterConn(id ConnID, err error) {
	h.post(event{kind: eventClose, id: id, err: err})
}

// Roster returns a snapshot of the room taken on the hub goroutine.
func (h *hub) Roster(ctx context.Context) (Roster, error) {
	reply := make(chan Roster, 1)
	if !h.post(event{kind: eventRoster, roster: reply}) {
		return Roster{}, ErrHubStopped
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return Roster{}, ctx.Err()
	case <-h.done:
		return Roster{}, ErrHubStopped
	}
}

// peer is the hub's side of one connection's writer goroutine.
type peer struct {
	id     ConnID
	w      io.WriteCloser
	outbox chan []byte
	busy   bool
	closed bool
}

func newPeer(id ConnID, w io.WriteCloser) *peer {
	return &peer{id: id, w: w, outbox: make(chan []byte, 1)}
}

func (p *peer) close() {
	if !p.closed {
		p.closed = true
		close(p.outbox)
	}
}
