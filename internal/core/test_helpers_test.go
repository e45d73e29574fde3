package core

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/framechat/internal/frame"
	"github.com/vovakirdan/framechat/internal/proto"
)

const stamp = "09:30 "

func fixedNow() time.Time {
	return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
}

// harness drives an Engine synchronously and delivers everything queued.
type harness struct {
	t      *testing.T
	reg    *Registry
	queue  *Queue
	engine *Engine
	closed map[ConnID]int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg := NewRegistry()
	queue := &Queue{}
	return &harness{
		t:      t,
		reg:    reg,
		queue:  queue,
		engine: NewEngine(reg, queue, frame.Default, fixedNow, nil),
		closed: make(map[ConnID]int),
	}
}

// connect accepts ids in order and discards the join notices.
func (h *harness) connect(ids ...ConnID) {
	h.t.Helper()
	for _, id := range ids {
		h.engine.Accept(id, "test:"+string(id), func() { h.closed[id]++ })
		h.engine.EnsureManager()
	}
	h.deliver()
}

// join connects id, binds name with a first chat and discards the traffic.
func (h *harness) join(id ConnID, name string) {
	h.t.Helper()
	h.connect(id)
	h.do(id, proto.Request{Kind: proto.KindChat, Sender: name, Text: "hi"})
	h.deliver()
}

func (h *harness) do(id ConnID, req proto.Request) {
	h.t.Helper()
	payload, err := req.Encode()
	if err != nil {
		h.t.Fatalf("encode %+v: %v", req, err)
	}
	h.raw(id, string(payload))
}

func (h *harness) raw(id ConnID, payload string) {
	h.engine.Handle(id, []byte(payload))
	h.engine.EnsureManager()
}

// deliver drains the queue, evicting remove-after-delivery recipients the
// way the hub does, and returns each recipient's lines without timestamps.
func (h *harness) deliver() map[ConnID][]string {
	h.t.Helper()
	s := &recordingSender{t: h.t, engine: h.engine, got: make(map[ConnID][]string)}
	for h.queue.Len() > 0 {
		h.queue.Drain(s)
		h.engine.EnsureManager()
	}
	return s.got
}

type recordingSender struct {
	t      *testing.T
	engine *Engine
	got    map[ConnID][]string
}

func (s *recordingSender) Deliver(id ConnID, payload []byte, removeAfter bool) DeliveryStatus {
	if _, ok := s.engine.reg.Get(id); !ok {
		return Gone
	}
	line, err := frame.Default.Decode(bytes.NewReader(payload))
	if err != nil {
		s.t.Fatalf("queued payload is not a frame: %v", err)
	}
	if !strings.HasPrefix(string(line), stamp) {
		s.t.Fatalf("notice %q lacks timestamp", line)
	}
	s.got[id] = append(s.got[id], strings.TrimPrefix(string(line), stamp))
	if removeAfter {
		s.engine.Evict(id)
	}
	return Delivered
}

func assertLines(t *testing.T, got map[ConnID][]string, id ConnID, want ...string) {
	t.Helper()
	lines := got[id]
	if len(lines) != len(want) {
		t.Fatalf("%s received %d lines %q, want %q", id, len(lines), lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("%s line %d = %q, want %q", id, i, lines[i], want[i])
		}
	}
}

// readLine reads one frame from conn and strips the timestamp.
func readLine(t *testing.T, conn net.Conn) string {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	payload, err := frame.Default.Decode(conn)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	line := string(payload)
	if len(line) < len(stamp) {
		t.Fatalf("short notice %q", line)
	}
	return line[len(stamp):]
}
