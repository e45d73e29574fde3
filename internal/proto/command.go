// Package proto maps chat commands to and from the payload carried inside
// one frame. Coded commands are a run of fixed-width length-prefixed fields;
// quit and view-managers travel as bare literals.
package proto

import (
	"fmt"
	"strconv"
)

const (
	// NameLengthDigits is the width of the length prefix of a name field.
	NameLengthDigits = 2
	// MaxNameLength is the longest name NameLengthDigits can announce.
	MaxNameLength = 99
	// MessageLengthDigits is the width of the length prefix of a message field.
	MessageLengthDigits = 4
	// MaxMessageLength is the longest text MessageLengthDigits can announce.
	MaxMessageLength = 9999

	// ManagerMarker precedes a manager's name wherever it is rendered.
	ManagerMarker = "@"

	// LiteralQuit and LiteralViewManagers are sent verbatim as the whole payload.
	LiteralQuit         = "quit"
	LiteralViewManagers = "view-managers"
)

// MaxRequestLength is the largest payload a valid request can have: a
// private message with both names and the text at their limits.
const MaxRequestLength = 2*(NameLengthDigits+MaxNameLength) + 1 + MessageLengthDigits + MaxMessageLength

// Code is the single digit that identifies a coded command on the wire.
type Code byte

const (
	CodeChat    Code = '1'
	CodeAppoint Code = '2'
	CodeRemove  Code = '3'
	CodeSilence Code = '4'
	CodePrivate Code = '5'
)

// Kind enumerates every command a client can issue.
type Kind int

const (
	KindChat Kind = iota + 1
	KindAppointManager
	KindRemove
	KindSilence
	KindPrivate
	KindQuit
	KindViewManagers
)

var kindNames = map[Kind]string{
	KindChat:           "chat",
	KindAppointManager: "appoint-manager",
	KindRemove:         "remove",
	KindSilence:        "silence",
	KindPrivate:        "private",
	KindQuit:           LiteralQuit,
	KindViewManagers:   LiteralViewManagers,
}

// String returns the keyword a user types for the command.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(k)) + ")"
}

// HasTarget reports whether the command names a second user.
func (k Kind) HasTarget() bool {
	switch k {
	case KindAppointManager, KindRemove, KindSilence, KindPrivate:
		return true
	}
	return false
}

// HasText reports whether the command carries a message field.
func (k Kind) HasText() bool {
	return k == KindChat || k == KindPrivate
}

func (k Kind) code() (Code, bool) {
	switch k {
	case KindChat:
		return CodeChat, true
	case KindAppointManager:
		return CodeAppoint, true
	case KindRemove:
		return CodeRemove, true
	case KindSilence:
		return CodeSilence, true
	case KindPrivate:
		return CodePrivate, true
	}
	return 0, false
}

func kindForCode(c Code) (Kind, bool) {
	switch c {
	case CodeChat:
		return KindChat, true
	case CodeAppoint:
		return KindAppointManager, true
	case CodeRemove:
		return KindRemove, true
	case CodeSilence:
		return KindSilence, true
	case CodePrivate:
		return KindPrivate, true
	}
	return 0, false
}

// Request is a decoded client command.
type Request struct {
	Kind   Kind
	Sender string
	Target string
	Text   string
}

// ProtocolError describes a payload or command line that does not form a
// valid command. It is recoverable: the connection stays open.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "invalid command: " + e.Reason
}

func protocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// Encode serializes the request into a frame payload.
func (r Request) Encode() ([]byte, error) {
	switch r.Kind {
	case KindQuit:
		return []byte(LiteralQuit), nil
	case KindViewManagers:
		return []byte(LiteralViewManagers), nil
	}

	code, ok := r.Kind.code()
	if !ok {
		return nil, protocolError("unknown command kind %d", int(r.Kind))
	}

	buf := make([]byte, 0, 2*NameLengthDigits+len(r.Sender)+len(r.Target)+1+MessageLengthDigits+len(r.Text))
	var err error
	if buf, err = appendField(buf, r.Sender, NameLengthDigits, MaxNameLength); err != nil {
		return nil, err
	}
	buf = append(buf, byte(code))
	if r.Kind.HasTarget() {
		if buf, err = appendField(buf, r.Target, NameLengthDigits, MaxNameLength); err != nil {
			return nil, err
		}
	}
	if r.Kind.HasText() {
		if buf, err = appendField(buf, r.Text, MessageLengthDigits, MaxMessageLength); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendField(buf []byte, value string, digits, limit int) ([]byte, error) {
	if len(value) > limit {
		return nil, protocolError("field of %d bytes exceeds limit %d", len(value), limit)
	}
	buf = fmt.Appendf(buf, "%0*d", digits, len(value))
	return append(buf, value...), nil
}

// Decode parses a frame payload into a request.
func Decode(payload []byte) (Request, error) {
	switch string(payload) {
	case LiteralQuit:
		return Request{Kind: KindQuit}, nil
	case LiteralViewManagers:
		return Request{Kind: KindViewManagers}, nil
	}

	d := decoder{buf: payload}
	sender, err := d.field(NameLengthDigits)
	if err != nil {
		return Request{}, err
	}
	if d.remaining() < 1 {
		return Request{}, protocolError("missing command code")
	}
	kind, ok := kindForCode(Code(d.buf[d.pos]))
	if !ok {
		return Request{}, protocolError("unknown command code %q", d.buf[d.pos])
	}
	d.pos++

	req := Request{Kind: kind, Sender: sender}
	if kind.HasTarget() {
		if req.Target, err = d.field(NameLengthDigits); err != nil {
			return Request{}, err
		}
	}
	if kind.HasText() {
		if req.Text, err = d.field(MessageLengthDigits); err != nil {
			return Request{}, err
		}
	}
	if d.remaining() != 0 {
		return Request{}, protocolError("%d trailing bytes after %s", d.remaining(), kind)
	}
	return req, nil
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) remaining() int { return len(d.buf) - d.pos }

func (d *decoder) field(digits int) (string, error) {
	if d.remaining() < digits {
		return "", protocolError("truncated length prefix")
	}
	prefix := d.buf[d.pos : d.pos+digits]
	n := 0
	for _, b := range prefix {
		if b < '0' || b > '9' {
			return "", protocolError("non-numeric length prefix %q", prefix)
		}
		n = n*10 + int(b-'0')
	}
	d.pos += digits
	if d.remaining() < n {
		return "", protocolError("field declares %d bytes, %d available", n, d.remaining())
	}
	value := string(d.buf[d.pos : d.pos+n])
	d.pos += n
	return value, nil
}
