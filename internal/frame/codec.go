// Package frame implements the length-prefixed wire unit shared by the
// server and the client: a fixed-width decimal ASCII length followed by
// exactly that many payload bytes.
package frame

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	// LengthDigits is the width of the length field. Changing it breaks the protocol.
	LengthDigits = 6
	// MaxPayload is the largest payload the length field is allowed to announce.
	MaxPayload = 100000
	// maxRepresentable is the largest value LengthDigits digits can hold.
	maxRepresentable = 999999
)

// FramingError reports a malformed length field or a truncated frame.
// It is fatal to the connection that produced it.
type FramingError struct {
	Reason string
	Err    error
}

func (e *FramingError) Error() string {
	if e.Err != nil {
		return "framing: " + e.Reason + ": " + e.Err.Error()
	}
	return "framing: " + e.Reason
}

func (e *FramingError) Unwrap() error { return e.Err }

// IsFramingError reports whether err is or wraps a *FramingError.
func IsFramingError(err error) bool {
	var fe *FramingError
	return errors.As(err, &fe)
}

// Codec encodes and decodes frames with a configured payload limit.
type Codec struct {
	max int
}

// NewCodec returns a codec that refuses payloads above maxPayload.
// Non-positive or unrepresentable limits fall back to MaxPayload.
func NewCodec(maxPayload int) Codec {
	if maxPayload <= 0 || maxPayload > maxRepresentable {
		maxPayload = MaxPayload
	}
	return Codec{max: maxPayload}
}

// Default is the codec with the protocol's standard limit.
var Default = NewCodec(MaxPayload)

// Max returns the payload limit.
func (c Codec) Max() int {
	if c.max == 0 {
		return MaxPayload
	}
	return c.max
}

// Encode prefixes payload with its zero-padded length.
func (c Codec) Encode(payload []byte) ([]byte, error) {
	if len(payload) > c.Max() {
		return nil, &FramingError{Reason: fmt.Sprintf("payload length %d exceeds maximum %d", len(payload), c.Max())}
	}
	out := make([]byte, 0, LengthDigits+len(payload))
	out = fmt.Appendf(out, "%0*d", LengthDigits, len(payload))
	return append(out, payload...), nil
}

// Decode reads one complete frame from r. A stream that ends cleanly
// between frames yields io.EOF; anything else that goes wrong is a
// *FramingError unless the underlying reader failed for its own reasons.
func (c Codec) Decode(r io.Reader) ([]byte, error) {
	var header [LengthDigits]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &FramingError{Reason: "truncated length field", Err: err}
		}
		return nil, err
	}

	length, err := parseLength(header[:])
	if err != nil {
		return nil, err
	}
	if length > c.Max() {
		return nil, &FramingError{Reason: fmt.Sprintf("declared length %d exceeds maximum %d", length, c.Max())}
	}

	payload := make([]byte, length)
	if length == 0 {
		return payload, nil
	}
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &FramingError{Reason: fmt.Sprintf("truncated payload, want %d bytes", length), Err: io.ErrUnexpectedEOF}
		}
		return nil, err
	}
	return payload, nil
}

// Write encodes payload and writes the frame to w in one call.
func (c Codec) Write(w io.Writer, payload []byte) error {
	buf, err := c.Encode(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func parseLength(field []byte) (int, error) {
	for _, b := range field {
		if b < '0' || b > '9' {
			return 0, &FramingError{Reason: fmt.Sprintf("non-numeric length field %q", field)}
		}
	}
	n, err := strconv.Atoi(string(field))
	if err != nil {
		return 0, &FramingError{Reason: "length field", Err: err}
	}
	return n, nil
}
