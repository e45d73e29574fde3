package proto

import (
	"errors"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Request
	}{
		{"chat hello world", Request{Kind: KindChat, Sender: "me", Text: "hello world"}},
		{"private bob see you at 5", Request{Kind: KindPrivate, Sender: "me", Target: "bob", Text: "see you at 5"}},
		{"appoint-manager bob", Request{Kind: KindAppointManager, Sender: "me", Target: "bob"}},
		{"remove bob", Request{Kind: KindRemove, Sender: "me", Target: "bob"}},
		{"silence bob", Request{Kind: KindSilence, Sender: "me", Target: "bob"}},
		{"view-managers", Request{Kind: KindViewManagers, Sender: "me"}},
		{"quit", Request{Kind: KindQuit, Sender: "me"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine("me", tt.line)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseLineRejectsInvalidCommands(t *testing.T) {
	lines := []string{
		"",
		"shout hello",
		"chat",
		"chat ",
		"private bob",
		"private  hi",
		"remove",
		"remove bob extra",
		"quit now",
		"Chat hello",
		"private " + strings.Repeat("n", MaxNameLength+1) + " hi",
		"chat " + strings.Repeat("x", MaxMessageLength+1),
	}

	for _, line := range lines {
		_, err := ParseLine("me", line)
		var pe *ProtocolError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ProtocolError for %q, got %v", line, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name string
		want error
	}{
		{"alice", nil},
		{"", ErrEmptyName},
		{"al ice", ErrNameHasSpaces},
		{"@alice", ErrNameMarker},
		{strings.Repeat("n", MaxNameLength+1), ErrNameTooLong},
		{strings.Repeat("n", MaxNameLength), nil},
	}

	for _, tt := range tests {
		if got := ValidateName(tt.name); !errors.Is(got, tt.want) {
			t.Fatalf("ValidateName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
