package proto

import (
	"errors"
	"strings"
)

// Name validation errors.
var (
	ErrEmptyName     = errors.New("name has to contain characters")
	ErrNameTooLong   = errors.New("name exceeds 99 characters")
	ErrNameHasSpaces = errors.New("name must not contain spaces")
	ErrNameMarker    = errors.New("name must not start with the manager marker '" + ManagerMarker + "'")
)

// ValidateName checks that name can be carried in a name field and rendered
// without being mistaken for a manager.
func ValidateName(name string) error {
	switch {
	case name == "":
		return ErrEmptyName
	case len(name) > MaxNameLength:
		return ErrNameTooLong
	case strings.ContainsAny(name, " \t\r\n"):
		return ErrNameHasSpaces
	case strings.HasPrefix(name, ManagerMarker):
		return ErrNameMarker
	}
	return nil
}

var keywords = map[string]Kind{
	"chat":              KindChat,
	"appoint-manager":   KindAppointManager,
	"remove":            KindRemove,
	"silence":           KindSilence,
	"private":           KindPrivate,
	LiteralQuit:         KindQuit,
	LiteralViewManagers: KindViewManagers,
}

// ParseLine turns a line typed by sender into a request. The keyword is the
// text up to the first space; chat keeps the rest verbatim, private splits
// the rest into a target and the text.
func ParseLine(sender, line string) (Request, error) {
	keyword, rest, hasRest := strings.Cut(line, " ")
	kind, ok := keywords[keyword]
	if !ok {
		return Request{}, protocolError("unknown command %q", keyword)
	}

	req := Request{Kind: kind, Sender: sender}
	switch kind {
	case KindQuit, KindViewManagers:
		if hasRest && strings.TrimSpace(rest) != "" {
			return Request{}, protocolError("%s takes no arguments", kind)
		}
		return req, nil
	case KindChat:
		if rest == "" {
			return Request{}, protocolError("chat needs a message")
		}
		req.Text = rest
	case KindPrivate:
		target, text, _ := strings.Cut(rest, " ")
		if target == "" || text == "" {
			return Request{}, protocolError("private needs a user name and a message")
		}
		req.Target, req.Text = target, text
	default:
		if rest == "" || strings.Contains(rest, " ") {
			return Request{}, protocolError("%s needs exactly one user name", kind)
		}
		req.Target = rest
	}

	if len(req.Sender) > MaxNameLength || len(req.Target) > MaxNameLength {
		return Request{}, protocolError("name longer than %d characters", MaxNameLength)
	}
	if len(req.Text) > MaxMessageLength {
		return Request{}, protocolError("message longer than %d characters", MaxMessageLength)
	}
	return req, nil
}

// Help is the command summary shown to a user when they join.
const Help = `Welcome to the chat! You can use the following commands:
To send a chat message type: chat <YOUR MESSAGE>
To send a private message to a user type: private <USER NAME> <YOUR MESSAGE>
(A received private message starts with the symbol '!').
To view the list of managers type: view-managers
To leave the chat type: quit
For managers (the '` + ManagerMarker + `' symbol will appear before their name):
To appoint a manager type: appoint-manager <USER NAME>
To remove a user from the chat type: remove <USER NAME>
To silence a user type: silence <USER NAME>`
