package core

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/framechat/internal/proto"
)

const (
	noticeJoined         = "Someone joined the chat"
	noticeSomeoneLeft    = "Someone left the chat"
	noticePromotedYou    = "You've been appointed as a manager now!"
	noticeNoManagers     = "No managers yet"
	noticeManagersHeader = "The manager/s of the chat is/are:"
	noticeSilenced       = "You cannot speak here!"
	noticeNotManager     = "You're not allowed to use this command because you're not a manager."
	noticeSelfTarget     = "You cannot use this command on yourself."
	noticeInvalidCommand = "Invalid command. Make sure everything is spelled correctly and there are spaces in the right places."
	timestampLayout      = "15:04"
	selfName             = "You"
	privateMessagePrefix = "!"
	managerListSeparator = "\n"
)

// maxNoticeLength is the largest notice with a bounded shape: the private
// message confirmation naming a manager, with the text at its limit.
const maxNoticeLength = len(timestampLayout) + 1 + len("You (private message to ") +
	len(proto.ManagerMarker) + proto.MaxNameLength + len("): ") + proto.MaxMessageLength

// MinFrameBytes is the smallest frame limit under which every request and
// every reply still fits in one frame.
const MinFrameBytes = max(proto.MaxRequestLength, maxNoticeLength)

// displayName renders a user's name, prefixed with the manager marker
// when they hold the role.
func displayName(u *User) string {
	if u.IsManager() {
		return proto.ManagerMarker + u.Name
	}
	return u.Name
}

func unknownTarget(name string) string {
	return "Invalid user name. No user with name '" + name + "' in the chat."
}

func nameTaken(name string) string {
	return "The name '" + name + "' is already taken. Reconnect with a different name."
}

func invalidName(name string, err error) string {
	return "The name '" + name + "' cannot be used: " + err.Error() + "."
}

// managerList renders the manager names in appointment order, cut short
// with a count of the omitted names once limit bytes would be exceeded.
func managerList(names []string, self string, limit int) string {
	var b strings.Builder
	b.WriteString(noticeManagersHeader)
	for i, name := range names {
		entry := proto.ManagerMarker + name
		if name == self {
			entry = proto.ManagerMarker + selfName
		}
		need := len(managerListSeparator) + len(entry)
		if rest := len(names) - i - 1; rest > 0 {
			need += len(omitted(rest))
		}
		if b.Len()+need > limit {
			b.WriteString(omitted(len(names) - i))
			break
		}
		b.WriteString(managerListSeparator)
		b.WriteString(entry)
	}
	return b.String()
}

func omitted(n int) string {
	return fmt.Sprintf("%s(%d more)", managerListSeparator, n)
}
