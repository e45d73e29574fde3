package core

import "io"

// eventKind is something a transport or writer reports to the hub.
type eventKind int

const (
	// eventAccept registers a newly accepted connection.
	eventAccept eventKind = iota
	// eventFrame carries one complete frame payload read from a connection.
	eventFrame
	// eventClose reports that a connection's read side ended.
	eventClose
	// eventWritten reports that a writer finished its in-flight payload.
	eventWritten
	// eventRoster asks for a snapshot of the room.
	eventRoster
)

// event travels on the hub's single ordered channel so that events from
// one connection are handled in the order they happened.
type event struct {
	kind    eventKind
	id      ConnID
	addr    string
	writer  io.WriteCloser
	payload []byte
	err     error
	roster  chan Roster
}

// Roster is a point-in-time view of the room.
type Roster struct {
	Members  []Member `json:"members"`
	Managers []string `json:"managers"`
}
