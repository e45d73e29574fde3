package core

import "slices"

// OutboundMessage is a framed payload waiting for one or more recipients.
type OutboundMessage struct {
	Payload             []byte
	Pending             []ConnID
	RemoveAfterDelivery bool
}

// DeliveryStatus is the outcome of one delivery attempt.
type DeliveryStatus int

const (
	// Delivered means the payload was handed to the recipient's transport.
	Delivered DeliveryStatus = iota
	// Busy means the recipient is not writable yet; try again next pass.
	Busy
	// Gone means the recipient no longer exists; the delivery is dropped.
	Gone
)

// Sender hands payloads to recipients during a drain pass.
type Sender interface {
	Deliver(id ConnID, payload []byte, removeAfter bool) DeliveryStatus
}

// Queue is the FIFO of messages that still have pending recipients.
type Queue struct {
	messages []*OutboundMessage
}

// Push appends a message. Messages without recipients are dropped.
func (q *Queue) Push(payload []byte, recipients []ConnID, removeAfter bool) {
	if len(recipients) == 0 {
		return
	}
	q.messages = append(q.messages, &OutboundMessage{
		Payload:             payload,
		Pending:             slices.Clone(recipients),
		RemoveAfterDelivery: removeAfter,
	})
}

// Len returns the number of messages still queued.
func (q *Queue) Len() int { return len(q.messages) }

// Messages returns the queued messages in order. The slice must not be modified.
func (q *Queue) Messages() []*OutboundMessage { return q.messages }

// PendingFor counts queued messages still waiting on id.
func (q *Queue) PendingFor(id ConnID) int {
	n := 0
	for _, m := range q.messages {
		if slices.Contains(m.Pending, id) {
			n++
		}
	}
	return n
}

// Drain makes one delivery pass over the queue in FIFO order and drops
// messages whose recipient list became empty. It reports how many
// deliveries were handed off.
func (q *Queue) Drain(s Sender) int {
	delivered := 0
	kept := q.messages[:0]
	for _, m := range q.messages {
		m.Pending = slices.DeleteFunc(m.Pending, func(id ConnID) bool {
			switch s.Deliver(id, m.Payload, m.RemoveAfterDelivery) {
			case Delivered:
				delivered++
				return true
			case Gone:
				return true
			default:
				return false
			}
		})
		if len(m.Pending) > 0 {
			kept = append(kept, m)
		}
	}
	clear(q.messages[len(kept):])
	q.messages = kept
	return delivered
}
