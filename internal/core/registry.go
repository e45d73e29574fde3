package core

import (
	"slices"
	"time"
)

// Registry is the authoritative set of live connections and their users.
// It is owned by the hub goroutine and is not safe for concurrent use.
type Registry struct {
	sessions map[ConnID]*Session
	order    []ConnID
	names    map[string]ConnID
	managers []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[ConnID]*Session),
		names:    make(map[string]ConnID),
	}
}

// Bind registers a freshly accepted connection with a nameless member.
// closeFn is invoked once when the session is removed.
func (r *Registry) Bind(id ConnID, addr string, acceptedAt time.Time, closeFn func()) *User {
	s := &Session{ID: id, Addr: addr, AcceptedAt: acceptedAt, close: closeFn}
	r.sessions[id] = s
	r.order = append(r.order, id)
	return &s.User
}

// Get returns the session for id.
func (r *Registry) Get(id ConnID) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// SetName binds name to the connection. It only succeeds while the
// connection is still nameless and the name is not held by anyone else.
func (r *Registry) SetName(id ConnID, name string) error {
	s, ok := r.sessions[id]
	if !ok {
		return ErrUnknownConn
	}
	if s.User.Named() {
		return ErrNameBound
	}
	if other, taken := r.names[name]; taken && other != id {
		return ErrNameTaken
	}
	s.User.Name = name
	r.names[name] = id
	return nil
}

// LookupByName resolves a target name on behalf of sender. When sender
// carries the same name, another connection holding it wins; sender is
// returned only when it is the sole holder, so callers must still reject
// self-targeting.
func (r *Registry) LookupByName(sender ConnID, name string) (ConnID, bool) {
	if name == "" {
		return "", false
	}
	if s, ok := r.sessions[sender]; ok && s.User.Name == name {
		for _, id := range r.order {
			if id != sender && r.sessions[id].User.Name == name {
				return id, true
			}
		}
		return sender, true
	}
	id, ok := r.names[name]
	return id, ok
}

// Promote makes the connection's user a manager. It returns false when
// the user is unknown, unnamed, or already a manager.
func (r *Registry) Promote(id ConnID) bool {
	s, ok := r.sessions[id]
	if !ok || !s.User.Named() || s.User.IsManager() {
		return false
	}
	s.User.Role = RoleManager
	r.managers = append(r.managers, s.User.Name)
	return true
}

// Silence blocks the user from chatting. It returns false when the user
// is unknown or already silenced.
func (r *Registry) Silence(id ConnID) bool {
	s, ok := r.sessions[id]
	if !ok || s.User.Silenced {
		return false
	}
	s.User.Silenced = true
	return true
}

// Remove closes the connection's transport and forgets it everywhere.
func (r *Registry) Remove(id ConnID) (Session, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, id)
	r.order = slices.DeleteFunc(r.order, func(other ConnID) bool { return other == id })
	if name := s.User.Name; name != "" {
		if r.names[name] == id {
			delete(r.names, name)
		}
		if s.User.IsManager() {
			r.managers = slices.DeleteFunc(r.managers, func(m string) bool { return m == name })
		}
	}
	if s.close != nil {
		s.close()
	}
	return *s, true
}

// Managers returns manager names in appointment order.
func (r *Registry) Managers() []string {
	return slices.Clone(r.managers)
}

// Len returns the number of live connections.
func (r *Registry) Len() int { return len(r.order) }

// Recipients lists live connections in acceptance order, skipping exclude.
func (r *Registry) Recipients(exclude ...ConnID) []ConnID {
	out := make([]ConnID, 0, len(r.order))
	for _, id := range r.order {
		if !slices.Contains(exclude, id) {
			out = append(out, id)
		}
	}
	return out
}

// ManagerCount returns the size of the manager set.
func (r *Registry) ManagerCount() int { return len(r.managers) }

// MarkClosing flags a session whose eviction is already queued. Closing
// sessions are skipped as command sources, targets and promotion candidates.
func (r *Registry) MarkClosing(id ConnID) {
	if s, ok := r.sessions[id]; ok {
		s.closing = true
	}
}

// FirstNamed returns the earliest accepted connection that has a name and
// is not on its way out.
func (r *Registry) FirstNamed() (ConnID, bool) {
	for _, id := range r.order {
		if s := r.sessions[id]; s.User.Named() && !s.Closing() {
			return id, true
		}
	}
	return "", false
}

// Members returns a snapshot of every session in acceptance order.
func (r *Registry) Members() []Member {
	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id].member())
	}
	return out
}
