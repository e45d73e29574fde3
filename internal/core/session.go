package core

import "time"

// ConnID identifies one accepted connection for its whole lifetime.
type ConnID string

// Role is the permission level of a user.
type Role int

const (
	RoleMember Role = iota
	RoleManager
)

func (r Role) String() string {
	if r == RoleManager {
		return "manager"
	}
	return "member"
}

// User is the chat identity bound to a connection.
type User struct {
	Name     string
	Role     Role
	Silenced bool
}

// Named reports whether the user has sent a frame carrying their name yet.
func (u *User) Named() bool { return u.Name != "" }

// IsManager reports whether the user holds the manager role.
func (u *User) IsManager() bool { return u.Role == RoleManager }

// Session ties a connection to its user.
type Session struct {
	ID         ConnID
	Addr       string
	AcceptedAt time.Time
	User       User

	close   func()
	closing bool
}

// Member is a read-only view of a session used for rosters.
type Member struct {
	ID         ConnID    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Role       string    `json:"role"`
	Silenced   bool      `json:"silenced"`
	Addr       string    `json:"addr,omitempty"`
	AcceptedAt time.Time `json:"accepted_at"`
}

func (s *Session) member() Member {
	return Member{
		ID:         s.ID,
		Name:       s.User.Name,
		Role:       s.User.Role.String(),
		Silenced:   s.User.Silenced,
		Addr:       s.Addr,
		AcceptedAt: s.AcceptedAt,
	}
}

// Closing reports whether the session is waiting for its final notice
// before being evicted.
func (s *Session) Closing() bool { return s.closing }
