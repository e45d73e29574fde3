package utils

import "github.com/google/uuid"

// NewID returns a random connection identifier. IDs are opaque: nothing
// may rely on their ordering.
func NewID() string {
	return uuid.NewString()
}
