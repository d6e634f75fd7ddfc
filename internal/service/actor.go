package service

import (
	"fabriq/internal/model"

	"github.com/google/uuid"
)

// Actor identifies the authenticated principal performing an operation.
// Handlers build it from the JWT claims.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// IsSuper reports whether the actor holds elevated approval authority.
func (a Actor) IsSuper() bool { return a.Role == model.RoleAdmin }
