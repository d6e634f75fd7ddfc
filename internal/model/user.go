package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles. Admin is the elevated principal: its approvals auto-approve BOMs,
// production processes and raw-material lines.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleInventory  = "inventory"
)

// User stores system users with role-based access.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSuper reports whether the user holds elevated approval authority.
func (u *User) IsSuper() bool { return u.Role == RoleAdmin }
