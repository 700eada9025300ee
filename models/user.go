package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which portal view an actor belongs to
type Role string

const (
	RolePrisoner  Role = "prisoner"
	RoleLegalAid  Role = "legal_aid"
	RoleAuthority Role = "authority"
)

// ValidRole reports whether r is a known portal role
func ValidRole(r Role) bool {
	return r == RolePrisoner || r == RoleLegalAid || r == RoleAuthority
}

// User represents a portal user entity
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
