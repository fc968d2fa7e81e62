package model

import "time"

// Operator roles accepted by the role middleware.
const (
	RoleOperator = "OPERATOR" // calls and finishes tickets
	RoleAdmin    = "ADMIN"    // additionally manages queues and operators
)

// Operator is a staff member who calls tickets from a counter or room.
// Deactivated operators no longer resolve for dispatch operations.
type Operator struct {
	ID           uint64    `json:"id"`         // operators.id
	FullName     string    `json:"full_name"`  // operators.full_name
	Email        string    `json:"email"`      // operators.email (unique)
	PasswordHash string    `json:"-"`          // operators.password_hash, never serialized
	Role         string    `json:"role"`       // operators.role (OPERATOR, ADMIN)
	Active       bool      `json:"active"`     // operators.active
	CreatedAt    time.Time `json:"created_at"` // operators.created_at
}
