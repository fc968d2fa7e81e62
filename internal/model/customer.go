package model

import "time"

// Customer is a person attended through the queues.  The dispatch core
// resolves customers by id and never mutates them.
type Customer struct {
	ID        uint64    `json:"id"`         // customers.id
	FullName  string    `json:"full_name"`  // customers.full_name
	Document  string    `json:"document"`   // customers.document (national id or card number)
	CreatedAt time.Time `json:"created_at"` // customers.created_at
}
