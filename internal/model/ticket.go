package model

import "time"

// TicketStatus is the lifecycle state of a ticket.  Tickets are never
// deleted; the status column is the only mutable lifecycle signal, so
// cancellations and completed attendances stay visible to dashboards.
type TicketStatus string

const (
	StatusWaiting  TicketStatus = "WAITING"  // admitted, not yet called
	StatusCalled   TicketStatus = "CALLED"   // announced to a counter or room
	StatusServed   TicketStatus = "SERVED"   // attendance finished (terminal)
	StatusCanceled TicketStatus = "CANCELED" // withdrawn before or after call (terminal)
)

// transitions maps each status to the statuses it may move to.  SERVED
// and CANCELED are terminal: no operation ever transitions out of them.
var transitions = map[TicketStatus][]TicketStatus{
	StatusWaiting:  {StatusCalled, StatusCanceled},
	StatusCalled:   {StatusServed, StatusCanceled},
	StatusServed:   {},
	StatusCanceled: {},
}

// CanTransition reports whether a ticket in status s may move to status to.
func (s TicketStatus) CanTransition(to TicketStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s TicketStatus) Terminal() bool { return len(transitions[s]) == 0 }

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Ticket represents one customer's occupancy of one queue.  At most one
// WAITING ticket may exist per (customer, queue) pair at any time.
//
// Priority ranks a ticket before normal ones within its partition,
// while ReturnVisit partitions selection rather than ranking it.  The
// call fields (CalledAt, CounterLabel, OperatorID) stay nil until the
// ticket is called, and FinishedAt stays nil until the ticket reaches
// a terminal status.
type Ticket struct {
	ID           uint64       `json:"id"`
	QueueID      uint64       `json:"queue_id"`
	CustomerID   uint64       `json:"customer_id"`
	Priority     bool         `json:"priority"`
	ReturnVisit  bool         `json:"return_visit"`
	Status       TicketStatus `json:"status"`
	EnteredAt    time.Time    `json:"entered_at"`
	CalledAt     *time.Time   `json:"called_at,omitempty"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	CounterLabel *string      `json:"counter_label,omitempty"`
	OperatorID   *uint64      `json:"operator_id,omitempty"`
}
