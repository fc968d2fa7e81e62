package model

import "time"

// Queue is a named waiting line owned by a sector within a unit.  Queue
// names are unique per unit, not globally.  An inactive queue no longer
// accepts admissions but its ticket history stays intact.
type Queue struct {
	ID        uint64    `json:"id"`         // queues.id
	UnitID    uint64    `json:"unit_id"`    // queues.unit_id
	SectorID  uint64    `json:"sector_id"`  // queues.sector_id
	Name      string    `json:"name"`       // queues.name (unique per unit)
	Active    bool      `json:"active"`     // queues.active
	CreatedAt time.Time `json:"created_at"` // queues.created_at
}

// Sector groups queues that share a staff-facing view, e.g. "Triage".
type Sector struct {
	ID        uint64    `json:"id"`         // sectors.id
	UnitID    uint64    `json:"unit_id"`    // sectors.unit_id
	Name      string    `json:"name"`       // sectors.name
	CreatedAt time.Time `json:"created_at"` // sectors.created_at
}

// Unit is the top-level location grouping sectors and queues.  The
// dispatch core only references it as a foreign key.
type Unit struct {
	ID        uint64    `json:"id"`         // units.id
	Name      string    `json:"name"`       // units.name
	CreatedAt time.Time `json:"created_at"` // units.created_at
}
