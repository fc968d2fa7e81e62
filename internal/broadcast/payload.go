// Package broadcast composes and delivers the update payloads fanned
// out to public panels and staff views after dispatch mutations.  The
// payloads are derived read-only from the ticket store and are never
// persisted.
package broadcast

import (
	"fmt"
	"time"

	"github.com/attendo/clinic-queue/internal/model"
)

// RecentCalls caps how many past calls a panel shows besides the
// current one.
const RecentCalls = 3

// CalledTicket is the display projection of one called ticket.
type CalledTicket struct {
	TicketID     uint64 `json:"ticket_id"`
	CustomerID   uint64 `json:"customer_id"`
	Priority     bool   `json:"priority"`
	CounterLabel string `json:"counter_label"`
	CalledAt     string `json:"called_at"`
}

// PanelUpdate is the payload published on the panel topic of one
// queue: the current call, up to RecentCalls previous calls with the
// most recent first, a display message and a sound flag telling the
// panel whether to play the call chime.
type PanelUpdate struct {
	QueueID   uint64         `json:"queue_id"`
	QueueName string         `json:"queue_name"`
	Current   *CalledTicket  `json:"current,omitempty"`
	Recent    []CalledTicket `json:"recent"`
	Message   string         `json:"message"`
	Sound     bool           `json:"sound"`
}

// QueueSnapshot is one queue's full ordered waiting list inside a
// staff update.
type QueueSnapshot struct {
	QueueID   uint64         `json:"queue_id"`
	QueueName string         `json:"queue_name"`
	Active    bool           `json:"active"`
	Waiting   []model.Ticket `json:"waiting"`
}

// StaffUpdate is the payload published on the staff topic of one
// sector: the waiting list of every queue currently belonging to it.
type StaffUpdate struct {
	SectorID uint64          `json:"sector_id"`
	Queues   []QueueSnapshot `json:"queues"`
}

// NewCalledTicket projects a CALLED ticket for display.  Tickets that
// were never called project with zero call fields.
func NewCalledTicket(t model.Ticket) CalledTicket {
	c := CalledTicket{
		TicketID:   t.ID,
		CustomerID: t.CustomerID,
		Priority:   t.Priority,
	}
	if t.CounterLabel != nil {
		c.CounterLabel = *t.CounterLabel
	}
	if t.CalledAt != nil {
		c.CalledAt = t.CalledAt.UTC().Format(time.RFC3339)
	}
	return c
}

// NewPanelUpdate builds a panel payload from the queue's current call
// and its recent call history.  The recent list is capped at
// RecentCalls regardless of what the caller passes.  Sound should be
// true only when the update announces a fresh call.
func NewPanelUpdate(q model.Queue, current *model.Ticket, recent []model.Ticket, sound bool) PanelUpdate {
	u := PanelUpdate{
		QueueID:   q.ID,
		QueueName: q.Name,
		Recent:    make([]CalledTicket, 0, RecentCalls),
		Sound:     sound,
	}
	if current != nil {
		c := NewCalledTicket(*current)
		u.Current = &c
		if c.CounterLabel != "" {
			u.Message = fmt.Sprintf("Ticket %d, proceed to %s", c.TicketID, c.CounterLabel)
		} else {
			u.Message = fmt.Sprintf("Ticket %d", c.TicketID)
		}
	}
	for _, t := range recent {
		if len(u.Recent) == RecentCalls {
			break
		}
		u.Recent = append(u.Recent, NewCalledTicket(t))
	}
	return u
}

// NewStaffUpdate builds a staff payload from per-queue snapshots.
func NewStaffUpdate(sectorID uint64, queues []QueueSnapshot) StaffUpdate {
	if queues == nil {
		queues = []QueueSnapshot{}
	}
	return StaffUpdate{SectorID: sectorID, Queues: queues}
}
