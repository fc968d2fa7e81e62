// Package service implements the dispatch engine: the ticket state
// machine, the call-next selection policy and the composition of the
// update payloads fanned out after each mutation.  The engine talks to
// its collaborators through small interfaces so it can be exercised
// without a database or a broker.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/attendo/clinic-queue/internal/broadcast"
	"github.com/attendo/clinic-queue/internal/model"
)

// Domain errors surfaced by the engine.  They are returned verbatim to
// handlers, never swallowed or retried.
var (
	// ErrAlreadyWaiting is returned by Admit when the customer already
	// has a WAITING ticket in the target queue.
	ErrAlreadyWaiting = errors.New("customer already waiting in this queue")

	// ErrQueueInactive is returned by Admit when the target queue has
	// been deactivated.
	ErrQueueInactive = errors.New("queue is not active")

	// ErrNothingWaiting is returned by CallNext when no eligible ticket
	// is waiting.  It specifically means an empty queue, not a
	// resolution failure.
	ErrNothingWaiting = errors.New("nothing waiting")

	// ErrTicketNotCalled is returned by Finalize when the ticket is not
	// in CALLED status.
	ErrTicketNotCalled = errors.New("only a called ticket can be finalized")

	// ErrTicketFinished is returned by Cancel when the ticket already
	// reached a terminal status.
	ErrTicketFinished = errors.New("cannot cancel a finished ticket")
)

// QueueDirectory resolves queues and sector membership.
type QueueDirectory interface {
	QueueByID(ctx context.Context, id uint64) (*model.Queue, error)
	QueuesBySector(ctx context.Context, sectorID uint64) ([]model.Queue, error)
}

// CustomerDirectory resolves customers.
type CustomerDirectory interface {
	CustomerByID(ctx context.Context, id uint64) (*model.Customer, error)
}

// OperatorDirectory resolves active operators.
type OperatorDirectory interface {
	OperatorByID(ctx context.Context, id uint64) (*model.Operator, error)
}

// TicketStore is the persistence contract the engine mutates tickets
// through.  Claim and Finish must be conditional updates that report
// whether the row was in the expected status, so that concurrent
// dispatchers can never hand the same ticket to two operators.
type TicketStore interface {
	ExistsWaiting(ctx context.Context, customerID, queueID uint64) (bool, error)
	NextEligible(ctx context.Context, queueID uint64, returnVisit bool) (*model.Ticket, error)
	WaitingList(ctx context.Context, queueID uint64) ([]model.Ticket, error)
	LastCalled(ctx context.Context, queueID uint64) (*model.Ticket, error)
	RecentCalled(ctx context.Context, queueID uint64, limit int) ([]model.Ticket, error)
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	Claim(ctx context.Context, ticketID, operatorID uint64, counterLabel string, at time.Time) (bool, error)
	Finish(ctx context.Context, ticketID uint64, to model.TicketStatus, at time.Time) (bool, error)
}

// Publisher is the fan-out sink for panel and staff updates.  The
// engine never blocks on delivery and never fails an operation because
// a publish failed: the ticket mutation is the source of truth and the
// broadcast is best-effort.
type Publisher interface {
	PublishPanel(ctx context.Context, queueID uint64, u broadcast.PanelUpdate) error
	PublishStaff(ctx context.Context, sectorID uint64, u broadcast.StaffUpdate) error
}

// AdmitRequest carries the parameters of an admission.
type AdmitRequest struct {
	CustomerID  uint64 `json:"customer_id"`
	QueueID     uint64 `json:"queue_id"`
	Priority    bool   `json:"priority"`
	ReturnVisit bool   `json:"return_visit"`
}

// Dispatcher owns the ticket lifecycle.  All ticket mutation in the
// system goes through its operations; every operation re-reads from
// the store instead of caching ticket state across calls.
type Dispatcher struct {
	queues    QueueDirectory
	customers CustomerDirectory
	operators OperatorDirectory
	tickets   TicketStore
	publisher Publisher

	// returnQueue is the queue name whose selection tries the
	// return-visit partition before the default one.
	returnQueue string

	now func() time.Time
}

// NewDispatcher wires a Dispatcher.  returnQueue names the single
// queue with the return-visit-first selection override; pass the
// configured name, e.g. "Medical Attendance".
func NewDispatcher(queues QueueDirectory, customers CustomerDirectory, operators OperatorDirectory,
	tickets TicketStore, publisher Publisher, returnQueue string) *Dispatcher {
	return &Dispatcher{
		queues:      queues,
		customers:   customers,
		operators:   operators,
		tickets:     tickets,
		publisher:   publisher,
		returnQueue: returnQueue,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Admit creates a WAITING ticket for the customer in the queue.  It
// fails when customer or queue do not resolve, when the queue is
// inactive, or when the customer already has a WAITING ticket there.
// On success it publishes fresh panel and staff snapshots.
func (d *Dispatcher) Admit(ctx context.Context, req AdmitRequest) (*model.Ticket, error) {
	if _, err := d.customers.CustomerByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	q, err := d.queues.QueueByID(ctx, req.QueueID)
	if err != nil {
		return nil, err
	}
	if !q.Active {
		return nil, ErrQueueInactive
	}
	waiting, err := d.tickets.ExistsWaiting(ctx, req.CustomerID, req.QueueID)
	if err != nil {
		return nil, err
	}
	if waiting {
		return nil, ErrAlreadyWaiting
	}
	t := &model.Ticket{
		QueueID:     req.QueueID,
		CustomerID:  req.CustomerID,
		Priority:    req.Priority,
		ReturnVisit: req.ReturnVisit,
		Status:      model.StatusWaiting,
		EnteredAt:   d.now(),
	}
	if err := d.tickets.Create(ctx, t); err != nil {
		return nil, err
	}
	d.publishPanel(ctx, *q, false)
	d.publishStaff(ctx, q.SectorID)
	return t, nil
}

// CallNext selects and claims the next eligible ticket of the queue
// for the operator.
//
// Selection: the default rule takes the oldest WAITING ticket with
// return_visit=false, priority tickets first.  When the queue's name
// matches the configured override queue, the return_visit=true
// partition is tried first with the same ordering, falling back to the
// default rule when it is empty.
//
// Claiming is a compare-and-swap on the ticket status: when another
// operator wins the race for the selected ticket, selection runs
// again.  Every lost race means the other caller claimed that ticket,
// so the candidate set shrinks and the loop terminates.
func (d *Dispatcher) CallNext(ctx context.Context, queueID, operatorID uint64, counterLabel string) (*model.Ticket, error) {
	q, err := d.queues.QueueByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	op, err := d.operators.OperatorByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	for {
		next, err := d.selectNext(ctx, q)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, ErrNothingWaiting
		}
		won, err := d.tickets.Claim(ctx, next.ID, op.ID, counterLabel, d.now())
		if err != nil {
			return nil, err
		}
		if !won {
			continue
		}
		t, err := d.tickets.GetByID(ctx, next.ID)
		if err != nil {
			return nil, err
		}
		d.publishPanel(ctx, *q, true)
		d.publishStaff(ctx, q.SectorID)
		return t, nil
	}
}

// selectNext applies the selection policy without claiming.
func (d *Dispatcher) selectNext(ctx context.Context, q *model.Queue) (*model.Ticket, error) {
	if q.Name == d.returnQueue {
		t, err := d.tickets.NextEligible(ctx, q.ID, true)
		if err != nil || t != nil {
			return t, err
		}
	}
	return d.tickets.NextEligible(ctx, q.ID, false)
}

// Finalize moves a CALLED ticket to SERVED and stamps the exit
// timestamp.  Any other status fails with ErrTicketNotCalled.  The
// panel keeps showing the last call; no broadcast is published here.
func (d *Dispatcher) Finalize(ctx context.Context, ticketID uint64) (*model.Ticket, error) {
	t, err := d.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.StatusCalled {
		return nil, ErrTicketNotCalled
	}
	ok, err := d.tickets.Finish(ctx, ticketID, model.StatusServed, d.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// The status changed between the read and the update.
		return nil, ErrTicketNotCalled
	}
	return d.tickets.GetByID(ctx, ticketID)
}

// Cancel moves a WAITING or CALLED ticket to CANCELED and stamps the
// exit timestamp.  Tickets in a terminal status fail with
// ErrTicketFinished.  The returned ticket is re-read from the store so
// callers see the authoritative row even if a trigger touched it
// during the status change.  The sector's staff view is refreshed
// since a waiting ticket may have left the line.
func (d *Dispatcher) Cancel(ctx context.Context, ticketID uint64) (*model.Ticket, error) {
	t, err := d.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		return nil, ErrTicketFinished
	}
	ok, err := d.tickets.Finish(ctx, ticketID, model.StatusCanceled, d.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTicketFinished
	}
	t, err = d.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if q, qerr := d.queues.QueueByID(ctx, t.QueueID); qerr == nil {
		d.publishStaff(ctx, q.SectorID)
	}
	return t, nil
}

// Forward finalizes the origin ticket and admits the same customer
// into the destination queue.  The two writes are separate
// transactions: when the admission fails the origin stays SERVED and
// the admission error is returned, leaving reconciliation to the
// caller (at-least-once forward).
func (d *Dispatcher) Forward(ctx context.Context, originTicketID uint64, dest AdmitRequest) (*model.Ticket, error) {
	origin, err := d.Finalize(ctx, originTicketID)
	if err != nil {
		return nil, err
	}
	dest.CustomerID = origin.CustomerID
	return d.Admit(ctx, dest)
}

// WaitingList returns the ordered waiting list of the queue.
func (d *Dispatcher) WaitingList(ctx context.Context, queueID uint64) ([]model.Ticket, error) {
	if _, err := d.queues.QueueByID(ctx, queueID); err != nil {
		return nil, err
	}
	return d.tickets.WaitingList(ctx, queueID)
}

// PanelSnapshot builds the current panel payload for a queue without
// publishing it.  The public panel endpoint serves it to displays
// that just connected and missed earlier broadcasts.
func (d *Dispatcher) PanelSnapshot(ctx context.Context, queueID uint64) (*broadcast.PanelUpdate, error) {
	q, err := d.queues.QueueByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	u, err := d.panelUpdate(ctx, *q, false)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// panelUpdate composes the panel payload from store reads.
func (d *Dispatcher) panelUpdate(ctx context.Context, q model.Queue, sound bool) (broadcast.PanelUpdate, error) {
	current, err := d.tickets.LastCalled(ctx, q.ID)
	if err != nil {
		return broadcast.PanelUpdate{}, err
	}
	recent, err := d.tickets.RecentCalled(ctx, q.ID, broadcast.RecentCalls)
	if err != nil {
		return broadcast.PanelUpdate{}, err
	}
	return broadcast.NewPanelUpdate(q, current, recent, sound), nil
}

// publishPanel publishes the queue's panel snapshot.  Failures are
// logged and dropped: the mutation already committed and the panel
// will catch up on the next update.
func (d *Dispatcher) publishPanel(ctx context.Context, q model.Queue, sound bool) {
	u, err := d.panelUpdate(ctx, q, sound)
	if err != nil {
		log.Printf("dispatch: compose panel update for queue %d failed: %v", q.ID, err)
		return
	}
	if err := d.publisher.PublishPanel(ctx, q.ID, u); err != nil {
		log.Printf("dispatch: publish panel update for queue %d failed: %v", q.ID, err)
	}
}

// publishStaff publishes a fresh waiting-list snapshot for every queue
// in the sector.  Failures are logged and dropped.
func (d *Dispatcher) publishStaff(ctx context.Context, sectorID uint64) {
	queues, err := d.queues.QueuesBySector(ctx, sectorID)
	if err != nil {
		log.Printf("dispatch: list queues of sector %d failed: %v", sectorID, err)
		return
	}
	snapshots := make([]broadcast.QueueSnapshot, 0, len(queues))
	for _, q := range queues {
		waiting, err := d.tickets.WaitingList(ctx, q.ID)
		if err != nil {
			log.Printf("dispatch: waiting list for queue %d failed: %v", q.ID, err)
			return
		}
		snapshots = append(snapshots, broadcast.QueueSnapshot{
			QueueID:   q.ID,
			QueueName: q.Name,
			Active:    q.Active,
			Waiting:   waiting,
		})
	}
	u := broadcast.NewStaffUpdate(sectorID, snapshots)
	if err := d.publisher.PublishStaff(ctx, sectorID, u); err != nil {
		log.Printf("dispatch: publish staff update for sector %d failed: %v", sectorID, err)
	}
}
