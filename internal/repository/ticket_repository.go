package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/attendo/clinic-queue/internal/model"
)

// dbTime is the DATETIME layout used when writing timestamps.  All
// timestamps are stored in UTC; reads come back as time.Time through
// the parseTime DSN option.
const dbTime = "2006-01-02 15:04:05"

// TicketRepo persists tickets and exposes the queries the dispatcher
// needs.  Rows are never deleted: cancellation and completion are
// status updates, which preserves history for dashboards.
//
// The waiting-list ordering is fixed here and nowhere else: priority
// first (true before false), then entered_at ascending, then id
// ascending as a deterministic tie-break for same-second admissions.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to span a
// transaction across repositories.
func (r *TicketRepo) DB() *sql.DB { return r.db }

const ticketColumns = `id, queue_id, customer_id, priority, return_visit, status,
	entered_at, called_at, finished_at, counter_label, operator_id`

// scanTicket reads one ticket row from a row scanner, converting the
// nullable call/finish columns into pointers.
func scanTicket(row interface{ Scan(...any) error }) (*model.Ticket, error) {
	var (
		t         model.Ticket
		calledAt  sql.NullTime
		finished  sql.NullTime
		counter   sql.NullString
		operator  sql.NullInt64
	)
	err := row.Scan(
		&t.ID, &t.QueueID, &t.CustomerID, &t.Priority, &t.ReturnVisit, &t.Status,
		&t.EnteredAt, &calledAt, &finished, &counter, &operator,
	)
	if err != nil {
		return nil, err
	}
	if calledAt.Valid {
		v := calledAt.Time.UTC()
		t.CalledAt = &v
	}
	if finished.Valid {
		v := finished.Time.UTC()
		t.FinishedAt = &v
	}
	if counter.Valid {
		v := counter.String
		t.CounterLabel = &v
	}
	if operator.Valid {
		v := uint64(operator.Int64)
		t.OperatorID = &v
	}
	t.EnteredAt = t.EnteredAt.UTC()
	return &t, nil
}

// Create inserts a new WAITING ticket and populates the generated ID
// on the given model.  EnteredAt must already be set by the caller.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const q = `INSERT INTO tickets (queue_id, customer_id, priority, return_visit, status, entered_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.QueueID, t.CustomerID, t.Priority, t.ReturnVisit, string(model.StatusWaiting),
		t.EnteredAt.UTC().Format(dbTime),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Status = model.StatusWaiting
	return nil
}

// GetByID returns the stored state of one ticket.  It is used by the
// dispatcher to re-read after every mutation so callers always see the
// authoritative row rather than an in-process copy.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// ExistsWaiting reports whether the customer already has a WAITING
// ticket in the queue.  Used to enforce the at-most-one-waiting
// invariant on admission.
func (r *TicketRepo) ExistsWaiting(ctx context.Context, customerID, queueID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM tickets WHERE customer_id = ? AND queue_id = ? AND status = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, customerID, queueID, string(model.StatusWaiting)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NextEligible returns the single best WAITING ticket in the queue for
// the given return-visit partition, or nil when none is waiting.  The
// return_visit flag is a hard pre-filter, not a ranking dimension.
func (r *TicketRepo) NextEligible(ctx context.Context, queueID uint64, returnVisit bool) (*model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets
	      WHERE queue_id = ? AND status = ? AND return_visit = ?
	      ORDER BY priority DESC, entered_at ASC, id ASC
	      LIMIT 1`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, queueID, string(model.StatusWaiting), returnVisit))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// WaitingList returns every WAITING ticket in the queue in call order.
func (r *TicketRepo) WaitingList(ctx context.Context, queueID uint64) ([]model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets
	      WHERE queue_id = ? AND status = ?
	      ORDER BY priority DESC, entered_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, queueID, string(model.StatusWaiting))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// LastCalled returns the most recently called ticket still in CALLED
// status, or nil when the queue has no active call.
func (r *TicketRepo) LastCalled(ctx context.Context, queueID uint64) (*model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets
	      WHERE queue_id = ? AND status = ?
	      ORDER BY called_at DESC, id DESC
	      LIMIT 1`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, queueID, string(model.StatusCalled)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// RecentCalled returns up to limit CALLED tickets for the queue, most
// recently called first.  Used only to compose panel payloads.
func (r *TicketRepo) RecentCalled(ctx context.Context, queueID uint64, limit int) ([]model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets
	      WHERE queue_id = ? AND status = ?
	      ORDER BY called_at DESC, id DESC
	      LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, queueID, string(model.StatusCalled), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.Ticket, 0, limit)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// Claim transitions a WAITING ticket to CALLED with a single
// conditional UPDATE and reports whether this caller won the claim.
// Two concurrent callers can both select the same candidate, but only
// the UPDATE that finds the row still WAITING affects it; the loser
// sees zero affected rows and must select again.
func (r *TicketRepo) Claim(ctx context.Context, ticketID, operatorID uint64, counterLabel string, at time.Time) (bool, error) {
	const q = `UPDATE tickets
	           SET status = ?, called_at = ?, operator_id = ?, counter_label = ?
	           WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q,
		string(model.StatusCalled), at.UTC().Format(dbTime), operatorID, counterLabel,
		ticketID, string(model.StatusWaiting),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Finish moves a ticket into one of the terminal statuses with a
// conditional UPDATE guarded by the state machine: SERVED is reachable
// only from CALLED, CANCELED only from WAITING or CALLED.  It reports
// whether the row was in an eligible status.
func (r *TicketRepo) Finish(ctx context.Context, ticketID uint64, to model.TicketStatus, at time.Time) (bool, error) {
	var q string
	switch to {
	case model.StatusServed:
		q = `UPDATE tickets SET status = ?, finished_at = ?
		     WHERE id = ? AND status = '` + string(model.StatusCalled) + `'`
	case model.StatusCanceled:
		q = `UPDATE tickets SET status = ?, finished_at = ?
		     WHERE id = ? AND status IN ('` + string(model.StatusWaiting) + `','` + string(model.StatusCalled) + `')`
	default:
		return false, fmt.Errorf("finish: %q is not a terminal status", to)
	}
	res, err := r.db.ExecContext(ctx, q, string(to), at.UTC().Format(dbTime), ticketID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountWaitingTx counts WAITING tickets for a queue inside an existing
// transaction.  Queue deactivation uses it to refuse switching off a
// queue that still has customers in line.
func (r *TicketRepo) CountWaitingTx(ctx context.Context, tx *sql.Tx, queueID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM tickets WHERE queue_id = ? AND status = ?`
	var n int
	err := tx.QueryRowContext(ctx, q, queueID, string(model.StatusWaiting)).Scan(&n)
	return n, err
}
