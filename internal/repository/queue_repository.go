package repository

import (
	"context"
	"database/sql"

	"github.com/attendo/clinic-queue/internal/model"
)

// QueueRepo manages persistence for queues and sectors.  The dispatch
// engine consumes it as a read-only directory; the admin surface also
// uses it to create and deactivate queues.
type QueueRepo struct {
	db *sql.DB
}

// NewQueueRepo returns a QueueRepo bound to the given database.
func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{db: db} }

// DB exposes the underlying sql.DB for multi-repository transactions.
func (r *QueueRepo) DB() *sql.DB { return r.db }

const queueColumns = `id, unit_id, sector_id, name, active, created_at`

func scanQueue(row interface{ Scan(...any) error }) (*model.Queue, error) {
	var q model.Queue
	err := row.Scan(&q.ID, &q.UnitID, &q.SectorID, &q.Name, &q.Active, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.CreatedAt = q.CreatedAt.UTC()
	return &q, nil
}

// QueueByID resolves a queue by id.  Returns ErrQueueNotFound when the
// id does not exist.
func (r *QueueRepo) QueueByID(ctx context.Context, id uint64) (*model.Queue, error) {
	q, err := scanQueue(r.db.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM queues WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrQueueNotFound
	}
	return q, err
}

// QueuesBySector lists the queues currently belonging to a sector,
// ordered by name.  Inactive queues are included so staff views can
// still show their drained state.
func (r *QueueRepo) QueuesBySector(ctx context.Context, sectorID uint64) ([]model.Queue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM queues WHERE sector_id = ? ORDER BY name ASC`, sectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	queues := make([]model.Queue, 0)
	for rows.Next() {
		q, err := scanQueue(rows)
		if err != nil {
			return nil, err
		}
		queues = append(queues, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return queues, nil
}

// SectorByID resolves a sector by id.  Returns ErrSectorNotFound when
// the id does not exist.
func (r *QueueRepo) SectorByID(ctx context.Context, id uint64) (*model.Sector, error) {
	var s model.Sector
	err := r.db.QueryRowContext(ctx,
		`SELECT id, unit_id, name, created_at FROM sectors WHERE id = ?`, id).
		Scan(&s.ID, &s.UnitID, &s.Name, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSectorNotFound
	}
	if err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

// Create inserts a new active queue after checking that the name is
// not already used inside the owning unit.  The check and insert run
// in one transaction; the unique (unit_id, name) index backs it up
// against concurrent creations.
func (r *QueueRepo) Create(ctx context.Context, q *model.Queue) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var n int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queues WHERE unit_id = ? AND name = ?`, q.UnitID, q.Name).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrQueueNameTaken
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO queues (unit_id, sector_id, name, active) VALUES (?, ?, ?, 1)`,
		q.UnitID, q.SectorID, q.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q.ID = uint64(id)
	q.Active = true
	// Read back the row to populate created_at.
	row, err := scanQueue(tx.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM queues WHERE id = ?`, q.ID))
	if err != nil {
		return err
	}
	*q = *row
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Deactivate switches a queue off after verifying, inside the same
// transaction, that no WAITING tickets remain in it.  Returns
// ErrQueueHasWaiting when customers are still in line and
// ErrQueueNotFound when the id does not exist.
func (r *QueueRepo) Deactivate(ctx context.Context, id uint64, tickets *TicketRepo) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var active bool
	err = tx.QueryRowContext(ctx, `SELECT active FROM queues WHERE id = ?`, id).Scan(&active)
	if err == sql.ErrNoRows {
		return ErrQueueNotFound
	}
	if err != nil {
		return err
	}
	waiting, err := tickets.CountWaitingTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if waiting > 0 {
		return ErrQueueHasWaiting
	}
	if _, err := tx.ExecContext(ctx, `UPDATE queues SET active = 0 WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
