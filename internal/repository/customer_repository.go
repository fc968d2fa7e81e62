package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/attendo/clinic-queue/internal/model"
)

// CustomerRepo manages persistence for customers.  The dispatch engine
// only reads from it; registration is part of the admin surface.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo returns a CustomerRepo bound to the given database.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// CustomerByID resolves a customer by id.  Returns ErrCustomerNotFound
// when the id does not exist.
func (r *CustomerRepo) CustomerByID(ctx context.Context, id uint64) (*model.Customer, error) {
	var c model.Customer
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, document, created_at FROM customers WHERE id = ?`, id).
		Scan(&c.ID, &c.FullName, &c.Document, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

// Create inserts a new customer and populates the generated id.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	c.FullName = strings.TrimSpace(c.FullName)
	c.Document = strings.TrimSpace(c.Document)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (full_name, document) VALUES (?, ?)`, c.FullName, c.Document)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}
