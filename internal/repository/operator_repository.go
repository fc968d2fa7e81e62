package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/attendo/clinic-queue/internal/model"
)

// OperatorRepo manages persistence for staff operators.
type OperatorRepo struct{ DB *sql.DB }

// NewOperatorRepo returns an OperatorRepo bound to the given database.
func NewOperatorRepo(db *sql.DB) *OperatorRepo { return &OperatorRepo{DB: db} }

const operatorColumns = `id, full_name, email, password_hash, role, active, created_at`

func scanOperator(row interface{ Scan(...any) error }) (*model.Operator, error) {
	var o model.Operator
	err := row.Scan(&o.ID, &o.FullName, &o.Email, &o.PasswordHash, &o.Role, &o.Active, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}

// Create inserts an operator with an already-hashed password and
// returns the generated id.  A duplicate email maps to ErrEmailExists
// via the unique index error code.
func (r *OperatorRepo) Create(ctx context.Context, fullName, email, passwordHash, role string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO operators (full_name, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(fullName), email, passwordHash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an operator by normalized email, active or not.
// Login uses it and checks the active flag itself to distinguish bad
// credentials from a disabled account.
func (r *OperatorRepo) GetByEmail(ctx context.Context, email string) (*model.Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	o, err := scanOperator(r.DB.QueryRowContext(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE email = ? LIMIT 1`, email))
	if err == sql.ErrNoRows {
		return nil, ErrOperatorNotFound
	}
	return o, err
}

// OperatorByID resolves an active operator by id.  Deactivated
// operators do not resolve: they must not be able to call tickets.
func (r *OperatorRepo) OperatorByID(ctx context.Context, id uint64) (*model.Operator, error) {
	o, err := scanOperator(r.DB.QueryRowContext(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE id = ? AND active = 1 LIMIT 1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrOperatorNotFound
	}
	return o, err
}
