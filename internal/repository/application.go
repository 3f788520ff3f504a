package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jobtrack/jobtrack-go/internal/model"
)

var ErrApplicationNotFound = errors.New("application not found")

// ApplicationRepository handles job-application persistence operations.
// Every query is owner-scoped: the user_id predicate is part of each
// statement, so a row belonging to another user matches nothing.
type ApplicationRepository struct {
	db *sql.DB
}

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application for the given owner and sets the
// generated ID on the struct.
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	query := `INSERT INTO applications (user_id, company, position, date, status) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		app.UserID, app.Company, app.Position, app.Date.Format("2006-01-02"), string(app.Status),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	app.ID = id
	return nil
}

// ListByUser retrieves all applications owned by a user, newest application
// date first. Ties on date come back in insertion order.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID int64) ([]model.Application, error) {
	query := `SELECT id, user_id, company, position, date, status, created_at, updated_at
		FROM applications WHERE user_id = ? ORDER BY date DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []model.Application
	for rows.Next() {
		var a model.Application
		var status string
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Company, &a.Position, &a.Date, &status, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.Status = model.Status(status)
		apps = append(apps, a)
	}

	return apps, rows.Err()
}

// Update replaces all four mutable fields of an application. The statement
// matches on both id and owner; zero matched rows means the application does
// not exist or belongs to someone else, and both report ErrApplicationNotFound.
// Requires clientFoundRows=true in the DSN so RowsAffected counts matched
// rows rather than changed rows.
func (r *ApplicationRepository) Update(ctx context.Context, app *model.Application) error {
	query := `UPDATE applications SET company = ?, position = ?, date = ?, status = ?
		WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		app.Company, app.Position, app.Date.Format("2006-01-02"), string(app.Status),
		app.ID, app.UserID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrApplicationNotFound
	}

	return nil
}

// Delete removes an application owned by the given user. Deleting a
// non-existent or foreign application reports ErrApplicationNotFound.
func (r *ApplicationRepository) Delete(ctx context.Context, userID, id int64) error {
	query := `DELETE FROM applications WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrApplicationNotFound
	}

	return nil
}
