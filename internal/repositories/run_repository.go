package repositories

import (
	"database/sql"
	"sync"
	"time"

	"github.com/contribverse/leaderboard/internal/models"
)

// RunRepository handles database operations for generation runs
type RunRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create creates a new run record
func (r *RunRepository) Create(run *models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO runs (id, org, mode, status, error_message, contributors, activities, started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.Org,
		run.Mode,
		run.Status,
		run.ErrorMessage,
		run.Contributors,
		run.Activities,
		run.StartedAt,
		run.CompletedAt,
		run.CreatedAt,
		run.UpdatedAt,
	)
	return err
}

// Update updates a run record
func (r *RunRepository) Update(run *models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		UPDATE runs
		SET org = ?, mode = ?, status = ?, error_message = ?, contributors = ?, activities = ?,
		    started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		run.Org,
		run.Mode,
		run.Status,
		run.ErrorMessage,
		run.Contributors,
		run.Activities,
		run.StartedAt,
		run.CompletedAt,
		time.Now(),
		run.ID,
	)
	return err
}

// GetByID retrieves a run by ID
func (r *RunRepository) GetByID(id string) (*models.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, org, mode, status, error_message, contributors, activities, started_at, completed_at, created_at, updated_at
		FROM runs WHERE id = ?
	`

	run := &models.Run{}
	err := r.db.QueryRow(query, id).Scan(
		&run.ID,
		&run.Org,
		&run.Mode,
		&run.Status,
		&run.ErrorMessage,
		&run.Contributors,
		&run.Activities,
		&run.StartedAt,
		&run.CompletedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// GetRecent retrieves the most recent runs, newest first
func (r *RunRepository) GetRecent(limit int) ([]*models.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, org, mode, status, error_message, contributors, activities, started_at, completed_at, created_at, updated_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run := &models.Run{}
		err := rows.Scan(
			&run.ID,
			&run.Org,
			&run.Mode,
			&run.Status,
			&run.ErrorMessage,
			&run.Contributors,
			&run.Activities,
			&run.StartedAt,
			&run.CompletedAt,
			&run.CreatedAt,
			&run.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, nil
}
