package models

import (
	"time"

	"github.com/google/uuid"
)

// RunMode indicates how the fetch window of a run was determined
type RunMode string

const (
	RunModeFull        RunMode = "full"
	RunModeIncremental RunMode = "incremental"
)

// RunStatus represents the status of a generation run
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in-progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Run records one leaderboard generation run
type Run struct {
	ID           string     `json:"id"`
	Org          string     `json:"org"`
	Mode         RunMode    `json:"mode"`
	Status       RunStatus  `json:"status"`
	ErrorMessage *string    `json:"error_message"`
	Contributors int        `json:"contributors"`
	Activities   int        `json:"activities"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewRun creates a new Run with a generated UUID
func NewRun(org string) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.New().String(),
		Org:       org,
		Mode:      RunModeFull,
		Status:    RunStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkStarted marks the run as started
func (r *Run) MarkStarted() {
	now := time.Now()
	r.Status = RunStatusInProgress
	r.StartedAt = &now
}

// MarkCompleted marks the run as completed
func (r *Run) MarkCompleted() {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.CompletedAt = &now
}

// MarkFailed marks the run as failed
func (r *Run) MarkFailed() {
	now := time.Now()
	r.Status = RunStatusFailed
	r.CompletedAt = &now
}

// SetError sets an error message for the run
func (r *Run) SetError(message string) {
	r.ErrorMessage = &message
}
