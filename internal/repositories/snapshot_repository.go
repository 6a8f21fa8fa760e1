package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/contribverse/leaderboard/internal/models"
	"github.com/contribverse/leaderboard/pkg/logger"
)

// SnapshotRepository reads and writes the JSON artifacts in the output
// directory. Every artifact is fully overwritten on save; only year.json is
// ever read back.
type SnapshotRepository struct {
	dir string
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(dir string) *SnapshotRepository {
	return &SnapshotRepository{dir: dir}
}

// LoadYear reads the persisted year ledger. A missing or malformed file is
// treated as absent state so the caller falls back to a full fetch.
func (r *SnapshotRepository) LoadYear() *models.YearSnapshot {
	path := filepath.Join(r.dir, "year.json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	snapshot := &models.YearSnapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		logger.WithError(err).Warnf("Discarding corrupt year snapshot at %s", path)
		return nil
	}

	return snapshot
}

// SaveYear writes year.json
func (r *SnapshotRepository) SaveYear(snapshot *models.YearSnapshot) error {
	return r.writeJSON("year.json", snapshot)
}

// SavePeriod writes a derived period artifact, e.g. week.json
func (r *SnapshotRepository) SavePeriod(snapshot *models.PeriodSnapshot) error {
	return r.writeJSON(snapshot.Period+".json", snapshot)
}

// SaveOverview writes overview.json
func (r *SnapshotRepository) SaveOverview(overview *models.Overview) error {
	return r.writeJSON("overview.json", overview)
}

// SaveRecentActivities writes recent-activities.json
func (r *SnapshotRepository) SaveRecentActivities(feed *models.RecentActivityFeed) error {
	return r.writeJSON("recent-activities.json", feed)
}

func (r *SnapshotRepository) writeJSON(name string, v interface{}) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}
