package services

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/contribverse/leaderboard/internal/models"
)

// ExportService writes the year leaderboard as an Excel workbook next to the
// JSON artifacts, for offline reporting
type ExportService struct {
	dir string
}

// NewExportService creates a new ExportService
func NewExportService(dir string) *ExportService {
	return &ExportService{dir: dir}
}

// Export writes leaderboard.xlsx with one row per contributor
func (s *ExportService) Export(year *models.YearSnapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Leaderboard"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{"Rank", "Username", "Name", "Role", "Total Points",
		string(models.ActivityPROpened),
		string(models.ActivityPRMerged),
		string(models.ActivityIssueOpened),
		string(models.ActivityReviewSubmitted),
		string(models.ActivityIssueLabeled),
		string(models.ActivityIssueAssigned),
		string(models.ActivityIssueClosed),
	}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for i, entry := range year.Entries {
		name := ""
		if entry.Name != nil {
			name = *entry.Name
		}

		values := []interface{}{
			i + 1,
			entry.Username,
			name,
			entry.Role,
			entry.TotalPoints,
			breakdownCount(entry, models.ActivityPROpened),
			breakdownCount(entry, models.ActivityPRMerged),
			breakdownCount(entry, models.ActivityIssueOpened),
			breakdownCount(entry, models.ActivityReviewSubmitted),
			breakdownCount(entry, models.ActivityIssueLabeled),
			breakdownCount(entry, models.ActivityIssueAssigned),
			breakdownCount(entry, models.ActivityIssueClosed),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	path := filepath.Join(s.dir, "leaderboard.xlsx")
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	return nil
}

func breakdownCount(entry *models.Contributor, t models.ActivityType) int {
	if bucket, ok := entry.ActivityBreakdown[string(t)]; ok {
		return bucket.Count
	}
	return 0
}
