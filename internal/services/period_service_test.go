package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/contribverse/leaderboard/internal/models"
)

func ledgerEntry(username string, activities ...*models.RawActivity) *models.Contributor {
	c := models.NewContributor(username)
	for _, a := range activities {
		c.AddActivity(a)
	}
	return c
}

func TestDerivePeriod(t *testing.T) {
	now := time.Now()
	recent := now.AddDate(0, 0, -2)
	old := now.AddDate(0, 0, -40)

	alice := ledgerEntry("alice",
		models.NewRawActivity(models.ActivityPROpened, recent, nil, nil),
		models.NewRawActivity(models.ActivityPRMerged, old, nil, nil),
	)
	bob := ledgerEntry("bob",
		models.NewRawActivity(models.ActivityIssueOpened, old, nil, nil),
	)

	source := &models.YearSnapshot{Entries: []*models.Contributor{alice, bob}}

	service := NewPeriodService()
	week := service.Derive(source, 7, "week")

	assert.Equal(t, "week", week.Period)

	// bob has no activity inside the window and must be omitted entirely
	assert.Len(t, week.Entries, 1)
	assert.Equal(t, "alice", week.Entries[0].Username)

	// totals are recomputed from the filtered subset only
	assert.Equal(t, 2, week.Entries[0].TotalPoints)
	assert.Len(t, week.Entries[0].Activities, 1)
	assert.Equal(t, models.ActivityPROpened, week.Entries[0].Activities[0].Type)
	assert.NotContains(t, week.Entries[0].ActivityBreakdown, "PR merged")
}

func TestDerivePeriodIsPureFilter(t *testing.T) {
	now := time.Now()
	c := ledgerEntry("alice",
		models.NewRawActivity(models.ActivityPROpened, now.AddDate(0, 0, -1), nil, nil),
		models.NewRawActivity(models.ActivityPROpened, now.AddDate(0, 0, -5), nil, nil),
		models.NewRawActivity(models.ActivityPROpened, now.AddDate(0, 0, -20), nil, nil),
		models.NewRawActivity(models.ActivityPROpened, now.AddDate(0, 0, -100), nil, nil),
	)
	source := &models.YearSnapshot{Entries: []*models.Contributor{c}}

	service := NewPeriodService()

	testCases := []struct {
		days     int
		expected int
	}{
		{7, 2},
		{30, 3},
		{365, 4},
	}
	for _, tc := range testCases {
		snapshot := service.Derive(source, tc.days, "test")
		assert.Len(t, snapshot.Entries[0].Activities, tc.expected, "window of %d days", tc.days)
	}
}

func TestDerivePeriodSorting(t *testing.T) {
	now := time.Now()
	recent := now.AddDate(0, 0, -1)

	carol := ledgerEntry("carol", models.NewRawActivity(models.ActivityPROpened, recent, nil, nil))
	alice := ledgerEntry("alice", models.NewRawActivity(models.ActivityPROpened, recent, nil, nil))
	bob := ledgerEntry("bob", models.NewRawActivity(models.ActivityPRMerged, recent, nil, nil))

	source := &models.YearSnapshot{Entries: []*models.Contributor{carol, alice, bob}}
	week := NewPeriodService().Derive(source, 7, "week")

	assert.Equal(t, "bob", week.Entries[0].Username) // 5 points
	assert.Equal(t, "alice", week.Entries[1].Username)
	assert.Equal(t, "carol", week.Entries[2].Username)
}

func TestDerivePeriodSummary(t *testing.T) {
	now := time.Now()
	recent := now.AddDate(0, 0, -1)

	alice := ledgerEntry("alice", models.NewRawActivity(models.ActivityPRMerged, recent, nil, nil))
	bob := ledgerEntry("bob", models.NewRawActivity(models.ActivityIssueOpened, recent, nil, nil))

	source := &models.YearSnapshot{Entries: []*models.Contributor{alice, bob}}
	week := NewPeriodService().Derive(source, 7, "week")

	assert.NotNil(t, week.Stats)
	assert.Equal(t, 3.0, week.Stats.Mean) // (5 + 1) / 2
	assert.Equal(t, 3.0, week.Stats.Median)

	assert.Equal(t, "alice", week.TopByActivity["PR merged"])
	assert.Equal(t, "bob", week.TopByActivity["Issue opened"])
}

func TestRecentActivities(t *testing.T) {
	now := time.Now()

	alice := ledgerEntry("alice",
		models.NewRawActivity(models.ActivityPROpened, now.AddDate(0, 0, -1), nil, nil),
		models.NewRawActivity(models.ActivityPRMerged, now.AddDate(0, 0, -1), nil, nil),
		models.NewRawActivity(models.ActivityIssueOpened, now.AddDate(0, 0, -3), nil, nil),
		models.NewRawActivity(models.ActivityIssueOpened, now.AddDate(0, 0, -30), nil, nil),
	)
	source := &models.YearSnapshot{Entries: []*models.Contributor{alice}}

	feed := NewPeriodService().RecentActivities(source, 14)

	// Two days inside the window, newest first; the 30-day-old entry is out
	assert.Len(t, feed.Groups, 2)
	assert.Greater(t, feed.Groups[0].Date, feed.Groups[1].Date)
	assert.Len(t, feed.Groups[0].Entries, 2)
	assert.Len(t, feed.Groups[1].Entries, 1)
	assert.Equal(t, "alice", feed.Groups[0].Entries[0].Username)
}
