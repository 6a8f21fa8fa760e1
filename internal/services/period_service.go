package services

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/contribverse/leaderboard/internal/models"
	"github.com/contribverse/leaderboard/pkg/logger"
)

// PeriodService derives time-windowed leaderboard views from the year ledger
type PeriodService struct{}

// NewPeriodService creates a new PeriodService
func NewPeriodService() *PeriodService {
	return &PeriodService{}
}

// Derive builds the leaderboard view for one lookback window. Contributors
// with no activity inside the window are omitted entirely; totals and
// breakdowns are recomputed from the filtered activities only.
func (s *PeriodService) Derive(source *models.YearSnapshot, days int, period string) *models.PeriodSnapshot {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -days)

	var entries []*models.PeriodEntry
	for _, contributor := range source.Entries {
		acts := filterActivities(contributor.RawActivities, cutoff)
		if len(acts) == 0 {
			continue
		}

		scoped := models.NewContributor(contributor.Username)
		scoped.RawActivities = acts
		scoped.Recalculate()

		entries = append(entries, &models.PeriodEntry{
			Username:          contributor.Username,
			Name:              contributor.Name,
			AvatarURL:         contributor.AvatarURL,
			Role:              contributor.Role,
			TotalPoints:       scoped.TotalPoints,
			ActivityBreakdown: scoped.ActivityBreakdown,
			DailyActivity:     scoped.DailyActivity,
			Activities:        acts,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].Username < entries[j].Username
	})

	return &models.PeriodSnapshot{
		Period:        period,
		UpdatedAt:     now.UnixMilli(),
		StartDate:     cutoff.Format("2006-01-02"),
		EndDate:       now.Format("2006-01-02"),
		HiddenRoles:   []string{},
		TopByActivity: topByActivity(entries),
		Stats:         scoreSummary(entries),
		Entries:       entries,
	}
}

// RecentActivities buckets every ledger activity from the last days into
// per-day groups, newest day first
func (s *PeriodService) RecentActivities(source *models.YearSnapshot, days int) *models.RecentActivityFeed {
	cutoff := time.Now().AddDate(0, 0, -days)
	cutoffDate := cutoff.Format("2006-01-02")

	groups := make(map[string]*models.RecentActivityGroup)
	for _, contributor := range source.Entries {
		for _, act := range contributor.RawActivities {
			day := act.Date()
			if day < cutoffDate {
				continue
			}

			group, ok := groups[day]
			if !ok {
				group = &models.RecentActivityGroup{Date: day}
				groups[day] = group
			}
			group.Entries = append(group.Entries, &models.RecentActivityItem{
				Username:  contributor.Username,
				Name:      contributor.Name,
				Title:     act.Title,
				Link:      act.Link,
				AvatarURL: contributor.AvatarURL,
				Points:    act.Points,
			})
		}
	}

	feed := &models.RecentActivityFeed{
		UpdatedAt: time.Now().UnixMilli(),
		Groups:    make([]*models.RecentActivityGroup, 0, len(groups)),
	}
	for _, group := range groups {
		feed.Groups = append(feed.Groups, group)
	}
	feed.SortGroups()

	return feed
}

// filterActivities keeps activities with occured_at >= cutoff. Activities
// with unparseable timestamps are discarded.
func filterActivities(activities []*models.RawActivity, cutoff time.Time) []*models.RawActivity {
	var filtered []*models.RawActivity
	for _, a := range activities {
		t, err := a.Time()
		if err != nil {
			logger.Warnf("Discarding activity with bad timestamp %q", a.OccuredAt)
			continue
		}
		if !t.Before(cutoff) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// topByActivity maps each activity type to the contributor with the most
// points in it for this window
func topByActivity(entries []*models.PeriodEntry) map[string]string {
	top := make(map[string]string)
	best := make(map[string]int)
	for _, entry := range entries {
		for activityType, bucket := range entry.ActivityBreakdown {
			if bucket.Points > best[activityType] {
				best[activityType] = bucket.Points
				top[activityType] = entry.Username
			}
		}
	}
	return top
}

// scoreSummary computes the point distribution over the window's entries
func scoreSummary(entries []*models.PeriodEntry) *models.ScoreSummary {
	if len(entries) == 0 {
		return nil
	}

	points := make([]float64, len(entries))
	for i, entry := range entries {
		points[i] = float64(entry.TotalPoints)
	}

	mean, _ := stats.Mean(points)
	median, _ := stats.Median(points)
	p90, _ := stats.Percentile(points, 90)

	return &models.ScoreSummary{Mean: mean, Median: median, P90: p90}
}
