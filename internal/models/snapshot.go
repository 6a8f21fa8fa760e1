package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ScoreSummary carries distribution statistics over the entries of a period
type ScoreSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

// PeriodEntry is a contributor view scoped to one period's window
type PeriodEntry struct {
	Username          string                    `json:"username"`
	Name              *string                   `json:"name"`
	AvatarURL         string                    `json:"avatar_url"`
	Role              string                    `json:"role"`
	TotalPoints       int                       `json:"total_points"`
	ActivityBreakdown map[string]*ActivityCount `json:"activity_breakdown"`
	DailyActivity     []*DailyActivity          `json:"daily_activity"`
	Activities        []*RawActivity            `json:"activities"`
}

// PeriodSnapshot is a derived, disposable leaderboard view for one window
type PeriodSnapshot struct {
	Period        string            `json:"period"`
	UpdatedAt     int64             `json:"updatedAt"`
	StartDate     string            `json:"startDate"`
	EndDate       string            `json:"endDate"`
	HiddenRoles   []string          `json:"hiddenRoles"`
	TopByActivity map[string]string `json:"topByActivity"`
	Stats         *ScoreSummary     `json:"stats,omitempty"`
	Entries       []*PeriodEntry    `json:"entries"`
}

// YearSnapshot is the persisted canonical ledger. LastFetchedAt is the
// high-water mark used to bound the next run's incremental fetch.
type YearSnapshot struct {
	Period        string            `json:"period"`
	UpdatedAt     int64             `json:"updatedAt"`
	LastFetchedAt int64             `json:"lastFetchedAt"`
	StartDate     string            `json:"startDate"`
	EndDate       string            `json:"endDate"`
	HiddenRoles   []string          `json:"hiddenRoles"`
	TopByActivity map[string]string `json:"topByActivity"`
	Entries       []*Contributor    `json:"entries"`
}

// RecentActivityItem is one lightweight record of the short-window feed
type RecentActivityItem struct {
	Username  string  `json:"username"`
	Name      *string `json:"name"`
	Title     *string `json:"title"`
	Link      *string `json:"link"`
	AvatarURL string  `json:"avatar_url"`
	Points    int     `json:"points"`
}

// RecentActivityGroup holds one day's feed entries. It serializes as a
// [date, entries] pair to match the artifact schema.
type RecentActivityGroup struct {
	Date    string
	Entries []*RecentActivityItem
}

// MarshalJSON encodes the group as a two-element array
func (g *RecentActivityGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{g.Date, g.Entries})
}

// UnmarshalJSON decodes the [date, entries] pair form
func (g *RecentActivityGroup) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("expected [date, entries] pair, got %d elements", len(parts))
	}
	if err := json.Unmarshal(parts[0], &g.Date); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &g.Entries)
}

// RecentActivityFeed is the day-bucketed short-window activity stream
type RecentActivityFeed struct {
	UpdatedAt int64                  `json:"updatedAt"`
	Groups    []*RecentActivityGroup `json:"groups"`
}

// SortGroups orders the feed newest day first
func (f *RecentActivityFeed) SortGroups() {
	sort.Slice(f.Groups, func(i, j int) bool {
		return f.Groups[i].Date > f.Groups[j].Date
	})
}
