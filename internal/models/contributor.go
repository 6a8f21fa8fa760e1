package models

import "sort"

// DefaultRole is assigned to every contributor not covered by roster data
const DefaultRole = "Contributor"

// ActivityCount is one bucket of the per-type activity breakdown
type ActivityCount struct {
	Count  int `json:"count"`
	Points int `json:"points"`
}

// DailyActivity aggregates a contributor's activity for a single date
type DailyActivity struct {
	Date   string `json:"date"`
	Count  int    `json:"count"`
	Points int    `json:"points"`
}

// Contributor is one leaderboard entry. RawActivities is the canonical
// append-only ledger; TotalPoints, ActivityBreakdown and DailyActivity are
// caches that must always be recomputable from it.
type Contributor struct {
	Username          string                    `json:"username"`
	Name              *string                   `json:"name"`
	AvatarURL         string                    `json:"avatar_url"`
	Role              string                    `json:"role"`
	TotalPoints       int                       `json:"total_points"`
	ActivityBreakdown map[string]*ActivityCount `json:"activity_breakdown"`
	DailyActivity     []*DailyActivity          `json:"daily_activity"`
	RawActivities     []*RawActivity            `json:"raw_activities"`
}

// NewContributor creates a Contributor with zero state
func NewContributor(username string) *Contributor {
	return &Contributor{
		Username:          username,
		Role:              DefaultRole,
		ActivityBreakdown: make(map[string]*ActivityCount),
		DailyActivity:     []*DailyActivity{},
		RawActivities:     []*RawActivity{},
	}
}

// AddActivity appends a raw activity and incrementally updates the caches
func (c *Contributor) AddActivity(a *RawActivity) {
	c.RawActivities = append(c.RawActivities, a)
	c.apply(a)
}

// Recalculate rebuilds every cached aggregate strictly from RawActivities
func (c *Contributor) Recalculate() {
	c.TotalPoints = 0
	c.ActivityBreakdown = make(map[string]*ActivityCount)
	c.DailyActivity = []*DailyActivity{}
	for _, a := range c.RawActivities {
		c.apply(a)
	}
}

func (c *Contributor) apply(a *RawActivity) {
	c.TotalPoints += a.Points

	bucket, ok := c.ActivityBreakdown[string(a.Type)]
	if !ok {
		bucket = &ActivityCount{}
		c.ActivityBreakdown[string(a.Type)] = bucket
	}
	bucket.Count++
	bucket.Points += a.Points

	day := a.Date()
	var daily *DailyActivity
	for _, d := range c.DailyActivity {
		if d.Date == day {
			daily = d
			break
		}
	}
	if daily == nil {
		daily = &DailyActivity{Date: day}
		c.DailyActivity = append(c.DailyActivity, daily)
		sort.Slice(c.DailyActivity, func(i, j int) bool {
			return c.DailyActivity[i].Date < c.DailyActivity[j].Date
		})
	}
	daily.Count++
	daily.Points += a.Points
}

// SortContributors orders entries by total points descending,
// ties broken by username ascending
func SortContributors(entries []*Contributor) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].Username < entries[j].Username
	})
}
