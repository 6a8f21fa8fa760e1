package models

import (
	"fmt"
	"strings"
	"time"
)

// ActivityType identifies a scored contributor action
type ActivityType string

const (
	ActivityPROpened        ActivityType = "PR opened"
	ActivityPRMerged        ActivityType = "PR merged"
	ActivityIssueOpened     ActivityType = "Issue opened"
	ActivityReviewSubmitted ActivityType = "Review submitted"
	ActivityIssueLabeled    ActivityType = "Issue labeled"
	ActivityIssueAssigned   ActivityType = "Issue assigned"
	ActivityIssueClosed     ActivityType = "Issue closed"
)

// activityPoints maps each activity type to its fixed point value
var activityPoints = map[ActivityType]int{
	ActivityPROpened:        2,
	ActivityPRMerged:        5,
	ActivityIssueOpened:     1,
	ActivityReviewSubmitted: 3,
	ActivityIssueLabeled:    1,
	ActivityIssueAssigned:   1,
	ActivityIssueClosed:     2,
}

// PointsFor returns the point value for an activity type (0 for unknown types)
func PointsFor(t ActivityType) int {
	return activityPoints[t]
}

// RawActivity is one immutable scored event in a contributor's ledger
type RawActivity struct {
	Type      ActivityType `json:"type"`
	OccuredAt string       `json:"occured_at"`
	Title     *string      `json:"title"`
	Link      *string      `json:"link"`
	Points    int          `json:"points"`
}

// NewRawActivity creates a RawActivity with the fixed points for its type
func NewRawActivity(t ActivityType, occurredAt time.Time, title, link *string) *RawActivity {
	return &RawActivity{
		Type:      t,
		OccuredAt: occurredAt.UTC().Format(time.RFC3339),
		Title:     title,
		Link:      link,
		Points:    PointsFor(t),
	}
}

// Date returns the date portion of the activity timestamp
func (a *RawActivity) Date() string {
	if idx := strings.IndexByte(a.OccuredAt, 'T'); idx > 0 {
		return a.OccuredAt[:idx]
	}
	return a.OccuredAt
}

// Time parses the activity timestamp
func (a *RawActivity) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, a.OccuredAt)
}

// Key returns the composite key used to deduplicate activities during merge
func (a *RawActivity) Key() string {
	link := ""
	if a.Link != nil {
		link = *a.Link
	}
	return fmt.Sprintf("%s|%s|%s", a.Type, a.OccuredAt, link)
}
