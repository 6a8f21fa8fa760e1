package services

import (
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"

	"github.com/contribverse/leaderboard/internal/models"
)

func TestParseIssueRef(t *testing.T) {
	testCases := []struct {
		name           string
		url            string
		expectedRepo   string
		expectedNumber int
		expectError    bool
	}{
		{
			name:           "Valid issue URL",
			url:            "https://github.com/CircuitVerse/CircuitVerse/issues/123",
			expectedRepo:   "CircuitVerse",
			expectedNumber: 123,
		},
		{
			name:        "Pull request URL",
			url:         "https://github.com/org/repo/pull/5",
			expectError: true,
		},
		{
			name:        "Non-numeric issue number",
			url:         "https://github.com/org/repo/issues/abc",
			expectError: true,
		},
		{
			name:        "Too few path segments",
			url:         "https://github.com/org/repo",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, number, err := parseIssueRef(tc.url)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedRepo, repo)
			assert.Equal(t, tc.expectedNumber, number)
		})
	}
}

func TestNewTriageServiceDefaults(t *testing.T) {
	service := NewTriageService(nil, NewScoringService(), 0, 0)
	assert.Equal(t, 10, service.batchSize)
	assert.Equal(t, 30, service.chunkDays)
}

func TestIsAutomatedLabel(t *testing.T) {
	assert.True(t, isAutomatedLabel("stale"))
	assert.True(t, isAutomatedLabel("Dependencies"))
	assert.True(t, isAutomatedLabel("wontfix: old"))
	assert.False(t, isAutomatedLabel("bug"))
	assert.False(t, isAutomatedLabel("good first issue"))
}

func TestProcessIssueEvents(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	inWindow := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	issue := &github.Issue{
		Number:  github.Int(7),
		Title:   github.String("Broken simulation"),
		HTMLURL: github.String("https://github.com/org/repo/issues/7"),
		User:    &github.User{Login: github.String("reporter"), Type: github.String("User")},
	}

	makeEvent := func(kind, actor string, at time.Time) *github.IssueEvent {
		return &github.IssueEvent{
			Event:     github.String(kind),
			Actor:     &github.User{Login: github.String(actor), Type: github.String("User")},
			CreatedAt: &github.Timestamp{Time: at},
		}
	}

	t.Run("Labeled event scores for the actor", func(t *testing.T) {
		service := NewTriageService(nil, NewScoringService(), 10, 30)
		users := make(map[string]*models.Contributor)

		event := makeEvent("labeled", "maintainer", inWindow)
		event.Label = &github.Label{Name: github.String("bug")}
		service.processIssueEvents(users, issue, []*github.IssueEvent{event}, since, now)

		assert.Equal(t, 1, users["maintainer"].TotalPoints)
		assert.Equal(t, 1, users["maintainer"].ActivityBreakdown["Issue labeled"].Count)
	})

	t.Run("Automated labels do not score", func(t *testing.T) {
		service := NewTriageService(nil, NewScoringService(), 10, 30)
		users := make(map[string]*models.Contributor)

		event := makeEvent("labeled", "maintainer", inWindow)
		event.Label = &github.Label{Name: github.String("stale")}
		service.processIssueEvents(users, issue, []*github.IssueEvent{event}, since, now)

		assert.Empty(t, users)
	})

	t.Run("Self-assignments do not score", func(t *testing.T) {
		service := NewTriageService(nil, NewScoringService(), 10, 30)
		users := make(map[string]*models.Contributor)

		event := makeEvent("assigned", "maintainer", inWindow)
		event.Assignee = &github.User{Login: github.String("maintainer")}
		service.processIssueEvents(users, issue, []*github.IssueEvent{event}, since, now)

		assert.Zero(t, users["maintainer"].TotalPoints)
	})

	t.Run("Assigning another user scores", func(t *testing.T) {
		service := NewTriageService(nil, NewScoringService(), 10, 30)
		users := make(map[string]*models.Contributor)

		event := makeEvent("assigned", "maintainer", inWindow)
		event.Assignee = &github.User{Login: github.String("newcomer")}
		service.processIssueEvents(users, issue, []*github.IssueEvent{event}, since, now)

		assert.Equal(t, 1, users["maintainer"].TotalPoints)
	})

	t.Run("Author closing own issue does not score", func(t *testing.T) {
		service := NewTriageService(nil, NewScoringService(), 10, 30)
		users := make(map[string]*models.Contributor)

		event := makeEvent("closed", "reporter", inWindow)
		service.processIssueEvents(users, issue, []*github.IssueEvent{event}, since, now)

		assert.Zero(t, users["reporter"].TotalPoints)
	})

	t.Run("Maintainer closing scores", func(t *testing.T) {
		service := NewTriageService(nil, NewScoringService(), 10, 30)
		users := make(map[string]*models.Contributor)

		event := makeEvent("closed", "maintainer", inWindow)
		service.processIssueEvents(users, issue, []*github.IssueEvent{event}, since, now)

		assert.Equal(t, 2, users["maintainer"].TotalPoints)
	})

	t.Run("Events outside the window do not score", func(t *testing.T) {
		service := NewTriageService(nil, NewScoringService(), 10, 30)
		users := make(map[string]*models.Contributor)

		event := makeEvent("closed", "maintainer", since.Add(-time.Hour))
		service.processIssueEvents(users, issue, []*github.IssueEvent{event}, since, now)

		assert.Empty(t, users)
	})

	t.Run("Bot actors are excluded", func(t *testing.T) {
		service := NewTriageService(nil, NewScoringService(), 10, 30)
		users := make(map[string]*models.Contributor)

		event := makeEvent("closed", "github-actions", inWindow)
		service.processIssueEvents(users, issue, []*github.IssueEvent{event}, since, now)

		assert.Empty(t, users)
	})
}
