package services

import (
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"

	"github.com/contribverse/leaderboard/internal/models"
)

func TestIsBot(t *testing.T) {
	service := NewScoringService()

	testCases := []struct {
		name     string
		user     *github.User
		expected bool
	}{
		{
			name:     "Regular user",
			user:     &github.User{Login: github.String("alice"), Type: github.String("User")},
			expected: false,
		},
		{
			name:     "Bracket bot suffix",
			user:     &github.User{Login: github.String("renovate[bot]"), Type: github.String("User")},
			expected: true,
		},
		{
			name:     "Dash bot suffix",
			user:     &github.User{Login: github.String("deploy-bot"), Type: github.String("User")},
			expected: true,
		},
		{
			name:     "Underscore bot suffix",
			user:     &github.User{Login: github.String("ci_bot"), Type: github.String("User")},
			expected: true,
		},
		{
			name:     "Known automation account",
			user:     &github.User{Login: github.String("dependabot"), Type: github.String("User")},
			expected: true,
		},
		{
			name:     "Bot account type",
			user:     &github.User{Login: github.String("some-app"), Type: github.String("Bot")},
			expected: true,
		},
		{
			name:     "Missing login",
			user:     &github.User{},
			expected: true,
		},
		{
			name:     "Nil user",
			user:     nil,
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, service.IsBot(tc.user))
		})
	}
}

func TestSanitizeTitle(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Brackets stripped", "[WIP] Fix parser", "WIP Fix parser"},
		{"Colons replaced", "fix: broken build", "fix broken build"},
		{"Whitespace collapsed", "too   many    spaces", "too many spaces"},
		{"Angle brackets stripped", "Add <Component> wrapper", "Add Component wrapper"},
		{"Clean title unchanged", "Improve error messages", "Improve error messages"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeTitle(tc.input))
		})
	}
}

func TestEnsureUser(t *testing.T) {
	service := NewScoringService()
	users := make(map[string]*models.Contributor)

	user := &github.User{
		Login:     github.String("alice"),
		AvatarURL: github.String("https://example.com/alice.png"),
	}

	first := service.EnsureUser(users, user)
	assert.Equal(t, "alice", first.Username)
	assert.Equal(t, "https://example.com/alice.png", first.AvatarURL)
	assert.Equal(t, models.DefaultRole, first.Role)
	assert.Zero(t, first.TotalPoints)

	// Second call returns the same entry
	second := service.EnsureUser(users, user)
	assert.Same(t, first, second)
	assert.Len(t, users, 1)
}

func TestAddActivitySanitizesTitle(t *testing.T) {
	service := NewScoringService()
	c := models.NewContributor("alice")

	service.AddActivity(c, models.ActivityPROpened, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"[bug]: crash  on start", "https://github.com/org/repo/pull/1")

	assert.Len(t, c.RawActivities, 1)
	assert.Equal(t, "bug crash on start", *c.RawActivities[0].Title)
	assert.Equal(t, "https://github.com/org/repo/pull/1", *c.RawActivities[0].Link)
	assert.Equal(t, 2, c.TotalPoints)
}

func TestDeduplicateAndRecalculate(t *testing.T) {
	service := NewScoringService()
	occurred := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	link := "https://github.com/org/repo/pull/1"

	c := models.NewContributor("alice")
	c.AddActivity(models.NewRawActivity(models.ActivityPROpened, occurred, nil, &link))
	// Same event recorded twice, e.g. from an overlapping incremental window
	c.AddActivity(models.NewRawActivity(models.ActivityPROpened, occurred, nil, &link))
	c.AddActivity(models.NewRawActivity(models.ActivityPRMerged, occurred.AddDate(0, 0, 2), nil, &link))

	users := map[string]*models.Contributor{"alice": c}
	service.DeduplicateAndRecalculate(users)

	assert.Len(t, c.RawActivities, 2)
	assert.Equal(t, 7, c.TotalPoints)

	// Running the merge step again must not change totals
	service.DeduplicateAndRecalculate(users)
	assert.Len(t, c.RawActivities, 2)
	assert.Equal(t, 7, c.TotalPoints)
}

func TestMergeExisting(t *testing.T) {
	service := NewScoringService()
	occurred := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	fresh := models.NewContributor("alice")
	fresh.AddActivity(models.NewRawActivity(models.ActivityIssueOpened, occurred, nil, nil))
	users := map[string]*models.Contributor{"alice": fresh}

	prevAlice := models.NewContributor("alice")
	prevAlice.AddActivity(models.NewRawActivity(models.ActivityPRMerged, occurred.AddDate(0, 0, -30), nil, nil))
	prevBob := models.NewContributor("bob")
	prevBob.AddActivity(models.NewRawActivity(models.ActivityPROpened, occurred.AddDate(0, 0, -10), nil, nil))

	existing := &models.YearSnapshot{Entries: []*models.Contributor{prevAlice, prevBob}}

	service.MergeExisting(users, existing)
	service.DeduplicateAndRecalculate(users)

	assert.Len(t, users, 2)
	assert.Equal(t, 6, users["alice"].TotalPoints) // 1 + 5
	assert.Equal(t, 2, users["bob"].TotalPoints)

	// Merging the same prior ledger again must be a no-op after dedup
	service.MergeExisting(users, existing)
	service.DeduplicateAndRecalculate(users)
	assert.Equal(t, 6, users["alice"].TotalPoints)
	assert.Equal(t, 2, users["bob"].TotalPoints)
}
