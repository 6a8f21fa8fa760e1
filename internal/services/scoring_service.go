package services

import (
	"strings"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/contribverse/leaderboard/internal/models"
)

// knownBots are automation accounts excluded even without a [bot] suffix
var knownBots = map[string]bool{
	"dependabot":     true,
	"renovate":       true,
	"github-actions": true,
}

// ScoringService maintains the in-memory contributor ledger for one run
type ScoringService struct{}

// NewScoringService creates a new ScoringService
func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// IsBot reports whether an identity is an automation account. Bot identities
// never reach the ledger, regardless of event category.
func (s *ScoringService) IsBot(user *github.User) bool {
	if user == nil || user.GetLogin() == "" {
		return true
	}
	if user.Type != nil && user.GetType() != "User" {
		return true
	}
	return IsBotLogin(user.GetLogin())
}

// IsBotLogin applies the login-based bot heuristics
func IsBotLogin(login string) bool {
	lower := strings.ToLower(login)
	if strings.HasSuffix(lower, "[bot]") || strings.HasSuffix(lower, "-bot") || strings.HasSuffix(lower, "_bot") {
		return true
	}
	if knownBots[lower] {
		return true
	}
	// Known accounts sometimes appear with an instance suffix, e.g. "renovate[abc]"
	for name := range knownBots {
		if strings.HasPrefix(lower, name+"[") {
			return true
		}
	}
	return false
}

// EnsureUser returns the ledger entry for a login, creating it if absent
func (s *ScoringService) EnsureUser(users map[string]*models.Contributor, user *github.User) *models.Contributor {
	login := user.GetLogin()
	if c, ok := users[login]; ok {
		return c
	}

	c := models.NewContributor(login)
	c.AvatarURL = user.GetAvatarURL()
	if user.Name != nil && user.GetName() != "" {
		name := user.GetName()
		c.Name = &name
	}
	users[login] = c
	return c
}

// AddActivity scores one event for a contributor. The title is sanitized
// before it is recorded.
func (s *ScoringService) AddActivity(c *models.Contributor, t models.ActivityType, occurredAt time.Time, title, link string) {
	var titlePtr, linkPtr *string
	if title != "" {
		clean := SanitizeTitle(title)
		titlePtr = &clean
	}
	if link != "" {
		linkPtr = &link
	}
	c.AddActivity(models.NewRawActivity(t, occurredAt, titlePtr, linkPtr))
}

// SanitizeTitle strips bracket characters, replaces colons and collapses
// whitespace so titles cannot break downstream layouts
func SanitizeTitle(title string) string {
	replacer := strings.NewReplacer(
		"[", "", "]", "",
		"{", "", "}", "",
		"<", "", ">", "",
		":", " ",
	)
	return strings.Join(strings.Fields(replacer.Replace(title)), " ")
}

// MergeExisting appends the prior run's raw activities into the in-memory
// ledger, creating entries for contributors not seen this run. Callers must
// run DeduplicateAndRecalculate afterwards.
func (s *ScoringService) MergeExisting(users map[string]*models.Contributor, existing *models.YearSnapshot) {
	if existing == nil {
		return
	}

	for _, entry := range existing.Entries {
		c, ok := users[entry.Username]
		if !ok {
			c = models.NewContributor(entry.Username)
			c.Name = entry.Name
			c.AvatarURL = entry.AvatarURL
			if entry.Role != "" {
				c.Role = entry.Role
			}
			users[entry.Username] = c
		}
		c.RawActivities = append(c.RawActivities, entry.RawActivities...)
	}
}

// DeduplicateAndRecalculate drops duplicate raw activities per contributor,
// keyed on (type, occured_at, link), then rebuilds every cached aggregate
// strictly from the remaining ledger. Running it twice over the same input
// leaves totals unchanged.
func (s *ScoringService) DeduplicateAndRecalculate(users map[string]*models.Contributor) {
	for _, c := range users {
		seen := make(map[string]bool, len(c.RawActivities))
		deduped := c.RawActivities[:0]
		for _, a := range c.RawActivities {
			key := a.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			deduped = append(deduped, a)
		}
		c.RawActivities = deduped
		c.Recalculate()
	}
}
