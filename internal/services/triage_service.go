package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/contribverse/leaderboard/internal/models"
	"github.com/contribverse/leaderboard/pkg/logger"
)

// automatedLabels are label name fragments applied by tooling rather than a
// triaging human; labeled events carrying them are not scored
var automatedLabels = []string{
	"stale",
	"wontfix",
	"duplicate",
	"invalid",
	"dependencies",
	"security",
	"github_actions",
}

// TriageService ingests non-authoring issue actions (labeling, assignment,
// closing) and credits them to the acting user
type TriageService struct {
	github    *GitHubService
	scoring   *ScoringService
	batchSize int
	chunkDays int
}

// NewTriageService creates a new TriageService
func NewTriageService(githubService *GitHubService, scoringService *ScoringService, batchSize, chunkDays int) *TriageService {
	if batchSize <= 0 {
		batchSize = 10
	}
	if chunkDays <= 0 {
		chunkDays = 30
	}
	return &TriageService{
		github:    githubService,
		scoring:   scoringService,
		batchSize: batchSize,
		chunkDays: chunkDays,
	}
}

// Ingest scans issues updated within [since, now] for triage events. Event
// timelines are fetched in fixed-size concurrent batches; scoring happens on
// the calling goroutine after each batch.
func (s *TriageService) Ingest(ctx context.Context, users map[string]*models.Contributor, since, now time.Time) error {
	query := fmt.Sprintf("org:%s is:issue", s.github.Org())
	issues, err := s.github.SearchByDateChunks(ctx, query, since, now, s.chunkDays, "updated")
	if err != nil {
		return fmt.Errorf("triage phase failed: %w", err)
	}
	logger.Infof("Scanning %d updated issues for triage events", len(issues))

	for start := 0; start < len(issues); start += s.batchSize {
		end := min(start+s.batchSize, len(issues))
		batch := issues[start:end]

		results := make([][]*github.IssueEvent, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, issue := range batch {
			i, issue := i, issue
			g.Go(func() error {
				repoName, number, err := parseIssueRef(issue.GetHTMLURL())
				if err != nil {
					logger.WithError(err).Debugf("Skipping issue %s", issue.GetHTMLURL())
					return nil
				}
				events, err := s.github.ListIssueEvents(gctx, repoName, number)
				if err != nil {
					// One issue's failure must not abort the phase
					logger.WithError(err).Warnf("Failed to fetch events for %s#%d", repoName, number)
					return nil
				}
				results[i] = events
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, issue := range batch {
			s.processIssueEvents(users, issue, results[i], since, now)
		}
	}

	return nil
}

// processIssueEvents scores one issue's triage events against the ledger
func (s *TriageService) processIssueEvents(users map[string]*models.Contributor, issue *github.Issue, events []*github.IssueEvent, since, now time.Time) {
	for _, event := range events {
		if s.scoring.IsBot(event.Actor) {
			continue
		}

		if event.CreatedAt == nil {
			continue
		}
		occurredAt := event.CreatedAt.Time
		if occurredAt.Before(since) || occurredAt.After(now) {
			continue
		}

		actor := s.scoring.EnsureUser(users, event.Actor)

		switch event.GetEvent() {
		case "labeled":
			label := event.GetLabel().GetName()
			if label == "" || isAutomatedLabel(label) {
				continue
			}
			s.scoring.AddActivity(actor, models.ActivityIssueLabeled, occurredAt,
				fmt.Sprintf("Labeled issue #%d %s", issue.GetNumber(), label),
				issue.GetHTMLURL())

		case "assigned":
			// Self-assignments are not triage work
			assignee := event.GetAssignee().GetLogin()
			if assignee == "" || assignee == event.Actor.GetLogin() {
				continue
			}
			s.scoring.AddActivity(actor, models.ActivityIssueAssigned, occurredAt,
				fmt.Sprintf("Assigned issue #%d to %s", issue.GetNumber(), assignee),
				issue.GetHTMLURL())

		case "closed":
			// Authors closing their own issues earn nothing
			if event.Actor.GetLogin() == issue.GetUser().GetLogin() {
				continue
			}
			s.scoring.AddActivity(actor, models.ActivityIssueClosed, occurredAt,
				fmt.Sprintf("Closed issue #%d %s", issue.GetNumber(), issue.GetTitle()),
				issue.GetHTMLURL())
		}
	}
}

// parseIssueRef extracts the repository name and issue number from an issue's
// HTML URL, e.g. https://github.com/org/repo/issues/42
func parseIssueRef(htmlURL string) (string, int, error) {
	u, err := url.Parse(htmlURL)
	if err != nil {
		return "", 0, err
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "issues" {
		return "", 0, fmt.Errorf("not an issue URL: %s", htmlURL)
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil {
		return "", 0, fmt.Errorf("invalid issue number in %s: %w", htmlURL, err)
	}

	return parts[1], number, nil
}

func isAutomatedLabel(name string) bool {
	lower := strings.ToLower(name)
	for _, auto := range automatedLabels {
		if strings.Contains(lower, auto) {
			return true
		}
	}
	return false
}
