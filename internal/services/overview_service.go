package services

import (
	"context"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/contribverse/leaderboard/internal/models"
	"github.com/contribverse/leaderboard/pkg/logger"
)

const overviewWindowDays = 30

// OverviewService rebuilds the per-repository overview on every run. One
// repository's failure is logged and skipped; it never aborts the run.
type OverviewService struct {
	github  *GitHubService
	scoring *ScoringService
}

// NewOverviewService creates a new OverviewService
func NewOverviewService(githubService *GitHubService, scoringService *ScoringService) *OverviewService {
	return &OverviewService{
		github:  githubService,
		scoring: scoringService,
	}
}

// Generate computes current-window and previous-window statistics for every
// repository of the organization
func (s *OverviewService) Generate(ctx context.Context) (*models.Overview, error) {
	now := time.Now()
	currentStart := now.AddDate(0, 0, -overviewWindowDays)
	previousStart := now.AddDate(0, 0, -2*overviewWindowDays)

	repos, err := s.github.ListOrgRepos(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("Generating overview for %d repositories", len(repos))

	overview := &models.Overview{
		UpdatedAt: now.UnixMilli(),
		Period:    "Last_30days",
	}

	for _, repo := range repos {
		repoName := repo.GetName()

		meta, err := s.github.GetRepo(ctx, repoName)
		if err != nil {
			logger.WithError(err).Warnf("Skipping %s (meta fetch failed)", repoName)
			continue
		}

		entry, err := s.repoStats(ctx, meta, currentStart, previousStart, now)
		if err != nil {
			logger.WithError(err).Warnf("Skipping %s (stats failed)", repoName)
			continue
		}
		overview.Repos = append(overview.Repos, entry)
	}

	return overview, nil
}

func (s *OverviewService) repoStats(ctx context.Context, meta *github.Repository, currentStart, previousStart, now time.Time) (*models.RepoStats, error) {
	repoName := meta.GetName()

	issues, err := s.github.ListRepoIssuesSince(ctx, repoName, currentStart)
	if err != nil {
		return nil, err
	}
	issueCreated := s.countIssuesCreated(issues, currentStart)

	openedPRs, err := s.github.ListRepoPullRequests(ctx, repoName, currentStart)
	if err != nil {
		return nil, err
	}
	prOpened := s.countHumanPRs(openedPRs)

	closedPRs, err := s.github.ListClosedPullRequests(ctx, repoName)
	if err != nil {
		return nil, err
	}
	prMerged, prMergedPrev := s.classifyMergedPRs(closedPRs, currentStart, previousStart, now)

	return &models.RepoStats{
		Name:        repoName,
		Description: meta.Description,
		Language:    meta.Language,
		AvatarURL:   meta.GetOwner().GetAvatarURL(),
		HTMLURL:     meta.GetHTMLURL(),
		Stars:       meta.GetStargazersCount(),
		Forks:       meta.GetForksCount(),
		Current: models.RepoWindowStats{
			PROpened:                 prOpened,
			PRMerged:                 prMerged,
			IssueCreated:             issueCreated,
			CurrentTotalContribution: issueCreated + prOpened + prMerged,
		},
		Previous: models.RepoPreviousStats{PRMerged: prMergedPrev},
		Growth:   models.RepoGrowth{PRMerged: prMerged - prMergedPrev},
	}, nil
}

// countIssuesCreated counts human-authored issues created inside the current
// window, excluding pull requests
func (s *OverviewService) countIssuesCreated(issues []*github.Issue, start time.Time) int {
	count := 0
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		if issue.CreatedAt == nil || issue.CreatedAt.Time.Before(start) {
			continue
		}
		if s.scoring.IsBot(issue.User) {
			continue
		}
		count++
	}
	return count
}

// countHumanPRs counts non-bot pull requests from an already window-bounded
// listing
func (s *OverviewService) countHumanPRs(prs []*github.PullRequest) int {
	count := 0
	for _, pr := range prs {
		if !s.scoring.IsBot(pr.User) {
			count++
		}
	}
	return count
}

// classifyMergedPRs buckets merged pull requests into the current and
// previous windows by merge time
func (s *OverviewService) classifyMergedPRs(prs []*github.PullRequest, currentStart, previousStart, now time.Time) (current, previous int) {
	for _, pr := range prs {
		if pr.MergedAt == nil {
			continue
		}
		if s.scoring.IsBot(pr.User) {
			continue
		}

		mergedAt := pr.MergedAt.Time
		switch {
		case !mergedAt.Before(currentStart) && !mergedAt.After(now):
			current++
		case !mergedAt.Before(previousStart) && mergedAt.Before(currentStart):
			previous++
		}
	}
	return current, previous
}
