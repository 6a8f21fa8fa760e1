package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/contribverse/leaderboard/internal/models"
	"github.com/contribverse/leaderboard/pkg/logger"
)

// ReviewService ingests pull request reviews across all repositories of the
// organization. A review is credited at most once per reviewer per pull
// request; only APPROVED and CHANGES_REQUESTED reviews score.
type ReviewService struct {
	github    *GitHubService
	scoring   *ScoringService
	batchSize int
}

// NewReviewService creates a new ReviewService
func NewReviewService(githubService *GitHubService, scoringService *ScoringService, batchSize int) *ReviewService {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &ReviewService{
		github:    githubService,
		scoring:   scoringService,
		batchSize: batchSize,
	}
}

// Ingest fetches and scores reviews submitted within [since, now]. Reviews
// for each repository's pull requests are fetched in fixed-size concurrent
// batches; scoring happens on the calling goroutine after each batch.
func (s *ReviewService) Ingest(ctx context.Context, users map[string]*models.Contributor, since, now time.Time) error {
	repos, err := s.github.ListOrgRepos(ctx)
	if err != nil {
		return fmt.Errorf("review phase failed: %w", err)
	}

	seen := make(map[string]bool)

	for _, repo := range repos {
		repoName := repo.GetName()

		prs, err := s.github.ListRepoPullRequests(ctx, repoName, since)
		if err != nil {
			logger.WithError(err).Warnf("Skipping reviews for %s", repoName)
			continue
		}
		logger.Infof("Fetching reviews for %d PRs in %s (batches of %d)", len(prs), repoName, s.batchSize)

		for start := 0; start < len(prs); start += s.batchSize {
			end := min(start+s.batchSize, len(prs))
			batch := prs[start:end]

			results := make([][]*github.PullRequestReview, len(batch))
			g, gctx := errgroup.WithContext(ctx)
			for i, pr := range batch {
				i, pr := i, pr
				g.Go(func() error {
					reviews, err := s.github.ListPullRequestReviews(gctx, repoName, pr.GetNumber())
					if err != nil {
						// Skip this PR's reviews, keep the batch going
						logger.WithError(err).Warnf("Failed to fetch reviews for %s#%d", repoName, pr.GetNumber())
						return nil
					}
					results[i] = reviews
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for i, pr := range batch {
				s.processReviews(users, repoName, pr, results[i], seen, since, now)
			}
		}
	}

	return nil
}

// processReviews scores one pull request's reviews against the ledger
func (s *ReviewService) processReviews(users map[string]*models.Contributor, repoName string, pr *github.PullRequest, reviews []*github.PullRequestReview, seen map[string]bool, since, now time.Time) {
	for _, review := range reviews {
		if s.scoring.IsBot(review.User) {
			continue
		}

		// Self-reviews earn nothing
		if review.User.GetLogin() == pr.User.GetLogin() {
			continue
		}

		state := review.GetState()
		if state != "APPROVED" && state != "CHANGES_REQUESTED" {
			continue
		}

		if review.SubmittedAt == nil {
			continue
		}
		submittedAt := review.SubmittedAt.Time
		if submittedAt.Before(since) || submittedAt.After(now) {
			continue
		}

		// One review per reviewer per pull request
		key := fmt.Sprintf("%s:%s:%d", review.User.GetLogin(), repoName, pr.GetNumber())
		if seen[key] {
			continue
		}
		seen[key] = true

		s.scoring.AddActivity(
			s.scoring.EnsureUser(users, review.User),
			models.ActivityReviewSubmitted,
			submittedAt,
			fmt.Sprintf("Review on PR #%d", pr.GetNumber()),
			pr.GetHTMLURL(),
		)
	}
}
