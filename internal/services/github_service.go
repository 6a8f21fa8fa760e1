package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/contribverse/leaderboard/pkg/logger"
)

const searchPageSize = 100

// GitHubService is the remote event source adapter. All API access goes
// through it: search queries are split into fixed-size date chunks to stay
// under the search result cap, every call waits on a shared token-bucket
// limiter, and secondary rate limits are handled by the transport.
type GitHubService struct {
	client  *github.Client
	limiter *rate.Limiter
	org     string
}

// NewGitHubService creates an adapter for one organization. requestsPerSecond
// bounds the sustained request rate across all phases.
func NewGitHubService(org, token string, requestsPerSecond float64) (*GitHubService, error) {
	waiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   waiter,
			Source: ts,
		},
	}

	return &GitHubService{
		client:  github.NewClient(httpClient),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		org:     org,
	}, nil
}

// Org returns the organization this adapter is scoped to
func (s *GitHubService) Org() string {
	return s.org
}

// SearchByDateChunks runs a search query over [since, now), partitioned into
// chunkDays sub-windows on the given date field ("created", "merged" or
// "updated"). Each sub-window is paginated to completion, which keeps every
// single query safely under the API's result-set cap.
func (s *GitHubService) SearchByDateChunks(ctx context.Context, query string, since, now time.Time, chunkDays int, dateField string) ([]*github.Issue, error) {
	if dateField == "" {
		dateField = "created"
	}

	var all []*github.Issue
	for _, w := range splitDateWindows(since, now, chunkDays) {
		chunkQuery := fmt.Sprintf("%s %s:%s..%s",
			query, dateField, w.start.Format("2006-01-02"), w.end.Format("2006-01-02"))

		items, err := s.searchAllPages(ctx, chunkQuery)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}

	return all, nil
}

type dateWindow struct {
	start, end time.Time
}

// splitDateWindows partitions [since, now) into chunkDays-sized windows; the
// final window is truncated at now
func splitDateWindows(since, now time.Time, chunkDays int) []dateWindow {
	if chunkDays <= 0 {
		chunkDays = 30
	}
	chunk := time.Duration(chunkDays) * 24 * time.Hour

	var windows []dateWindow
	for start := since; start.Before(now); start = start.Add(chunk) {
		end := start.Add(chunk)
		if end.After(now) {
			end = now
		}
		windows = append(windows, dateWindow{start: start, end: end})
	}
	return windows
}

func (s *GitHubService) searchAllPages(ctx context.Context, query string) ([]*github.Issue, error) {
	opts := &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: searchPageSize},
	}

	var all []*github.Issue
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, resp, err := s.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("search %q failed: %w", query, err)
		}
		all = append(all, result.Issues...)

		if resp.NextPage == 0 || len(result.Issues) < searchPageSize {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListOrgRepos lists all repositories of the organization
func (s *GitHubService) ListOrgRepos(ctx context.Context) ([]*github.Repository, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.Repository
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		repos, resp, err := s.client.Repositories.ListByOrg(ctx, s.org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories for %s: %w", s.org, err)
		}
		all = append(all, repos...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// GetRepo fetches a single repository's metadata
func (s *GitHubService) GetRepo(ctx context.Context, repo string) (*github.Repository, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	r, _, err := s.client.Repositories.Get(ctx, s.org, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository %s/%s: %w", s.org, repo, err)
	}
	return r, nil
}

// ListRepoPullRequests lists pull requests created since the given time,
// newest first. Pagination stops early once a page's oldest item predates
// the window start.
func (s *GitHubService) ListRepoPullRequests(ctx context.Context, repo string, since time.Time) ([]*github.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.PullRequest
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		prs, resp, err := s.client.PullRequests.List(ctx, s.org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests for %s/%s: %w", s.org, repo, err)
		}

		done := false
		for _, pr := range prs {
			if pr.GetCreatedAt().Time.Before(since) {
				done = true
				break
			}
			all = append(all, pr)
		}

		if done || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListClosedPullRequests lists closed pull requests sorted by update time,
// newest first
func (s *GitHubService) ListClosedPullRequests(ctx context.Context, repo string) ([]*github.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.PullRequest
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		prs, resp, err := s.client.PullRequests.List(ctx, s.org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list closed pull requests for %s/%s: %w", s.org, repo, err)
		}
		all = append(all, prs...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListPullRequestReviews lists all reviews of one pull request
func (s *GitHubService) ListPullRequestReviews(ctx context.Context, repo string, number int) ([]*github.PullRequestReview, error) {
	opts := &github.ListOptions{PerPage: 100}

	var all []*github.PullRequestReview
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		reviews, resp, err := s.client.PullRequests.ListReviews(ctx, s.org, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews for %s/%s#%d: %w", s.org, repo, number, err)
		}
		all = append(all, reviews...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListIssueEvents lists the timeline events of one issue
func (s *GitHubService) ListIssueEvents(ctx context.Context, repo string, number int) ([]*github.IssueEvent, error) {
	opts := &github.ListOptions{PerPage: 100}

	var all []*github.IssueEvent
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		events, resp, err := s.client.Issues.ListIssueEvents(ctx, s.org, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list events for %s/%s#%d: %w", s.org, repo, number, err)
		}
		all = append(all, events...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListRepoIssuesSince lists all issues (including pull requests, which
// callers must filter out) updated since the given time
func (s *GitHubService) ListRepoIssuesSince(ctx context.Context, repo string, since time.Time) ([]*github.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.Issue
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		issues, resp, err := s.client.Issues.ListByRepo(ctx, s.org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues for %s/%s: %w", s.org, repo, err)
		}
		all = append(all, issues...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logger.Debugf("Fetched %d issues for %s/%s", len(all), s.org, repo)
	return all, nil
}
