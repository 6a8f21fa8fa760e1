package services

import (
	"context"
	"fmt"
	"time"

	"github.com/contribverse/leaderboard/internal/models"
	"github.com/contribverse/leaderboard/internal/repositories"
	"github.com/contribverse/leaderboard/pkg/logger"
)

// phaseTimeout bounds each ingestion phase so one stalled phase cannot hang
// the whole run
const phaseTimeout = 30 * time.Minute

// LeaderboardService drives one generation run: ingest every event category,
// merge with the persisted ledger, recompute, and write all artifacts
type LeaderboardService struct {
	github           *GitHubService
	scoring          *ScoringService
	reviews          *ReviewService
	triage           *TriageService
	periods          *PeriodService
	overview         *OverviewService
	snapshots        *repositories.SnapshotRepository
	fullLookbackDays int
	chunkDays        int
	recentDays       int
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(
	githubService *GitHubService,
	scoringService *ScoringService,
	reviewService *ReviewService,
	triageService *TriageService,
	periodService *PeriodService,
	overviewService *OverviewService,
	snapshotRepo *repositories.SnapshotRepository,
	fullLookbackDays, chunkDays, recentDays int,
) *LeaderboardService {
	return &LeaderboardService{
		github:           githubService,
		scoring:          scoringService,
		reviews:          reviewService,
		triage:           triageService,
		periods:          periodService,
		overview:         overviewService,
		snapshots:        snapshotRepo,
		fullLookbackDays: fullLookbackDays,
		chunkDays:        chunkDays,
		recentDays:       recentDays,
	}
}

// Generate runs the full pipeline and returns the written year snapshot.
// Ingestion phases are isolated: one failing phase is logged and the rest
// still run, so partial data is written rather than nothing.
func (s *LeaderboardService) Generate(ctx context.Context) (*models.YearSnapshot, models.RunMode, error) {
	now := time.Now()
	users := make(map[string]*models.Contributor)

	existing := s.snapshots.LoadYear()
	mode := models.RunModeFull
	since := now.AddDate(0, 0, -s.fullLookbackDays)
	if existing != nil && existing.LastFetchedAt > 0 {
		mode = models.RunModeIncremental
		since = time.UnixMilli(existing.LastFetchedAt)
		logger.Infof("Incremental update since %s", since.Format("2006-01-02"))
	} else {
		logger.Infof("Full fetch from %s", since.Format("2006-01-02"))
	}

	phasesOK := true
	phasesOK = s.runPhase(ctx, "PR opened", func(pctx context.Context) error {
		return s.ingestPROpened(pctx, users, since, now)
	}) && phasesOK
	phasesOK = s.runPhase(ctx, "PR merged", func(pctx context.Context) error {
		return s.ingestPRMerged(pctx, users, since, now)
	}) && phasesOK
	phasesOK = s.runPhase(ctx, "Issue opened", func(pctx context.Context) error {
		return s.ingestIssuesOpened(pctx, users, since, now)
	}) && phasesOK
	phasesOK = s.runPhase(ctx, "Review", func(pctx context.Context) error {
		return s.reviews.Ingest(pctx, users, since, now)
	}) && phasesOK
	phasesOK = s.runPhase(ctx, "Triage", func(pctx context.Context) error {
		return s.triage.Ingest(pctx, users, since, now)
	}) && phasesOK

	if mode == models.RunModeIncremental {
		logger.Info("Merging with existing ledger")
		s.scoring.MergeExisting(users, existing)
	}

	s.scoring.DeduplicateAndRecalculate(users)

	var entries []*models.Contributor
	for _, c := range users {
		if c.TotalPoints > 0 {
			entries = append(entries, c)
		}
	}
	models.SortContributors(entries)

	// The display range always covers the full year even on incremental runs
	displaySince := now.AddDate(0, 0, -s.fullLookbackDays)
	year := &models.YearSnapshot{
		Period:        "year",
		UpdatedAt:     now.UnixMilli(),
		LastFetchedAt: nextFetchCursor(existing, now, phasesOK),
		StartDate:     displaySince.Format("2006-01-02"),
		EndDate:       now.Format("2006-01-02"),
		HiddenRoles:   []string{},
		TopByActivity: map[string]string{},
		Entries:       entries,
	}

	if err := s.snapshots.SaveYear(year); err != nil {
		return nil, mode, fmt.Errorf("failed to persist year ledger: %w", err)
	}
	logger.Infof("Generated year.json (%s, %d contributors)", mode, len(entries))

	s.writeDerivedArtifacts(ctx, year)

	return year, mode, nil
}

// runPhase executes one ingestion phase under the phase timeout. A phase
// failure is logged, not propagated; the caller learns about it through the
// return value.
func (s *LeaderboardService) runPhase(ctx context.Context, name string, phase func(context.Context) error) bool {
	pctx, cancel := context.WithTimeout(ctx, phaseTimeout)
	defer cancel()
	if err := phase(pctx); err != nil {
		logger.WithError(err).Errorf("%s phase failed, continuing", name)
		return false
	}
	return true
}

// nextFetchCursor decides the high-water mark written to the year ledger.
// When any ingestion phase failed, the previous cursor is kept so the next
// run refetches the window that phase never covered; merge dedup collapses
// the overlap with events that did land this run.
func nextFetchCursor(existing *models.YearSnapshot, now time.Time, allPhasesSucceeded bool) int64 {
	if allPhasesSucceeded {
		return now.UnixMilli()
	}
	logger.Warnf("One or more phases failed, keeping previous fetch cursor")
	if existing != nil {
		return existing.LastFetchedAt
	}
	return 0
}

func (s *LeaderboardService) ingestPROpened(ctx context.Context, users map[string]*models.Contributor, since, now time.Time) error {
	logger.Info("Fetching opened pull requests")
	query := fmt.Sprintf("org:%s is:pr", s.github.Org())
	items, err := s.github.SearchByDateChunks(ctx, query, since, now, s.chunkDays, "created")
	if err != nil {
		return err
	}

	for _, pr := range items {
		if s.scoring.IsBot(pr.User) || pr.CreatedAt == nil {
			continue
		}
		s.scoring.AddActivity(
			s.scoring.EnsureUser(users, pr.User),
			models.ActivityPROpened,
			pr.CreatedAt.Time,
			pr.GetTitle(),
			pr.GetHTMLURL(),
		)
	}
	return nil
}

func (s *LeaderboardService) ingestPRMerged(ctx context.Context, users map[string]*models.Contributor, since, now time.Time) error {
	logger.Info("Fetching merged pull requests")
	query := fmt.Sprintf("org:%s is:pr is:merged", s.github.Org())
	items, err := s.github.SearchByDateChunks(ctx, query, since, now, s.chunkDays, "merged")
	if err != nil {
		return err
	}

	for _, pr := range items {
		// Merge time is reported as closed_at on search results
		if s.scoring.IsBot(pr.User) || pr.ClosedAt == nil {
			continue
		}
		s.scoring.AddActivity(
			s.scoring.EnsureUser(users, pr.User),
			models.ActivityPRMerged,
			pr.ClosedAt.Time,
			pr.GetTitle(),
			pr.GetHTMLURL(),
		)
	}
	return nil
}

func (s *LeaderboardService) ingestIssuesOpened(ctx context.Context, users map[string]*models.Contributor, since, now time.Time) error {
	logger.Info("Fetching opened issues")
	query := fmt.Sprintf("org:%s is:issue", s.github.Org())
	items, err := s.github.SearchByDateChunks(ctx, query, since, now, s.chunkDays, "created")
	if err != nil {
		return err
	}

	for _, issue := range items {
		if s.scoring.IsBot(issue.User) || issue.CreatedAt == nil {
			continue
		}
		s.scoring.AddActivity(
			s.scoring.EnsureUser(users, issue.User),
			models.ActivityIssueOpened,
			issue.CreatedAt.Time,
			issue.GetTitle(),
			issue.GetHTMLURL(),
		)
	}
	return nil
}

// writeDerivedArtifacts regenerates every stateless projection of the ledger
func (s *LeaderboardService) writeDerivedArtifacts(ctx context.Context, year *models.YearSnapshot) {
	for _, window := range []struct {
		days   int
		period string
	}{
		{7, "week"},
		{30, "month"},
		{60, "2month"},
	} {
		snapshot := s.periods.Derive(year, window.days, window.period)
		if err := s.snapshots.SavePeriod(snapshot); err != nil {
			logger.WithError(err).Errorf("Failed to write %s.json", window.period)
			continue
		}
		logger.Infof("Generated %s.json (%d entries)", window.period, len(snapshot.Entries))
	}

	feed := s.periods.RecentActivities(year, s.recentDays)
	if err := s.snapshots.SaveRecentActivities(feed); err != nil {
		logger.WithError(err).Errorf("Failed to write recent-activities.json")
	} else {
		logger.Infof("Generated recent-activities.json (%d days)", len(feed.Groups))
	}

	octx, cancel := context.WithTimeout(ctx, phaseTimeout)
	defer cancel()
	overview, err := s.overview.Generate(octx)
	if err != nil {
		logger.WithError(err).Errorf("Overview phase failed, continuing")
		return
	}
	if err := s.snapshots.SaveOverview(overview); err != nil {
		logger.WithError(err).Errorf("Failed to write overview.json")
		return
	}
	logger.Infof("Generated overview.json (%d repos)", len(overview.Repos))
}
