package main

import (
	"context"
	"os"

	"github.com/contribverse/leaderboard/internal/models"
	"github.com/contribverse/leaderboard/internal/repositories"
	"github.com/contribverse/leaderboard/internal/services"
	"github.com/contribverse/leaderboard/pkg/config"
	"github.com/contribverse/leaderboard/pkg/database"
	"github.com/contribverse/leaderboard/pkg/logger"
)

func main() {
	logger.Init()

	// Load configuration; missing credentials abort before any work starts
	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig
	if cfg.GitHub.Token == "" {
		logger.Fatalf("GITHUB_TOKEN is required")
	}

	// Initialize run-history database
	if err := database.Init(cfg.Database.Path); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	runRepo := repositories.NewRunRepository(database.DB)
	run := models.NewRun(cfg.GitHub.Org)
	if err := runRepo.Create(run); err != nil {
		logger.Warnf("Failed to record run %s: %v", run.ID, err)
	}

	run.MarkStarted()
	if err := runRepo.Update(run); err != nil {
		logger.Warnf("Failed to update run %s: %v", run.ID, err)
	}

	year, mode, err := generate(cfg)
	run.Mode = mode
	if err != nil {
		run.SetError(err.Error())
		run.MarkFailed()
		if updateErr := runRepo.Update(run); updateErr != nil {
			logger.Warnf("Failed to update run %s: %v", run.ID, updateErr)
		}
		logger.Errorf("Leaderboard generation failed: %v", err)
		os.Exit(1)
	}

	run.Contributors = len(year.Entries)
	for _, entry := range year.Entries {
		run.Activities += len(entry.RawActivities)
	}
	run.MarkCompleted()
	if err := runRepo.Update(run); err != nil {
		logger.Warnf("Failed to update run %s: %v", run.ID, err)
	}

	exportService := services.NewExportService(cfg.Output.Dir)
	if err := exportService.Export(year); err != nil {
		logger.Warnf("Failed to export leaderboard.xlsx: %v", err)
	}

	logger.Infof("Run %s completed: %d contributors, %d activities (%s)",
		run.ID, run.Contributors, run.Activities, run.Mode)
}

func generate(cfg *config.Config) (*models.YearSnapshot, models.RunMode, error) {
	githubService, err := services.NewGitHubService(cfg.GitHub.Org, cfg.GitHub.Token, cfg.Fetch.RequestsPerSecond)
	if err != nil {
		return nil, models.RunModeFull, err
	}

	scoringService := services.NewScoringService()
	reviewService := services.NewReviewService(githubService, scoringService, cfg.Fetch.ReviewBatchSize)
	triageService := services.NewTriageService(githubService, scoringService, cfg.Fetch.IssueBatchSize, cfg.Fetch.ChunkDays)
	periodService := services.NewPeriodService()
	overviewService := services.NewOverviewService(githubService, scoringService)
	snapshotRepo := repositories.NewSnapshotRepository(cfg.Output.Dir)

	leaderboardService := services.NewLeaderboardService(
		githubService, scoringService, reviewService, triageService,
		periodService, overviewService, snapshotRepo,
		cfg.Fetch.FullLookbackDays, cfg.Fetch.ChunkDays, cfg.Fetch.RecentDays,
	)

	return leaderboardService.Generate(context.Background())
}
