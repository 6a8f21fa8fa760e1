package main

import (
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/contribverse/leaderboard/internal/repositories"
	"github.com/contribverse/leaderboard/pkg/config"
	"github.com/contribverse/leaderboard/pkg/database"
	"github.com/contribverse/leaderboard/pkg/logger"
)

const recentRunsLimit = 20

// Serves the generated artifacts to the presentation layer. The generator
// owns the data; this process exposes the output directory and the recorded
// run history.
func main() {
	logger.Init()
	gin.SetMode(gin.ReleaseMode)

	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig

	if err := database.Init(cfg.Database.Path); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	runRepo := repositories.NewRunRepository(database.DB)

	router := gin.Default()
	router.Static("/leaderboard", cfg.Output.Dir)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/runs", func(c *gin.Context) {
		runs, err := runRepo.GetRecent(recentRunsLimit)
		if err != nil {
			logger.WithError(err).Errorf("Failed to load run history")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load runs"})
			return
		}
		c.JSON(http.StatusOK, runs)
	})

	router.GET("/runs/:id", func(c *gin.Context) {
		run, err := runRepo.GetByID(c.Param("id"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			logger.WithError(err).Errorf("Failed to load run")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
			return
		}
		c.JSON(http.StatusOK, run)
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Artifact server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
}
