package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"tacowasa/internal/config"
	"tacowasa/internal/github"
	"tacowasa/internal/logging"
	"tacowasa/internal/repository"
	"tacowasa/internal/service"
	"tacowasa/internal/statscache"
)

// app bundles the wired-up services shared by the subcommands.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	db      *gorm.DB
	tasks   *service.TaskService
	stats   *service.StatsService
	sync    *github.SyncService
	avatars *github.AvatarStore

	projectRepo *repository.ProjectRepository
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(logging.Config{
		Level:    cfg.LogLevel,
		FilePath: cfg.LogFile,
		JSON:     cfg.LogFile != "",
	})
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	projectRepo := repository.NewProjectRepository(db)
	stageRepo := repository.NewStageRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	workRepo := repository.NewWorkRepository(db)
	userRepo := repository.NewUserRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	linkRepo := repository.NewGitHubLinkRepository(db)

	timer := service.NewWorkTimer(workRepo)
	tasks := service.NewTaskService(db, projectRepo, stageRepo, taskRepo, timer)
	stats := service.NewStatsService(db, projectRepo, taskRepo, workRepo)

	avatars := github.NewAvatarStore(cfg.AvatarDir)
	mapper := github.NewMapper(db, stageRepo, userRepo, labelRepo)
	client := github.NewClient(cfg.GitHubToken)
	sync := github.NewSyncService(
		db, client, mapper,
		projectRepo, userRepo, labelRepo, taskRepo, linkRepo,
		avatars, cfg.HookURL, log,
	)

	return &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		tasks:       tasks,
		stats:       stats,
		sync:        sync,
		avatars:     avatars,
		projectRepo: projectRepo,
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// statsCache connects to Redis and returns the read-through cache.
func (a *app) statsCache() (*statscache.Cache, error) {
	rdb, err := statscache.NewClient(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return statscache.New(rdb, a.stats, a.cfg.StatsCacheTTL, a.log), nil
}
