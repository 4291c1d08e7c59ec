package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tacowasa/internal/service"
	"tacowasa/internal/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and stats server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cache, err := a.statsCache()
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(a.cfg.StatsRefreshInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		projects, err := a.projectRepo.ListAll(jobCtx)
		if err != nil {
			a.log.Error().Err(err).Msg("stats refresh: list projects failed")
			return
		}
		for _, project := range projects {
			if _, err := cache.Get(jobCtx, project.ID, true); err != nil {
				a.log.Warn().Err(err).Uint("project_id", project.ID).Msg("stats refresh failed")
			}
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := web.NewServer(a.sync, cache, a.avatars, a.log)
	a.log.Info().Str("addr", a.cfg.ListenAddr).Msg("server started")
	if err := server.Listen(ctx, a.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.log.Info().Msg("shutdown complete")
	return nil
}
