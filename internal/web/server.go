// Package web exposes the webhook callback and the small read-only
// HTTP surface (avatars, project stats).
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"tacowasa/internal/github"
	"tacowasa/internal/service"
)

// HookApplier consumes inbound issue events. *github.SyncService
// implements it.
type HookApplier interface {
	ApplyRemoteIssue(ctx context.Context, projectID uint, issue github.Issue) error
}

// StatsProvider serves project stats snapshots. *statscache.Cache
// implements it.
type StatsProvider interface {
	Get(ctx context.Context, projectID uint, force bool) (*service.ProjectStats, error)
}

// AvatarFinder locates stored avatar files. *github.AvatarStore
// implements it.
type AvatarFinder interface {
	Find(username string) (string, error)
}

// Server routes inbound HTTP traffic.
type Server struct {
	sync    HookApplier
	stats   StatsProvider
	avatars AvatarFinder
	log     zerolog.Logger
	mux     *http.ServeMux
}

func NewServer(sync HookApplier, stats StatsProvider, avatars AvatarFinder, log zerolog.Logger) *Server {
	s := &Server{
		sync:    sync,
		stats:   stats,
		avatars: avatars,
		log:     log,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /hook/{projectID}", s.handleHook)
	s.mux.HandleFunc("GET /users/{username}/avatar", s.handleAvatar)
	s.mux.HandleFunc("GET /projects/{projectID}/stats", s.handleStats)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Listen serves until the context is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// hookPayload is the subset of a GitHub issues event we consume.
type hookPayload struct {
	Action string       `json:"action"`
	Issue  github.Issue `json:"issue"`
}

func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseID(r.PathValue("projectID"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	var payload hookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.Issue.Number == 0 {
		// Not an issue event (e.g. ping or member); acknowledge and drop.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.sync.ApplyRemoteIssue(r.Context(), projectID, payload.Issue); err != nil {
		s.log.Error().Err(err).
			Uint("project_id", projectID).
			Int("number", payload.Issue.Number).
			Str("action", payload.Action).
			Msg("webhook apply failed")
		http.Error(w, "apply failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	path, err := s.avatars.Find(r.PathValue("username"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseID(r.PathValue("projectID"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	force := r.URL.Query().Get("force") == "1"
	stats, err := s.stats.Get(r.Context(), projectID, force)
	if err != nil {
		s.log.Error().Err(err).Uint("project_id", projectID).Msg("stats computation failed")
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.log.Warn().Err(err).Msg("stats encode failed")
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
