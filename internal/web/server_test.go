package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tacowasa/internal/github"
	"tacowasa/internal/service"
)

type fakeApplier struct {
	applied []github.Issue
	project uint
	err     error
}

func (f *fakeApplier) ApplyRemoteIssue(ctx context.Context, projectID uint, issue github.Issue) error {
	f.project = projectID
	f.applied = append(f.applied, issue)
	return f.err
}

type fakeStats struct {
	forced bool
	err    error
}

func (f *fakeStats) Get(ctx context.Context, projectID uint, force bool) (*service.ProjectStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.forced = force
	return &service.ProjectStats{ProjectID: projectID, Throughput: 2}, nil
}

type fakeAvatars struct {
	path string
}

func (f *fakeAvatars) Find(username string) (string, error) {
	if f.path == "" {
		return "", errors.New("not found")
	}
	return f.path, nil
}

func newTestServer(applier *fakeApplier, stats *fakeStats, avatars *fakeAvatars) *Server {
	return NewServer(applier, stats, avatars, zerolog.Nop())
}

func TestHandleHook(t *testing.T) {
	applier := &fakeApplier{}
	srv := newTestServer(applier, &fakeStats{}, &fakeAvatars{})

	body := `{"action": "closed", "issue": {"number": 5, "title": "t", "state": "closed"}}`
	req := httptest.NewRequest(http.MethodPost, "/hook/42", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if applier.project != 42 {
		t.Errorf("project = %d, want 42", applier.project)
	}
	if len(applier.applied) != 1 || applier.applied[0].Number != 5 {
		t.Errorf("applied = %+v", applier.applied)
	}
}

func TestHandleHookNonIssueEvent(t *testing.T) {
	applier := &fakeApplier{}
	srv := newTestServer(applier, &fakeStats{}, &fakeAvatars{})

	// A ping delivery has no issue; it is acknowledged and dropped.
	req := httptest.NewRequest(http.MethodPost, "/hook/42", strings.NewReader(`{"zen": "ok"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(applier.applied) != 0 {
		t.Errorf("applied %d issues, want 0", len(applier.applied))
	}
}

func TestHandleHookBadRequests(t *testing.T) {
	srv := newTestServer(&fakeApplier{}, &fakeStats{}, &fakeAvatars{})

	tests := []struct {
		name string
		url  string
		body string
		want int
	}{
		{name: "bad project id", url: "/hook/abc", body: "{}", want: http.StatusBadRequest},
		{name: "bad payload", url: "/hook/1", body: "not json", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleHookApplyFailure(t *testing.T) {
	applier := &fakeApplier{err: errors.New("boom")}
	srv := newTestServer(applier, &fakeStats{}, &fakeAvatars{})

	body := `{"action": "opened", "issue": {"number": 1, "state": "open"}}`
	req := httptest.NewRequest(http.MethodPost, "/hook/1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleStats(t *testing.T) {
	stats := &fakeStats{}
	srv := newTestServer(&fakeApplier{}, stats, &fakeAvatars{})

	req := httptest.NewRequest(http.MethodGet, "/projects/7/stats", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got service.ProjectStats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ProjectID != 7 || got.Throughput != 2 {
		t.Errorf("stats = %+v", got)
	}
	if stats.forced {
		t.Error("forced recompute without force=1")
	}

	req = httptest.NewRequest(http.MethodGet, "/projects/7/stats?force=1", nil)
	srv.ServeHTTP(httptest.NewRecorder(), req)
	if !stats.forced {
		t.Error("force=1 did not force recompute")
	}
}

func TestHandleAvatar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice.png")
	if err := os.WriteFile(path, []byte("pngdata"), 0o644); err != nil {
		t.Fatalf("write avatar: %v", err)
	}

	srv := newTestServer(&fakeApplier{}, &fakeStats{}, &fakeAvatars{path: path})

	req := httptest.NewRequest(http.MethodGet, "/users/alice/avatar", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "pngdata" {
		t.Errorf("body = %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/users/nobody/avatar", nil)
	rec = httptest.NewRecorder()
	newTestServer(&fakeApplier{}, &fakeStats{}, &fakeAvatars{}).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
