package service_test

import (
	"context"
	"errors"
	"testing"

	"tacowasa/internal/service"
)

func TestCreateDefaultsStageAndCost(t *testing.T) {
	e := newEnv(t)
	project, _ := e.newProject(t, "alice")
	ctx := context.Background()

	task, err := e.taskSvc.Create(ctx, project.ID, service.TaskInput{Title: "first", Body: "body"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if task.Stage.Name != service.StageIssue {
		t.Errorf("default stage = %q, want %q", task.Stage.Name, service.StageIssue)
	}
	if task.Cost.Name != "undecided" {
		t.Errorf("default cost = %q, want undecided", task.Cost.Name)
	}
	if task.UserID != nil {
		t.Errorf("assignee = %v, want nil", *task.UserID)
	}
}

func TestCreateValidatesAssignment(t *testing.T) {
	e := newEnv(t)
	project, user := e.newProject(t, "alice")
	ctx := context.Background()

	todo := e.stageByName(t, project.ID, service.StageTodo)
	issue := e.stageByName(t, project.ID, service.StageIssue)

	// Assigned stage without assignee.
	_, err := e.taskSvc.Create(ctx, project.ID, service.TaskInput{Title: "t", StageID: &todo.ID})
	if !errors.Is(err, service.ErrInvalidAssignment) {
		t.Errorf("create into todo without assignee: %v, want ErrInvalidAssignment", err)
	}

	// Unassigned stage with assignee.
	_, err = e.taskSvc.Create(ctx, project.ID, service.TaskInput{Title: "t", StageID: &issue.ID, UserID: &user.ID})
	if !errors.Is(err, service.ErrInvalidAssignment) {
		t.Errorf("create into issue with assignee: %v, want ErrInvalidAssignment", err)
	}

	// Valid pairings.
	if _, err := e.taskSvc.Create(ctx, project.ID, service.TaskInput{Title: "t", StageID: &todo.ID, UserID: &user.ID}); err != nil {
		t.Errorf("create into todo with assignee: %v", err)
	}
	if _, err := e.taskSvc.Create(ctx, project.ID, service.TaskInput{Title: "t", StageID: &issue.ID}); err != nil {
		t.Errorf("create into issue without assignee: %v", err)
	}
}

func TestUpdateContentPartial(t *testing.T) {
	e := newEnv(t)
	project, _ := e.newProject(t, "alice")
	ctx := context.Background()

	task, err := e.taskSvc.Create(ctx, project.ID, service.TaskInput{Title: "old title", Body: "old body"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newTitle := "new title"
	updated, err := e.taskSvc.UpdateContent(ctx, project.ID, task.ID, service.ContentUpdate{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if updated.Title != "new title" {
		t.Errorf("title = %q, want %q", updated.Title, "new title")
	}
	if updated.Body != "old body" {
		t.Errorf("body = %q, want untouched %q", updated.Body, "old body")
	}

	// An explicit empty string is "provided", unlike a nil field.
	empty := ""
	updated, err = e.taskSvc.UpdateContent(ctx, project.ID, task.ID, service.ContentUpdate{Body: &empty})
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if updated.Body != "" {
		t.Errorf("body = %q, want empty", updated.Body)
	}
	if updated.Title != "new title" {
		t.Errorf("title = %q, want untouched", updated.Title)
	}
}

// Scenario from the board workflow: a fresh task lands in the default
// stage, moves to todo with an assignee, gets worked on, refuses status
// changes while working, then stops and closes its work record.
func TestTaskWorkflowScenario(t *testing.T) {
	e := newEnv(t)
	project, user := e.newProject(t, "alice")
	ctx := context.Background()

	task, err := e.taskSvc.Create(ctx, project.ID, service.TaskInput{Title: "feature"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Stage.Name != service.StageIssue {
		t.Fatalf("stage = %q, want issue", task.Stage.Name)
	}

	todo := e.stageByName(t, project.ID, service.StageTodo)
	task, err = e.taskSvc.UpdateStatus(ctx, project.ID, task.ID, todo.ID, &user.ID)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if task.Stage.Name != service.StageTodo || task.UserID == nil || *task.UserID != user.ID {
		t.Fatalf("status = (%q, %v), want (todo, %d)", task.Stage.Name, task.UserID, user.ID)
	}

	work, err := e.taskSvc.SetWorking(ctx, project.ID, task.ID, true)
	if err != nil {
		t.Fatalf("SetWorking(true): %v", err)
	}
	if work.IsEnded || work.EndTime != nil {
		t.Fatalf("started work is already ended: %+v", work)
	}

	// No status change while working.
	doing := e.stageByName(t, project.ID, service.StageDoing)
	if _, err := e.taskSvc.UpdateStatus(ctx, project.ID, task.ID, doing.ID, &user.ID); !errors.Is(err, service.ErrTaskBusy) {
		t.Errorf("UpdateStatus while working: %v, want ErrTaskBusy", err)
	}

	// No double start.
	if _, err := e.taskSvc.SetWorking(ctx, project.ID, task.ID, true); !errors.Is(err, service.ErrIllegalWorkState) {
		t.Errorf("second SetWorking(true): %v, want ErrIllegalWorkState", err)
	}

	work, err = e.taskSvc.SetWorking(ctx, project.ID, task.ID, false)
	if err != nil {
		t.Fatalf("SetWorking(false): %v", err)
	}
	if !work.IsEnded || work.EndTime == nil {
		t.Fatalf("stopped work not closed: %+v", work)
	}
	if !work.EndTime.After(work.StartTime) && !work.EndTime.Equal(work.StartTime) {
		t.Errorf("end time %v before start time %v", work.EndTime, work.StartTime)
	}

	// Stopping again has nothing to close.
	if _, err := e.taskSvc.SetWorking(ctx, project.ID, task.ID, false); !errors.Is(err, service.ErrWorkNotFound) {
		t.Errorf("SetWorking(false) without open work: %v, want ErrWorkNotFound", err)
	}
}

func TestSetWorkingForbiddenStage(t *testing.T) {
	e := newEnv(t)
	project, _ := e.newProject(t, "alice")
	ctx := context.Background()

	// Default stage is issue, which forbids work.
	task, err := e.taskSvc.Create(ctx, project.ID, service.TaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := e.taskSvc.SetWorking(ctx, project.ID, task.ID, true); !errors.Is(err, service.ErrIllegalWorkState) {
		t.Errorf("SetWorking on issue stage: %v, want ErrIllegalWorkState", err)
	}
}

func TestArchiveIdempotent(t *testing.T) {
	e := newEnv(t)
	project, _ := e.newProject(t, "alice")
	ctx := context.Background()

	task, err := e.taskSvc.Create(ctx, project.ID, service.TaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	archived, err := e.taskSvc.Archive(ctx, project.ID, task.ID)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.Stage.Name != service.StageArchive {
		t.Fatalf("stage = %q, want archive", archived.Stage.Name)
	}

	again, err := e.taskSvc.Archive(ctx, project.ID, task.ID)
	if err != nil {
		t.Fatalf("second Archive: %v", err)
	}
	if again.Stage.Name != service.StageArchive {
		t.Errorf("stage after second archive = %q, want archive", again.Stage.Name)
	}
}
