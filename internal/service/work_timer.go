package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tacowasa/internal/model"
	"tacowasa/internal/repository"
)

// WorkTimer tracks start/stop of work sessions per task. Callers must
// hold the task's row lock so that concurrent start/stop calls against
// the same task are serialized by the database.
type WorkTimer struct {
	workRepo *repository.WorkRepository
}

func NewWorkTimer(workRepo *repository.WorkRepository) *WorkTimer {
	return &WorkTimer{workRepo: workRepo}
}

func (t *WorkTimer) Tx(tx *gorm.DB) *WorkTimer {
	return &WorkTimer{workRepo: t.workRepo.Tx(tx)}
}

// Start opens a new work session for the task's current assignee.
// The task must be loaded with its Stage association.
func (t *WorkTimer) Start(ctx context.Context, task *model.Task) (*model.Work, error) {
	if !task.Stage.CanWork {
		return nil, fmt.Errorf("stage %q does not allow work: %w", task.Stage.Name, ErrIllegalWorkState)
	}
	if task.UserID == nil {
		return nil, fmt.Errorf("task %d has no assignee: %w", task.ID, ErrIllegalWorkState)
	}

	open, err := t.workRepo.FindOpenByTask(ctx, task.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find open work: %w", err)
	}
	if open != nil {
		return nil, fmt.Errorf("task %d already has an open work session: %w", task.ID, ErrIllegalWorkState)
	}

	return t.workRepo.CreateOpen(ctx, task.ID, *task.UserID, time.Now())
}

// Stop closes the task's open work session.
func (t *WorkTimer) Stop(ctx context.Context, task *model.Task) (*model.Work, error) {
	open, err := t.workRepo.FindOpenByTask(ctx, task.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %d has no open work session: %w", task.ID, ErrWorkNotFound)
		}
		return nil, fmt.Errorf("find open work: %w", err)
	}

	if err := t.workRepo.Close(ctx, open, time.Now()); err != nil {
		return nil, err
	}
	return open, nil
}
