package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tacowasa/internal/model"
)

// WorkRepository handles work session records.
type WorkRepository struct {
	db *gorm.DB
}

func NewWorkRepository(db *gorm.DB) *WorkRepository {
	return &WorkRepository{db: db}
}

func (r *WorkRepository) Tx(tx *gorm.DB) *WorkRepository {
	return &WorkRepository{db: tx}
}

// CreateOpen starts a new work session for the task.
func (r *WorkRepository) CreateOpen(ctx context.Context, taskID, userID uint, startTime time.Time) (*model.Work, error) {
	work := model.Work{TaskID: taskID, UserID: userID, StartTime: startTime}
	if err := r.db.WithContext(ctx).Create(&work).Error; err != nil {
		return nil, fmt.Errorf("create work: %w", err)
	}
	return &work, nil
}

// FindOpenByTask returns the non-ended work record for a task, or
// gorm.ErrRecordNotFound when none is open.
func (r *WorkRepository) FindOpenByTask(ctx context.Context, taskID uint) (*model.Work, error) {
	var work model.Work
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND is_ended = ?", taskID, false).
		Order("start_time DESC").First(&work).Error; err != nil {
		return nil, err
	}
	return &work, nil
}

// Close ends an open work session.
func (r *WorkRepository) Close(ctx context.Context, work *model.Work, endTime time.Time) error {
	work.EndTime = &endTime
	work.IsEnded = true
	if err := r.db.WithContext(ctx).Save(work).Error; err != nil {
		return fmt.Errorf("close work: %w", err)
	}
	return nil
}

// ListByProject returns all work records joined through the project's tasks.
func (r *WorkRepository) ListByProject(ctx context.Context, projectID uint) ([]model.Work, error) {
	var works []model.Work
	if err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = works.task_id").
		Where("tasks.project_id = ?", projectID).
		Find(&works).Error; err != nil {
		return nil, err
	}
	return works, nil
}
