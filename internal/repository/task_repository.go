package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tacowasa/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Tx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Stage").
		Preload("User").
		Preload("Cost").
		Preload("Labels").
		Preload("Works")
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, projectID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.preload(r.db.WithContext(ctx)).
		Where("project_id = ? AND id = ?", projectID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByIDForUpdate loads a task holding a row lock for the rest of the
// enclosing transaction. Serializes work start/stop per task. SQLite
// has no FOR UPDATE; its single-writer transactions serialize anyway.
func (r *TaskRepository) FindByIDForUpdate(ctx context.Context, projectID, taskID uint) (*model.Task, error) {
	db := r.db.WithContext(ctx)
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var task model.Task
	if err := r.preload(db).
		Where("project_id = ? AND id = ?", projectID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.preload(r.db.WithContext(ctx)).
		Where("project_id = ?", projectID).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateContent applies a partial update; the map holds only provided columns.
func (r *TaskRepository) UpdateContent(ctx context.Context, projectID, taskID uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("project_id = ? AND id = ?", projectID, taskID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("update task content: %w", err)
	}
	return nil
}

// UpdateStatus writes stage and assignee together.
func (r *TaskRepository) UpdateStatus(ctx context.Context, projectID, taskID uint, stageID uint, userID *uint) error {
	updates := map[string]interface{}{
		"stage_id": stageID,
		"user_id":  userID,
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("project_id = ? AND id = ?", projectID, taskID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

func (r *TaskRepository) SetWorking(ctx context.Context, projectID, taskID uint, isWorking bool) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("project_id = ? AND id = ?", projectID, taskID).
		Update("is_working", isWorking).Error; err != nil {
		return fmt.Errorf("update working flag: %w", err)
	}
	return nil
}

// ReplaceLabels swaps the task's label set.
func (r *TaskRepository) ReplaceLabels(ctx context.Context, task *model.Task, labels []model.Label) error {
	if err := r.db.WithContext(ctx).Model(task).Association("Labels").Replace(labels); err != nil {
		return fmt.Errorf("replace task labels: %w", err)
	}
	return nil
}
