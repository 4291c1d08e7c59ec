package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tacowasa/internal/model"
	"tacowasa/internal/repository"
)

// TaskInput represents data required to create a task. StageID, UserID
// and CostID are optional; stage and cost fall back to the project's
// configured defaults.
type TaskInput struct {
	Title   string
	Body    string
	StageID *uint
	UserID  *uint
	CostID  *uint
}

// ContentUpdate is a partial task update. Nil fields are left untouched,
// which keeps "not provided" distinct from "set to empty".
type ContentUpdate struct {
	Title  *string
	Body   *string
	CostID *uint
}

// TaskService orchestrates the task lifecycle: creation, content and
// status updates, archival and work-state toggles.
type TaskService struct {
	db          *gorm.DB
	projectRepo *repository.ProjectRepository
	stageRepo   *repository.StageRepository
	taskRepo    *repository.TaskRepository
	timer       *WorkTimer
}

func NewTaskService(
	db *gorm.DB,
	projectRepo *repository.ProjectRepository,
	stageRepo *repository.StageRepository,
	taskRepo *repository.TaskRepository,
	timer *WorkTimer,
) *TaskService {
	return &TaskService{
		db:          db,
		projectRepo: projectRepo,
		stageRepo:   stageRepo,
		taskRepo:    taskRepo,
		timer:       timer,
	}
}

// Tx returns a copy of the service bound to the given transaction.
func (s *TaskService) Tx(tx *gorm.DB) *TaskService {
	return &TaskService{
		db:          tx,
		projectRepo: s.projectRepo.Tx(tx),
		stageRepo:   s.stageRepo.Tx(tx),
		taskRepo:    s.taskRepo.Tx(tx),
		timer:       s.timer.Tx(tx),
	}
}

// Create validates and persists a new task, defaulting stage and cost
// from the project when omitted.
func (s *TaskService) Create(ctx context.Context, projectID uint, input TaskInput) (*model.Task, error) {
	var created *model.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		svc := s.Tx(tx)

		var project model.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			return fmt.Errorf("find project: %w", err)
		}

		stageID := project.DefaultStageID
		if input.StageID != nil {
			stageID = input.StageID
		}
		if stageID == nil {
			return fmt.Errorf("project %d has no default stage: %w", projectID, ErrStageNotFound)
		}

		stage, err := svc.stageRepo.FindByID(ctx, projectID, *stageID)
		if err != nil {
			return fmt.Errorf("find stage: %w", err)
		}
		if err := ValidateAssignment(stage, input.UserID); err != nil {
			return err
		}

		costID := project.DefaultCostID
		if input.CostID != nil {
			costID = input.CostID
		}

		task := model.Task{
			ProjectID: projectID,
			Title:     input.Title,
			Body:      input.Body,
			StageID:   *stageID,
			UserID:    input.UserID,
		}
		if costID != nil {
			task.CostID = *costID
		}
		if err := svc.taskRepo.Create(ctx, &task); err != nil {
			return err
		}

		created, err = svc.taskRepo.FindByID(ctx, projectID, task.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateContent applies a partial update of title, body and/or cost.
func (s *TaskService) UpdateContent(ctx context.Context, projectID, taskID uint, update ContentUpdate) (*model.Task, error) {
	updates := map[string]interface{}{}
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Body != nil {
		updates["body"] = *update.Body
	}
	if update.CostID != nil {
		updates["cost_id"] = *update.CostID
	}

	if err := s.taskRepo.UpdateContent(ctx, projectID, taskID, updates); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, projectID, taskID)
}

// UpdateStatus moves a task to a new stage/assignee pair. The pair is
// re-validated against the target stage, and the change is refused
// while the task is being worked on.
func (s *TaskService) UpdateStatus(ctx context.Context, projectID, taskID uint, stageID uint, userID *uint) (*model.Task, error) {
	var updated *model.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		svc := s.Tx(tx)

		task, err := svc.taskRepo.FindByIDForUpdate(ctx, projectID, taskID)
		if err != nil {
			return fmt.Errorf("find task: %w", err)
		}
		if task.IsWorking {
			return fmt.Errorf("cannot update status of task %q: %w", task.Title, ErrTaskBusy)
		}

		stage, err := svc.stageRepo.FindByID(ctx, projectID, stageID)
		if err != nil {
			return fmt.Errorf("find stage: %w", err)
		}
		if err := ValidateAssignment(stage, userID); err != nil {
			return err
		}

		if err := svc.taskRepo.UpdateStatus(ctx, projectID, taskID, stageID, userID); err != nil {
			return err
		}

		updated, err = svc.taskRepo.FindByID(ctx, projectID, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Archive forces the task into the project's archive stage. Archival is
// the terminal state; archiving an archived task is a no-op.
func (s *TaskService) Archive(ctx context.Context, projectID, taskID uint) (*model.Task, error) {
	archiveStage, err := s.stageRepo.FindByName(ctx, projectID, StageArchive)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", projectID, ErrStageNotFound)
	}

	if err := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("project_id = ? AND id = ?", projectID, taskID).
		Update("stage_id", archiveStage.ID).Error; err != nil {
		return nil, fmt.Errorf("archive task: %w", err)
	}
	return s.taskRepo.FindByID(ctx, projectID, taskID)
}

// SetWorking starts or stops a work session on the task.
func (s *TaskService) SetWorking(ctx context.Context, projectID, taskID uint, isWorking bool) (*model.Work, error) {
	var work *model.Work
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		svc := s.Tx(tx)

		task, err := svc.taskRepo.FindByIDForUpdate(ctx, projectID, taskID)
		if err != nil {
			return fmt.Errorf("find task: %w", err)
		}
		if !task.Stage.CanWork {
			return fmt.Errorf("stage %q does not allow work: %w", task.Stage.Name, ErrIllegalWorkState)
		}

		if isWorking {
			work, err = svc.timer.Start(ctx, task)
		} else {
			work, err = svc.timer.Stop(ctx, task)
		}
		if err != nil {
			return err
		}

		return svc.taskRepo.SetWorking(ctx, projectID, taskID, isWorking)
	})
	if err != nil {
		return nil, err
	}
	return work, nil
}
