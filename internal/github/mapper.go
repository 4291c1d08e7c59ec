package github

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tacowasa/internal/model"
	"tacowasa/internal/repository"
	"tacowasa/internal/service"
)

// TaskDraft is the internal representation of a remote issue, ready to
// be persisted as a task plus its link row.
type TaskDraft struct {
	Title         string
	Body          string
	Stage         *model.Stage
	UserID        *uint
	CostID        *uint
	LabelIDs      []uint
	Number        int
	IsPullRequest bool
}

// Mapper translates between remote issues and internal tasks.
type Mapper struct {
	db        *gorm.DB
	stageRepo *repository.StageRepository
	userRepo  *repository.UserRepository
	labelRepo *repository.LabelRepository
}

func NewMapper(db *gorm.DB, stageRepo *repository.StageRepository, userRepo *repository.UserRepository, labelRepo *repository.LabelRepository) *Mapper {
	return &Mapper{db: db, stageRepo: stageRepo, userRepo: userRepo, labelRepo: labelRepo}
}

func (m *Mapper) Tx(tx *gorm.DB) *Mapper {
	return &Mapper{
		db:        tx,
		stageRepo: m.stageRepo.Tx(tx),
		userRepo:  m.userRepo.Tx(tx),
		labelRepo: m.labelRepo.Tx(tx),
	}
}

// ToTaskDraft maps a remote issue onto the project's stages, users and
// labels. Stage rules win over the remote assignee: the assignee is
// resolved only when the mapped stage requires assignment. Label names
// with no match in the project are dropped, not created.
func (m *Mapper) ToTaskDraft(ctx context.Context, projectID uint, issue Issue) (*TaskDraft, error) {
	stageName := service.ResolveIncomingStage(issue.State, issue.Assignee != nil)
	stage, err := m.stageRepo.FindByName(ctx, projectID, stageName)
	if err != nil {
		return nil, fmt.Errorf("project %d has no stage %q: %w", projectID, stageName, service.ErrStageNotFound)
	}

	var userID *uint
	if stage.Assigned && issue.Assignee != nil {
		user, err := m.userRepo.FindOrCreate(ctx, issue.Assignee.Login)
		if err != nil {
			return nil, err
		}
		userID = &user.ID
	}

	projectLabels, err := m.labelRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project labels: %w", err)
	}
	byName := make(map[string]uint, len(projectLabels))
	for _, label := range projectLabels {
		byName[label.Name] = label.ID
	}
	var labelIDs []uint
	for _, label := range issue.Labels {
		if id, ok := byName[label.Name]; ok {
			labelIDs = append(labelIDs, id)
		}
	}

	var project model.Project
	if err := m.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}

	return &TaskDraft{
		Title:         issue.Title,
		Body:          issue.Body,
		Stage:         stage,
		UserID:        userID,
		CostID:        project.DefaultCostID,
		LabelIDs:      labelIDs,
		Number:        issue.Number,
		IsPullRequest: issue.IsPullRequest(),
	}, nil
}

// ToIssuePayload builds the outbound issue representation for a local
// task. The task must be loaded with Stage, User and Labels.
func ToIssuePayload(task *model.Task) IssuePayload {
	state := "open"
	if service.IsTerminalStage(task.Stage.Name) {
		state = "closed"
	}

	var assignee *string
	if task.User != nil {
		assignee = &task.User.Username
	}

	labels := make([]string, 0, len(task.Labels))
	for _, label := range task.Labels {
		labels = append(labels, label.Name)
	}

	return IssuePayload{
		Title:    task.Title,
		Body:     task.Body,
		State:    state,
		Assignee: assignee,
		Labels:   labels,
	}
}
