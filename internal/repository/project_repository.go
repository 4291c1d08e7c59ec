package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tacowasa/internal/model"
)

// Default options seeded into every new project.
var (
	defaultStages = []model.Stage{
		{Name: "issue", DisplayName: "Issue", Assigned: false, CanWork: false},
		{Name: "backlog", DisplayName: "Backlog", Assigned: false, CanWork: false},
		{Name: "todo", DisplayName: "TODO", Assigned: true, CanWork: true},
		{Name: "doing", DisplayName: "Doing", Assigned: true, CanWork: true},
		{Name: "review", DisplayName: "Review", Assigned: true, CanWork: true},
		{Name: "done", DisplayName: "Done", Assigned: false, CanWork: false},
		{Name: "archive", DisplayName: "Archive", Assigned: false, CanWork: false},
	}

	defaultCosts = []model.Cost{
		{Name: "low", Value: 1},
		{Name: "medium", Value: 3},
		{Name: "high", Value: 5},
		{Name: "undecided", Value: 999},
	}

	defaultLabels = []model.Label{
		{Name: "bug", Color: "fc2929"},
		{Name: "enhancement", Color: "009800"},
		{Name: "feature", Color: "0052cc"},
	}
)

// ProjectRepository manages projects and their seeded options.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Tx returns a copy of the repository bound to the given transaction.
func (r *ProjectRepository) Tx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

// Create persists a new project, seeds its default stages, costs and
// labels, and adds the creating user as owner.
func (r *ProjectRepository) Create(ctx context.Context, name string, createUser *model.User) (*model.Project, error) {
	db := r.db.WithContext(ctx)

	project := model.Project{Name: name, CreateUserID: createUser.ID}
	if err := db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	stages := make([]model.Stage, len(defaultStages))
	copy(stages, defaultStages)
	for i := range stages {
		stages[i].ProjectID = project.ID
	}
	if err := db.Create(&stages).Error; err != nil {
		return nil, fmt.Errorf("seed stages: %w", err)
	}

	costs := make([]model.Cost, len(defaultCosts))
	copy(costs, defaultCosts)
	for i := range costs {
		costs[i].ProjectID = project.ID
	}
	if err := db.Create(&costs).Error; err != nil {
		return nil, fmt.Errorf("seed costs: %w", err)
	}

	labels := make([]model.Label, len(defaultLabels))
	copy(labels, defaultLabels)
	for i := range labels {
		labels[i].ProjectID = project.ID
	}
	if err := db.Create(&labels).Error; err != nil {
		return nil, fmt.Errorf("seed labels: %w", err)
	}

	var defaultStage model.Stage
	if err := db.Where("project_id = ? AND name = ?", project.ID, "issue").First(&defaultStage).Error; err != nil {
		return nil, fmt.Errorf("find default stage: %w", err)
	}
	var defaultCost model.Cost
	if err := db.Where("project_id = ? AND name = ?", project.ID, "undecided").First(&defaultCost).Error; err != nil {
		return nil, fmt.Errorf("find default cost: %w", err)
	}

	updates := map[string]interface{}{
		"default_stage_id": defaultStage.ID,
		"default_cost_id":  defaultCost.ID,
	}
	if err := db.Model(&project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("set project defaults: %w", err)
	}

	if err := db.Create(&model.Member{ProjectID: project.ID, UserID: createUser.ID, IsOwner: true}).Error; err != nil {
		return nil, fmt.Errorf("add owner: %w", err)
	}

	return r.FindByID(ctx, project.ID)
}

// FindByID loads a project with all its associations.
func (r *ProjectRepository) FindByID(ctx context.Context, projectID uint) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Stages").
		Preload("Costs").
		Preload("Labels").
		Preload("Tasks").
		Preload("Members").
		Preload("Members.User").
		First(&project, projectID).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) ListAll(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := r.db.WithContext(ctx).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// AddMember adds a user to a project. No-op if already a member.
func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID uint, isOwner bool) (*model.Member, error) {
	db := r.db.WithContext(ctx)

	var member model.Member
	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error
	switch {
	case err == nil:
		return &member, nil
	case err == gorm.ErrRecordNotFound:
		member = model.Member{ProjectID: projectID, UserID: userID, IsOwner: isOwner}
		if err := db.Create(&member).Error; err != nil {
			return nil, fmt.Errorf("add member: %w", err)
		}
		return &member, nil
	default:
		return nil, fmt.Errorf("find member: %w", err)
	}
}

func (r *ProjectRepository) ListMembers(ctx context.Context, projectID uint) ([]model.Member, error) {
	var members []model.Member
	if err := r.db.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
