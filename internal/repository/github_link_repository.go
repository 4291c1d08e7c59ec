package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tacowasa/internal/model"
)

// GitHubLinkRepository stores the repository and per-task link rows
// tying local entities to their GitHub counterparts.
type GitHubLinkRepository struct {
	db *gorm.DB
}

func NewGitHubLinkRepository(db *gorm.DB) *GitHubLinkRepository {
	return &GitHubLinkRepository{db: db}
}

func (r *GitHubLinkRepository) Tx(tx *gorm.DB) *GitHubLinkRepository {
	return &GitHubLinkRepository{db: tx}
}

// FindRepository returns the linked repository for a project, or nil
// when the project is not linked to GitHub.
func (r *GitHubLinkRepository) FindRepository(ctx context.Context, projectID uint) (*model.GitHubRepository, error) {
	var repo model.GitHubRepository
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&repo).Error
	switch {
	case err == nil:
		return &repo, nil
	case err == gorm.ErrRecordNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("find github repository: %w", err)
	}
}

func (r *GitHubLinkRepository) CreateRepository(ctx context.Context, repo *model.GitHubRepository) error {
	if err := r.db.WithContext(ctx).Create(repo).Error; err != nil {
		return fmt.Errorf("create github repository: %w", err)
	}
	return nil
}

// FindTaskLink returns the issue link row for a task, or nil when the
// task has never been synchronized.
func (r *GitHubLinkRepository) FindTaskLink(ctx context.Context, projectID, taskID uint) (*model.GitHubTask, error) {
	var link model.GitHubTask
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND task_id = ?", projectID, taskID).First(&link).Error
	switch {
	case err == nil:
		return &link, nil
	case err == gorm.ErrRecordNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("find github task link: %w", err)
	}
}

// FindTaskLinkByNumber resolves an issue number back to its link row.
// Used by inbound webhook deliveries.
func (r *GitHubLinkRepository) FindTaskLinkByNumber(ctx context.Context, projectID uint, number int) (*model.GitHubTask, error) {
	var link model.GitHubTask
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND number = ?", projectID, number).First(&link).Error
	switch {
	case err == nil:
		return &link, nil
	case err == gorm.ErrRecordNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("find github task link by number: %w", err)
	}
}

func (r *GitHubLinkRepository) CreateTaskLink(ctx context.Context, link *model.GitHubTask) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("create github task link: %w", err)
	}
	return nil
}
