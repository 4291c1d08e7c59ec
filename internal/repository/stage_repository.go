package repository

import (
	"context"

	"gorm.io/gorm"

	"tacowasa/internal/model"
)

// StageRepository reads project stages. Stages are immutable after seeding.
type StageRepository struct {
	db *gorm.DB
}

func NewStageRepository(db *gorm.DB) *StageRepository {
	return &StageRepository{db: db}
}

func (r *StageRepository) Tx(tx *gorm.DB) *StageRepository {
	return &StageRepository{db: tx}
}

func (r *StageRepository) FindByID(ctx context.Context, projectID, stageID uint) (*model.Stage, error) {
	var stage model.Stage
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, stageID).First(&stage).Error; err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *StageRepository) FindByName(ctx context.Context, projectID uint, name string) (*model.Stage, error) {
	var stage model.Stage
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND name = ?", projectID, name).First(&stage).Error; err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *StageRepository) ListByProject(ctx context.Context, projectID uint) ([]model.Stage, error) {
	var stages []model.Stage
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).Order("id ASC").Find(&stages).Error; err != nil {
		return nil, err
	}
	return stages, nil
}
