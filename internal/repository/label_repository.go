package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tacowasa/internal/model"
)

// LabelRepository manages project labels.
type LabelRepository struct {
	db *gorm.DB
}

func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

func (r *LabelRepository) Tx(tx *gorm.DB) *LabelRepository {
	return &LabelRepository{db: tx}
}

func (r *LabelRepository) ListByProject(ctx context.Context, projectID uint) ([]model.Label, error) {
	var labels []model.Label
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).Order("name ASC").Find(&labels).Error; err != nil {
		return nil, err
	}
	return labels, nil
}

func (r *LabelRepository) Create(ctx context.Context, label *model.Label) error {
	if err := r.db.WithContext(ctx).Create(label).Error; err != nil {
		return fmt.Errorf("create label: %w", err)
	}
	return nil
}

// ReplaceAll drops the project's label set and installs a new one.
// Used by repository import, which mirrors the remote labels exactly.
func (r *LabelRepository) ReplaceAll(ctx context.Context, projectID uint, labels []model.Label) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("project_id = ?", projectID).Delete(&model.Label{}).Error; err != nil {
		return fmt.Errorf("clear labels: %w", err)
	}
	for i := range labels {
		labels[i].ProjectID = projectID
		if err := db.Create(&labels[i]).Error; err != nil {
			return fmt.Errorf("create label %q: %w", labels[i].Name, err)
		}
	}
	return nil
}
