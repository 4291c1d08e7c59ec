package service

import (
	"fmt"

	"tacowasa/internal/model"
)

// ValidateAssignment checks a stage/assignee pair against the stage's
// assignment rule. It must run before every stage or assignee mutation,
// including creation, status updates and synchronization-driven updates.
func ValidateAssignment(stage *model.Stage, userID *uint) error {
	if stage.Assigned && userID == nil {
		return fmt.Errorf("stage %q requires an assignee: %w", stage.Name, ErrInvalidAssignment)
	}
	if !stage.Assigned && userID != nil {
		return fmt.Errorf("stage %q forbids an assignee: %w", stage.Name, ErrInvalidAssignment)
	}
	return nil
}
