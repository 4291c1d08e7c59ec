package service

import "errors"

var (
	// ErrInvalidAssignment is returned when a stage/assignee pair breaks
	// the stage's assignment rule.
	ErrInvalidAssignment = errors.New("invalid assignment for stage")

	// ErrIllegalWorkState is returned when work is started on a stage
	// that forbids it, or while another session is already open.
	ErrIllegalWorkState = errors.New("illegal work state")

	// ErrWorkNotFound is returned when stopping work with no open session.
	ErrWorkNotFound = errors.New("work not found")

	// ErrTaskBusy is returned when a status change is attempted while
	// the task is being worked on.
	ErrTaskBusy = errors.New("task is working")

	// ErrStageNotFound indicates a required well-known stage is missing.
	// Projects are seeded with all well-known stages, so this is a
	// configuration defect, not a user error.
	ErrStageNotFound = errors.New("stage not found")
)
