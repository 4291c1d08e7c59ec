package service

// Well-known stage names seeded into every project.
const (
	StageIssue   = "issue"
	StageBacklog = "backlog"
	StageTodo    = "todo"
	StageDoing   = "doing"
	StageReview  = "review"
	StageDone    = "done"
	StageArchive = "archive"
)

// stageRule holds the per-stage policy bits.
type stageRule struct {
	assigned bool
	canWork  bool
}

var stageRules = map[string]stageRule{
	StageIssue:   {assigned: false, canWork: false},
	StageBacklog: {assigned: false, canWork: false},
	StageTodo:    {assigned: true, canWork: true},
	StageDoing:   {assigned: true, canWork: true},
	StageReview:  {assigned: true, canWork: true},
	StageDone:    {assigned: false, canWork: false},
	StageArchive: {assigned: false, canWork: false},
}

// AssignmentRequired reports whether tasks in the named stage must
// have an assignee. Unknown stages require none.
func AssignmentRequired(stageName string) bool {
	return stageRules[stageName].assigned
}

// WorkAllowed reports whether work sessions may run in the named stage.
func WorkAllowed(stageName string) bool {
	return stageRules[stageName].canWork
}

// IsTerminalStage reports whether the named stage maps to a closed
// issue on the remote tracker.
func IsTerminalStage(stageName string) bool {
	return stageName == StageDone || stageName == StageArchive
}

// ResolveIncomingStage maps an external issue state onto a local stage:
// open and unassigned lands in issue, open and assigned in todo, and
// any closed issue in archive.
func ResolveIncomingStage(issueState string, hasAssignee bool) string {
	if issueState != "open" {
		return StageArchive
	}
	if hasAssignee {
		return StageTodo
	}
	return StageIssue
}
