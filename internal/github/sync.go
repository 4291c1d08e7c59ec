package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"tacowasa/internal/model"
	"tacowasa/internal/repository"
	"tacowasa/internal/service"
)

// API is the remote issue tracker surface the sync service depends on.
// *Client implements it; tests substitute a fake.
type API interface {
	CreateIssue(ctx context.Context, owner, repo string, payload IssuePayload) (*Issue, error)
	EditIssue(ctx context.Context, owner, repo string, number int, payload IssuePayload) (*Issue, error)
	ListCollaborators(ctx context.Context, owner, repo string) ([]Collaborator, error)
	ListLabels(ctx context.Context, owner, repo string) ([]RepoLabel, error)
	ListAllIssues(ctx context.Context, owner, repo string) ([]Issue, error)
	CreateHook(ctx context.Context, owner, repo, hookURL string) error
	GetUser(ctx context.Context, username string) (*UserProfile, error)
	FetchImage(ctx context.Context, url string) ([]byte, string, error)
}

// ImportInput identifies the repository to import and the user running
// the import, who becomes the project owner.
type ImportInput struct {
	Owner    string
	Repo     string
	Username string
}

// SyncService mirrors local task changes to GitHub and imports whole
// repositories as new projects. Synchronization is best-effort per
// project: unlinked projects are silently skipped.
type SyncService struct {
	db          *gorm.DB
	api         API
	mapper      *Mapper
	projectRepo *repository.ProjectRepository
	userRepo    *repository.UserRepository
	labelRepo   *repository.LabelRepository
	taskRepo    *repository.TaskRepository
	linkRepo    *repository.GitHubLinkRepository
	avatars     *AvatarStore
	hookURL     string
	log         zerolog.Logger
}

func NewSyncService(
	db *gorm.DB,
	api API,
	mapper *Mapper,
	projectRepo *repository.ProjectRepository,
	userRepo *repository.UserRepository,
	labelRepo *repository.LabelRepository,
	taskRepo *repository.TaskRepository,
	linkRepo *repository.GitHubLinkRepository,
	avatars *AvatarStore,
	hookURL string,
	log zerolog.Logger,
) *SyncService {
	return &SyncService{
		db:          db,
		api:         api,
		mapper:      mapper,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		labelRepo:   labelRepo,
		taskRepo:    taskRepo,
		linkRepo:    linkRepo,
		avatars:     avatars,
		hookURL:     hookURL,
		log:         log,
	}
}

// CreateRemoteTask creates the issue behind a freshly created local
// task and records the link row. No-op when the project is not linked.
// The local task is authoritative: it is already committed when this
// runs, and a remote failure leaves it untouched.
func (s *SyncService) CreateRemoteTask(ctx context.Context, projectID uint, task *model.Task) error {
	repo, err := s.linkRepo.FindRepository(ctx, projectID)
	if err != nil {
		return err
	}
	if repo == nil {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payload := ToIssuePayload(task)
		issue, err := s.api.CreateIssue(ctx, repo.Username, repo.Reponame, payload)
		if err != nil {
			return fmt.Errorf("create remote issue: %w", err)
		}

		// The create endpoint always opens the issue; close it right
		// away when the local stage is terminal.
		if service.IsTerminalStage(task.Stage.Name) {
			if _, err := s.api.EditIssue(ctx, repo.Username, repo.Reponame, issue.Number, IssuePayload{
				Title:    payload.Title,
				Body:     payload.Body,
				State:    "closed",
				Assignee: payload.Assignee,
				Labels:   payload.Labels,
			}); err != nil {
				return fmt.Errorf("close remote issue: %w", err)
			}
		}

		return s.linkRepo.Tx(tx).CreateTaskLink(ctx, &model.GitHubTask{
			ProjectID:     projectID,
			TaskID:        task.ID,
			Number:        issue.Number,
			IsPullRequest: issue.IsPullRequest(),
		})
	})
}

// UpdateRemoteTask pushes a local task edit to its linked issue. No-op
// when the project is unlinked or the task has no link row.
func (s *SyncService) UpdateRemoteTask(ctx context.Context, projectID uint, task *model.Task) error {
	repo, err := s.linkRepo.FindRepository(ctx, projectID)
	if err != nil {
		return err
	}
	if repo == nil {
		return nil
	}

	link, err := s.linkRepo.FindTaskLink(ctx, projectID, task.ID)
	if err != nil {
		return err
	}
	if link == nil {
		return nil
	}

	if _, err := s.api.EditIssue(ctx, repo.Username, repo.Reponame, link.Number, ToIssuePayload(task)); err != nil {
		return fmt.Errorf("update remote issue: %w", err)
	}
	return nil
}

// ImportRepository fetches a whole repository and creates a local
// project from it: collaborators become members, labels replace the
// seeded set, and every non-pull-request issue becomes a task with a
// link row, oldest first. The webhook is registered inside the same
// transaction, so a registration failure rolls the whole import back.
// Collaborator avatars are fetched in the background after commit.
func (s *SyncService) ImportRepository(ctx context.Context, input ImportInput) (*model.Project, error) {
	collaborators, err := s.api.ListCollaborators(ctx, input.Owner, input.Repo)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	issues, err := s.api.ListAllIssues(ctx, input.Owner, input.Repo)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	repoLabels, err := s.api.ListLabels(ctx, input.Owner, input.Repo)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	var projectID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectRepo := s.projectRepo.Tx(tx)
		userRepo := s.userRepo.Tx(tx)
		labelRepo := s.labelRepo.Tx(tx)
		taskRepo := s.taskRepo.Tx(tx)
		linkRepo := s.linkRepo.Tx(tx)
		mapper := s.mapper.Tx(tx)

		importer, err := userRepo.FindOrCreate(ctx, input.Username)
		if err != nil {
			return err
		}

		project, err := projectRepo.Create(ctx, input.Repo, importer)
		if err != nil {
			return err
		}
		projectID = project.ID

		if err := linkRepo.CreateRepository(ctx, &model.GitHubRepository{
			ProjectID: projectID,
			Username:  input.Owner,
			Reponame:  input.Repo,
			Sync:      true,
		}); err != nil {
			return err
		}

		for _, collaborator := range collaborators {
			if collaborator.Login == input.Username {
				continue
			}
			user, err := userRepo.FindOrCreate(ctx, collaborator.Login)
			if err != nil {
				return err
			}
			if _, err := projectRepo.AddMember(ctx, projectID, user.ID, false); err != nil {
				return err
			}
		}

		labels := make([]model.Label, 0, len(repoLabels))
		for _, label := range repoLabels {
			labels = append(labels, model.Label{Name: label.Name, Color: label.Color})
		}
		if err := labelRepo.ReplaceAll(ctx, projectID, labels); err != nil {
			return err
		}

		// Issues arrive newest first; create oldest first so the board
		// lists them in reverse chronological creation order.
		for i := len(issues) - 1; i >= 0; i-- {
			if issues[i].IsPullRequest() {
				continue
			}
			if _, err := importIssue(ctx, mapper, taskRepo, linkRepo, projectID, issues[i]); err != nil {
				return fmt.Errorf("import issue #%d: %w", issues[i].Number, err)
			}
		}

		hookURL := strings.ReplaceAll(s.hookURL, ":id", fmt.Sprint(projectID))
		if err := s.api.CreateHook(ctx, input.Owner, input.Repo, hookURL); err != nil {
			return fmt.Errorf("create hook: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Best effort; failures must not abort the import.
	go s.fetchAvatars(collaborators)

	return s.projectRepo.FindByID(ctx, projectID)
}

// importIssue persists a single remote issue as a task plus its link row.
func importIssue(
	ctx context.Context,
	mapper *Mapper,
	taskRepo *repository.TaskRepository,
	linkRepo *repository.GitHubLinkRepository,
	projectID uint,
	issue Issue,
) (*model.Task, error) {
	draft, err := mapper.ToTaskDraft(ctx, projectID, issue)
	if err != nil {
		return nil, err
	}
	return persistDraft(ctx, taskRepo, linkRepo, projectID, draft)
}

// persistDraft stores a mapped draft as a task plus its link row. The
// assignment rules are checked here too, so a draft that slips past
// the mapper cannot land an invalid stage and assignee pair.
func persistDraft(
	ctx context.Context,
	taskRepo *repository.TaskRepository,
	linkRepo *repository.GitHubLinkRepository,
	projectID uint,
	draft *TaskDraft,
) (*model.Task, error) {
	if err := service.ValidateAssignment(draft.Stage, draft.UserID); err != nil {
		return nil, err
	}

	task := model.Task{
		ProjectID: projectID,
		Title:     draft.Title,
		Body:      draft.Body,
		StageID:   draft.Stage.ID,
		UserID:    draft.UserID,
	}
	if draft.CostID != nil {
		task.CostID = *draft.CostID
	}
	if err := taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	if len(draft.LabelIDs) > 0 {
		var labels []model.Label
		for _, id := range draft.LabelIDs {
			labels = append(labels, model.Label{ID: id})
		}
		if err := taskRepo.ReplaceLabels(ctx, &task, labels); err != nil {
			return nil, err
		}
	}

	if err := linkRepo.CreateTaskLink(ctx, &model.GitHubTask{
		ProjectID:     projectID,
		TaskID:        task.ID,
		Number:        draft.Number,
		IsPullRequest: draft.IsPullRequest,
	}); err != nil {
		return nil, err
	}
	return &task, nil
}

// ApplyRemoteIssue consumes one inbound webhook issue event. A known
// issue number updates the linked task; an unknown one creates a new
// task with its link row. Pull requests are ignored.
func (s *SyncService) ApplyRemoteIssue(ctx context.Context, projectID uint, issue Issue) error {
	if issue.IsPullRequest() {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.Tx(tx)
		linkRepo := s.linkRepo.Tx(tx)
		mapper := s.mapper.Tx(tx)

		link, err := linkRepo.FindTaskLinkByNumber(ctx, projectID, issue.Number)
		if err != nil {
			return err
		}
		if link == nil {
			_, err := importIssue(ctx, mapper, taskRepo, linkRepo, projectID, issue)
			return err
		}

		draft, err := mapper.ToTaskDraft(ctx, projectID, issue)
		if err != nil {
			return err
		}

		task, err := taskRepo.FindByIDForUpdate(ctx, projectID, link.TaskID)
		if err != nil {
			return fmt.Errorf("find linked task: %w", err)
		}

		if err := taskRepo.UpdateContent(ctx, projectID, task.ID, map[string]interface{}{
			"title": draft.Title,
			"body":  draft.Body,
		}); err != nil {
			return err
		}

		// Stage rules win over the remote state, and a working task
		// keeps its status until the session ends.
		if task.IsWorking {
			s.log.Warn().Uint("task_id", task.ID).Msg("skipping remote status change: task is working")
			return nil
		}
		if task.StageID == draft.Stage.ID && uintPtrEqual(task.UserID, draft.UserID) {
			return nil
		}
		if err := service.ValidateAssignment(draft.Stage, draft.UserID); err != nil {
			return err
		}
		return taskRepo.UpdateStatus(ctx, projectID, task.ID, draft.Stage.ID, draft.UserID)
	})
}

// fetchAvatars stores each collaborator's avatar. Failures are logged
// and swallowed.
func (s *SyncService) fetchAvatars(collaborators []Collaborator) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, collaborator := range collaborators {
		if _, err := s.FetchAvatar(ctx, collaborator.Login); err != nil {
			s.log.Warn().Err(err).Str("username", collaborator.Login).Msg("avatar fetch failed")
		}
	}
}

// FetchAvatar downloads and stores the avatar for a username, recording
// the stored file name on the user row when one exists.
func (s *SyncService) FetchAvatar(ctx context.Context, username string) (string, error) {
	profile, err := s.api.GetUser(ctx, username)
	if err != nil {
		return "", fmt.Errorf("get user %q: %w", username, err)
	}

	body, contentType, err := s.api.FetchImage(ctx, profile.AvatarURL)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		return "", errors.New("content-type header is not found")
	}

	name, err := s.avatars.Save(username, contentType, body)
	if err != nil {
		return "", err
	}

	if user, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		if err := s.userRepo.SetIconURI(ctx, user.ID, name); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("icon uri update failed")
		}
	}
	return name, nil
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
