package service_test

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"tacowasa/internal/model"
	"tacowasa/internal/repository"
	"tacowasa/internal/service"
)

// env bundles the repositories and services under test against one
// in-memory database.
type env struct {
	db       *gorm.DB
	projects *repository.ProjectRepository
	stages   *repository.StageRepository
	tasks    *repository.TaskRepository
	works    *repository.WorkRepository
	users    *repository.UserRepository
	taskSvc  *service.TaskService
	statsSvc *service.StatsService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := repository.NewDB(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	projects := repository.NewProjectRepository(db)
	stages := repository.NewStageRepository(db)
	tasks := repository.NewTaskRepository(db)
	works := repository.NewWorkRepository(db)
	users := repository.NewUserRepository(db)
	timer := service.NewWorkTimer(works)

	return &env{
		db:       db,
		projects: projects,
		stages:   stages,
		tasks:    tasks,
		works:    works,
		users:    users,
		taskSvc:  service.NewTaskService(db, projects, stages, tasks, timer),
		statsSvc: service.NewStatsService(db, projects, tasks, works),
	}
}

// newProject creates a user and a fully seeded project owned by it.
func (e *env) newProject(t *testing.T, username string) (*model.Project, *model.User) {
	t.Helper()
	ctx := context.Background()

	user, err := e.users.FindOrCreate(ctx, username)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	project, err := e.projects.Create(ctx, username+"-board", user)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project, user
}

func (e *env) stageByName(t *testing.T, projectID uint, name string) *model.Stage {
	t.Helper()
	stage, err := e.stages.FindByName(context.Background(), projectID, name)
	if err != nil {
		t.Fatalf("find stage %q: %v", name, err)
	}
	return stage
}
