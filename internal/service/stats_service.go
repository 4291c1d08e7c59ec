package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tacowasa/internal/model"
	"tacowasa/internal/repository"
)

const (
	// iterationLength is the bucket size for throughput iterations.
	iterationLength = 7 * 24 * time.Hour

	// stagnationThreshold marks a workable task stagnant when it has
	// not been touched for this long.
	stagnationThreshold = 3 * 24 * time.Hour

	throughputWindowWeeks = 4
)

// MemberWorkTime is the accumulated work duration of one member.
type MemberWorkTime struct {
	UserID   uint          `json:"userId"`
	Username string        `json:"username"`
	Total    time.Duration `json:"total"`
}

// Iteration is one week-long bucket with its completed task count.
type Iteration struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Completed int       `json:"completed"`
}

// ProjectStats is the derived aggregate for a project. It is always
// reconstructible from task and work history and is never authoritative.
type ProjectStats struct {
	ProjectID       uint             `json:"projectId"`
	Throughput      float64          `json:"throughput"` // completed tasks per week
	WorkTimes       []MemberWorkTime `json:"workTimes"`
	StagnantTaskIDs []uint           `json:"stagnantTaskIds"`
	Iterations      []Iteration      `json:"iterations"`
	ComputedAt      time.Time        `json:"computedAt"`
}

// StatsService aggregates throughput, member work time and stagnant
// tasks from task and work history.
type StatsService struct {
	db          *gorm.DB
	projectRepo *repository.ProjectRepository
	taskRepo    *repository.TaskRepository
	workRepo    *repository.WorkRepository
}

func NewStatsService(
	db *gorm.DB,
	projectRepo *repository.ProjectRepository,
	taskRepo *repository.TaskRepository,
	workRepo *repository.WorkRepository,
) *StatsService {
	return &StatsService{db: db, projectRepo: projectRepo, taskRepo: taskRepo, workRepo: workRepo}
}

// Calc computes the full aggregate inside one read transaction so a
// concurrent mutation cannot produce a partial snapshot.
func (s *StatsService) Calc(ctx context.Context, projectID uint) (*ProjectStats, error) {
	now := time.Now()
	stats := &ProjectStats{ProjectID: projectID, ComputedAt: now}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectRepo := s.projectRepo.Tx(tx)
		taskRepo := s.taskRepo.Tx(tx)
		workRepo := s.workRepo.Tx(tx)

		project, err := projectRepo.FindByID(ctx, projectID)
		if err != nil {
			return fmt.Errorf("find project: %w", err)
		}

		tasks, err := taskRepo.ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}

		works, err := workRepo.ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("list works: %w", err)
		}

		stats.Throughput = calcThroughput(tasks, now)
		stats.WorkTimes = calcWorkTimes(project.Members, works, now)
		stats.StagnantTaskIDs = findStagnantTasks(tasks, now)
		stats.Iterations = calcIterations(project.CreatedAt, tasks, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func calcThroughput(tasks []model.Task, now time.Time) float64 {
	windowStart := now.Add(-throughputWindowWeeks * iterationLength)
	completed := 0
	for _, task := range tasks {
		if IsTerminalStage(task.Stage.Name) && task.UpdatedAt.After(windowStart) {
			completed++
		}
	}
	return float64(completed) / throughputWindowWeeks
}

func calcWorkTimes(members []model.Member, works []model.Work, now time.Time) []MemberWorkTime {
	totals := make(map[uint]time.Duration)
	for _, work := range works {
		end := now
		if work.EndTime != nil {
			end = *work.EndTime
		}
		if end.Before(work.StartTime) {
			continue
		}
		totals[work.UserID] += end.Sub(work.StartTime)
	}

	workTimes := make([]MemberWorkTime, 0, len(members))
	for _, member := range members {
		workTimes = append(workTimes, MemberWorkTime{
			UserID:   member.UserID,
			Username: member.User.Username,
			Total:    totals[member.UserID],
		})
	}
	return workTimes
}

// findStagnantTasks returns tasks sitting untouched in a workable stage.
func findStagnantTasks(tasks []model.Task, now time.Time) []uint {
	var stagnant []uint
	for _, task := range tasks {
		if !task.Stage.CanWork || task.IsWorking {
			continue
		}
		if now.Sub(task.UpdatedAt) > stagnationThreshold {
			stagnant = append(stagnant, task.ID)
		}
	}
	return stagnant
}

func calcIterations(projectStart time.Time, tasks []model.Task, now time.Time) []Iteration {
	if !projectStart.Before(now) {
		return nil
	}

	var iterations []Iteration
	for start := projectStart; start.Before(now); start = start.Add(iterationLength) {
		end := start.Add(iterationLength)
		completed := 0
		for _, task := range tasks {
			if IsTerminalStage(task.Stage.Name) &&
				!task.UpdatedAt.Before(start) && task.UpdatedAt.Before(end) {
				completed++
			}
		}
		iterations = append(iterations, Iteration{StartTime: start, EndTime: end, Completed: completed})
	}
	return iterations
}
