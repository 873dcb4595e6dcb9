package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/policy"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/repo"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrEmptyUpdate     = errors.New("no fields provided to update")
	ErrInvalidAssignee = errors.New("assigned user does not exist or is inactive")
)

// TaskFilters narrows a listing. Filters never widen visibility beyond
// the permission scope.
type TaskFilters struct {
	Status     *domain.Status
	Priority   *domain.Priority
	AssignedTo *int64
}

func (f TaskFilters) empty() bool {
	return f.Status == nil && f.Priority == nil && f.AssignedTo == nil
}

// ListCache is the slice of the read cache the task service needs.
// *cache.TaskCache satisfies it.
type ListCache interface {
	GetList(ctx context.Context, userID int64) ([]domain.Task, error)
	SetList(ctx context.Context, userID int64, list []domain.Task) error
	InvalidateLists(ctx context.Context) error
}

// TaskService enforces the access policy around the task store. Every
// operation re-evaluates permissions from the current task row, so e.g. a
// reassigned-away user loses access on their very next request.
type TaskService struct {
	tasks repo.TaskRepo
	users repo.UserRepo
	cache ListCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(tasks repo.TaskRepo, users repo.UserRepo, c ListCache) *TaskService {
	return &TaskService{tasks: tasks, users: users, cache: c}
}

// Create stores a new task with ident as its creator. The title must be
// non-blank after trimming. Omitted status and priority default to
// pending/medium. An assignee must be an active user at assignment time;
// it is not re-validated later.
func (s *TaskService) Create(ctx context.Context, ident domain.Identity, t domain.Task) (int64, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return 0, fmt.Errorf("%w: title must be 1-255 characters", ErrValidation)
	}
	t.Description = strings.TrimSpace(t.Description)
	t.CreatedBy = ident.ID
	if t.Status == "" {
		t.Status = domain.StatusPending
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *t.AssignedTo); err != nil {
			return 0, err
		}
	}
	id, err := s.tasks.Create(ctx, t)
	if err != nil {
		return 0, err
	}
	s.invalidateLists(ctx)
	return id, nil
}

// List returns the tasks visible to ident, narrowed by the filters.
// Admins see everything; everyone else sees tasks they created or are
// assigned to. Unfiltered listings are cached per user.
func (s *TaskService) List(ctx context.Context, ident domain.Identity, f TaskFilters) ([]domain.Task, error) {
	rf := repo.TaskFilter{
		Status:     f.Status,
		Priority:   f.Priority,
		AssignedTo: f.AssignedTo,
	}
	if ident.Role != domain.RoleAdmin {
		uid := ident.ID
		rf.VisibleTo = &uid
	}

	if s.cache == nil || !f.empty() {
		return s.tasks.List(ctx, rf)
	}
	key := "list:" + strconv.FormatInt(ident.ID, 10)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if list, err := s.cache.GetList(ctx, ident.ID); err == nil && list != nil {
			return list, nil
		}
		list, err := s.tasks.List(ctx, rf)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetList(ctx, ident.ID, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Task), nil
}

// Get returns one task if ident may view it.
func (s *TaskService) Get(ctx context.Context, ident domain.Identity, id int64) (domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	if !policy.CanView(ident, t) {
		return domain.Task{}, ErrForbidden
	}
	return t, nil
}

// Update applies a partial update. A patch that only changes status needs
// change-status rights (creator, assignee or admin); touching any other
// field needs full edit rights (creator or admin). Reassignment
// re-validates the new assignee at the moment of the edit.
func (s *TaskService) Update(ctx context.Context, ident domain.Identity, id int64, p domain.TaskPatch) (domain.Task, error) {
	if p.Empty() {
		return domain.Task{}, ErrEmptyUpdate
	}
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}

	if p.StatusOnly() {
		if !policy.CanChangeStatus(ident, t) {
			return domain.Task{}, ErrForbidden
		}
	} else if !policy.CanEditFull(ident, t) {
		return domain.Task{}, ErrForbidden
	}

	if p.Title != nil {
		trimmed := strings.TrimSpace(*p.Title)
		if trimmed == "" {
			return domain.Task{}, fmt.Errorf("%w: title must be 1-255 characters", ErrValidation)
		}
		p.Title = &trimmed
	}
	if p.Description != nil {
		trimmed := strings.TrimSpace(*p.Description)
		p.Description = &trimmed
	}
	if p.AssignedTo.Set && p.AssignedTo.ID != nil {
		if err := s.checkAssignee(ctx, *p.AssignedTo.ID); err != nil {
			return domain.Task{}, err
		}
	}

	// The write is keyed by id; a concurrent delete affects zero rows and
	// surfaces as a late NotFound rather than anything worse.
	if err := s.tasks.Update(ctx, id, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	s.invalidateLists(ctx)

	updated, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	return updated, nil
}

// Delete hard-deletes a task; admin or creator only.
func (s *TaskService) Delete(ctx context.Context, ident domain.Identity, id int64) error {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !policy.CanDelete(ident, t) {
		return ErrForbidden
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateLists(ctx)
	return nil
}

func (s *TaskService) checkAssignee(ctx context.Context, userID int64) error {
	_, err := s.users.GetActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidAssignee
		}
		return err
	}
	return nil
}

func (s *TaskService) invalidateLists(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateLists(ctx)
	}
}
