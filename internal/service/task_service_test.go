package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/repo"
)

type fakeTaskRepo struct {
	tasks  map[int64]domain.Task
	nextID int64

	// dropBeforeUpdate simulates a concurrent delete between the
	// permission check and the write.
	dropBeforeUpdate bool
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[int64]domain.Task{}}
}

func (f *fakeTaskRepo) Create(_ context.Context, t domain.Task) (int64, error) {
	f.nextID++
	t.ID = f.nextID
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	f.tasks[t.ID] = t
	return t.ID, nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, id int64) (domain.Task, error) {
	t, found := f.tasks[id]
	if !found {
		return domain.Task{}, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeTaskRepo) List(_ context.Context, filter repo.TaskFilter) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.tasks {
		if filter.VisibleTo != nil {
			uid := *filter.VisibleTo
			if t.CreatedBy != uid && (t.AssignedTo == nil || *t.AssignedTo != uid) {
				continue
			}
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if filter.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *filter.AssignedTo) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, id int64, p domain.TaskPatch) error {
	if f.dropBeforeUpdate {
		delete(f.tasks, id)
	}
	t, found := f.tasks[id]
	if !found {
		return pgx.ErrNoRows
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssignedTo.Set {
		t.AssignedTo = p.AssignedTo.ID
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Date
	}
	t.UpdatedAt = time.Now()
	f.tasks[id] = t
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	if _, found := f.tasks[id]; !found {
		return pgx.ErrNoRows
	}
	delete(f.tasks, id)
	return nil
}

var (
	aliceIdent = domain.Identity{ID: 1, Username: "alice", Role: domain.RoleDeveloper}
	bobIdent   = domain.Identity{ID: 2, Username: "bob", Role: domain.RoleDeveloper}
	adminIdent = domain.Identity{ID: 3, Username: "root", Role: domain.RoleAdmin}
)

func newTaskFixture(t *testing.T) (*TaskService, *fakeTaskRepo, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	users.add(domain.User{Username: "alice", Email: "alice@example.com", IsActive: true, Role: domain.RoleDeveloper})
	users.add(domain.User{Username: "bob", Email: "bob@example.com", IsActive: true, Role: domain.RoleDeveloper})
	users.add(domain.User{Username: "root", Email: "root@example.com", IsActive: true, Role: domain.RoleAdmin})
	tasks := newFakeTaskRepo()
	return NewTaskService(tasks, users, nil), tasks, users
}

func strPtr(s string) *string { return &s }
func idPtr(v int64) *int64    { return &v }

func statusPatch(s domain.Status) domain.TaskPatch {
	return domain.TaskPatch{Status: &s}
}

func TestCreate_DefaultsAndRoundTrip(t *testing.T) {
	svc, _, _ := newTaskFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "  Write release notes  ", Description: "draft it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Get(ctx, aliceIdent, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Write release notes" || got.Description != "draft it" {
		t.Fatalf("fields not round-tripped: %+v", got)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("default status = %q, want pending", got.Status)
	}
	if got.Priority != domain.PriorityMedium {
		t.Fatalf("default priority = %q, want medium", got.Priority)
	}
	if got.CreatedBy != aliceIdent.ID {
		t.Fatalf("creator = %d, want %d", got.CreatedBy, aliceIdent.ID)
	}
}

func TestBlankTitleRejected(t *testing.T) {
	// A whitespace-only title trims to empty, so create and update must
	// reject it before anything is stored.
	svc, tasks, _ := newTaskFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "   "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("create blank title: expected ErrValidation, got %v", err)
	}
	if len(tasks.tasks) != 0 {
		t.Fatalf("blank-title task was stored")
	}

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "Write release notes"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, aliceIdent, id, domain.TaskPatch{Title: strPtr(" \t ")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("update blank title: expected ErrValidation, got %v", err)
	}
	got, err := svc.Get(ctx, aliceIdent, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Write release notes" {
		t.Fatalf("title overwritten with %q", got.Title)
	}
}

func TestCreate_InactiveAssigneeRejected(t *testing.T) {
	svc, _, users := newTaskFixture(t)
	ctx := context.Background()

	if err := users.SetActive(ctx, bobIdent.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "x", AssignedTo: idPtr(bobIdent.ID)})
	if !errors.Is(err, ErrInvalidAssignee) {
		t.Fatalf("expected ErrInvalidAssignee, got %v", err)
	}
	_, err = svc.Create(ctx, aliceIdent, domain.Task{Title: "x", AssignedTo: idPtr(999)})
	if !errors.Is(err, ErrInvalidAssignee) {
		t.Fatalf("nonexistent assignee: expected ErrInvalidAssignee, got %v", err)
	}
}

func TestUnassignedTaskInvisibleToOthers(t *testing.T) {
	// Scenario: alice creates "Write release notes" with no assignee. She can
	// edit-full and delete it; bob cannot even view it.
	svc, _, _ := newTaskFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "Write release notes"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, bobIdent, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("bob view: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, aliceIdent, id, domain.TaskPatch{Title: strPtr("Write the release notes")}); err != nil {
		t.Fatalf("alice edit-full: %v", err)
	}
	if err := svc.Delete(ctx, aliceIdent, id); err != nil {
		t.Fatalf("alice delete: %v", err)
	}
}

func TestAssigneeCanChangeStatusButNotEditOrDelete(t *testing.T) {
	// Scenario: admin assigns alice's task to bob. Bob can now view it
	// and move it to in_progress, but cannot retitle or delete it.
	svc, _, _ := newTaskFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "Write release notes"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, adminIdent, id, domain.TaskPatch{
		AssignedTo: domain.OptionalID{Set: true, ID: idPtr(bobIdent.ID)},
	}); err != nil {
		t.Fatalf("admin assign: %v", err)
	}

	got, err := svc.Get(ctx, bobIdent, id)
	if err != nil {
		t.Fatalf("bob view after assignment: %v", err)
	}
	if got.AssignedTo == nil || *got.AssignedTo != bobIdent.ID {
		t.Fatalf("assignee not persisted: %+v", got)
	}

	updated, err := svc.Update(ctx, bobIdent, id, statusPatch(domain.StatusInProgress))
	if err != nil {
		t.Fatalf("bob change status: %v", err)
	}
	if updated.Status != domain.StatusInProgress {
		t.Fatalf("status = %q, want in_progress", updated.Status)
	}

	if _, err := svc.Update(ctx, bobIdent, id, domain.TaskPatch{Title: strPtr("hijack")}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("bob edit title: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, bobIdent, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("bob delete: expected ErrForbidden, got %v", err)
	}
}

func TestStatusUpdateIdempotent(t *testing.T) {
	svc, _, _ := newTaskFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := svc.Update(ctx, aliceIdent, id, statusPatch(domain.StatusCompleted))
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	second, err := svc.Update(ctx, aliceIdent, id, statusPatch(domain.StatusCompleted))
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if first.Status != second.Status || second.Status != domain.StatusCompleted {
		t.Fatalf("status not stable: %q then %q", first.Status, second.Status)
	}
}

func TestUpdate_EmptyPatchRejected(t *testing.T) {
	svc, _, _ := newTaskFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, aliceIdent, id, domain.TaskPatch{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}
}

func TestUpdate_ReassignToInactiveRejected(t *testing.T) {
	svc, _, users := newTaskFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := users.SetActive(ctx, bobIdent.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = svc.Update(ctx, aliceIdent, id, domain.TaskPatch{
		AssignedTo: domain.OptionalID{Set: true, ID: idPtr(bobIdent.ID)},
	})
	if !errors.Is(err, ErrInvalidAssignee) {
		t.Fatalf("expected ErrInvalidAssignee, got %v", err)
	}
}

func TestUpdate_ClearAssignee(t *testing.T) {
	svc, _, _ := newTaskFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "x", AssignedTo: idPtr(bobIdent.ID)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Update(ctx, aliceIdent, id, domain.TaskPatch{
		AssignedTo: domain.OptionalID{Set: true, ID: nil},
	})
	if err != nil {
		t.Fatalf("clear assignee: %v", err)
	}
	if got.AssignedTo != nil {
		t.Fatalf("assignee not cleared: %+v", got.AssignedTo)
	}

	// Bob was reassigned away; his access is gone on the next request.
	if _, err := svc.Get(ctx, bobIdent, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("reassigned-away view: expected ErrForbidden, got %v", err)
	}
}

func TestUpdate_ConcurrentDeleteYieldsNotFound(t *testing.T) {
	svc, tasks, _ := newTaskFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tasks.dropBeforeUpdate = true
	if _, err := svc.Update(ctx, aliceIdent, id, statusPatch(domain.StatusCancelled)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected late ErrNotFound, got %v", err)
	}
}

func TestGet_Missing(t *testing.T) {
	svc, _, _ := newTaskFixture(t)
	if _, err := svc.Get(context.Background(), aliceIdent, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_ScopeAndFilters(t *testing.T) {
	svc, _, _ := newTaskFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "mine"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "bob's work", AssignedTo: idPtr(bobIdent.ID), Priority: domain.PriorityHigh}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, bobIdent, domain.Task{Title: "private"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	aliceSees, err := svc.List(ctx, aliceIdent, TaskFilters{})
	if err != nil {
		t.Fatalf("alice list: %v", err)
	}
	if len(aliceSees) != 2 {
		t.Fatalf("alice sees %d tasks, want 2", len(aliceSees))
	}

	bobSees, err := svc.List(ctx, bobIdent, TaskFilters{})
	if err != nil {
		t.Fatalf("bob list: %v", err)
	}
	if len(bobSees) != 2 {
		t.Fatalf("bob sees %d tasks, want 2 (created + assigned)", len(bobSees))
	}

	adminSees, err := svc.List(ctx, adminIdent, TaskFilters{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminSees) != 3 {
		t.Fatalf("admin sees %d tasks, want all 3", len(adminSees))
	}

	// Filters narrow the scoped set, never widen it.
	high := domain.PriorityHigh
	filtered, err := svc.List(ctx, aliceIdent, TaskFilters{Priority: &high})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Title != "bob's work" {
		t.Fatalf("priority filter: got %+v", filtered)
	}

	bid := bobIdent.ID
	assignedFilter, err := svc.List(ctx, bobIdent, TaskFilters{AssignedTo: &bid})
	if err != nil {
		t.Fatalf("assigned filter: %v", err)
	}
	if len(assignedFilter) != 1 {
		t.Fatalf("assigned_to filter widened or lost visibility: %+v", assignedFilter)
	}
}

func TestDelete_AdminOverride(t *testing.T) {
	svc, _, _ := newTaskFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, aliceIdent, domain.Task{Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, adminIdent, id); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if err := svc.Delete(ctx, adminIdent, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}
