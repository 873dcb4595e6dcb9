package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"
)

// TaskFilter narrows a task listing. VisibleTo applies the non-admin
// permission scope (creator or assignee); nil means unrestricted. The
// remaining filters only ever narrow the already-scoped set.
type TaskFilter struct {
	VisibleTo  *int64
	Status     *domain.Status
	Priority   *domain.Priority
	AssignedTo *int64
}

type TaskRepo interface {
	Create(ctx context.Context, t domain.Task) (int64, error)
	GetByID(ctx context.Context, id int64) (domain.Task, error)
	List(ctx context.Context, f TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, id int64, p domain.TaskPatch) error
	Delete(ctx context.Context, id int64) error
}

const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.created_by, t.assigned_to,
	t.due_date, t.created_at, t.updated_at, creator.username, assignee.username`

const taskJoins = `
	FROM tasks t
	JOIN users creator ON t.created_by = creator.id
	LEFT JOIN users assignee ON t.assigned_to = assignee.id`

type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.CreatedBy,
		&t.AssignedTo, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
		&t.CreatedByUsername, &t.AssignedToUsername)
	return t, err
}

func (r *PGTaskRepo) Create(ctx context.Context, t domain.Task) (int64, error) {
	query := `
		INSERT INTO tasks (title, description, status, priority, created_by, assigned_to, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		t.Title, t.Description, t.Status, t.Priority, t.CreatedBy, t.AssignedTo, t.DueDate,
	).Scan(&id)
	return id, err
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id int64) (domain.Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + ` WHERE t.id = $1`
	return scanTask(r.db.QueryRow(ctx, query, id))
}

func (r *PGTaskRepo) List(ctx context.Context, f TaskFilter) ([]domain.Task, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.VisibleTo != nil {
		n := arg(*f.VisibleTo)
		conds = append(conds, fmt.Sprintf("(t.created_by = %s OR t.assigned_to = %s)", n, n))
	}
	if f.Status != nil {
		conds = append(conds, "t.status = "+arg(*f.Status))
	}
	if f.Priority != nil {
		conds = append(conds, "t.priority = "+arg(*f.Priority))
	}
	if f.AssignedTo != nil {
		conds = append(conds, "t.assigned_to = "+arg(*f.AssignedTo))
	}

	query := `SELECT ` + taskColumns + taskJoins
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update applies only the fields present in the patch. The statement is
// keyed by id, so a task deleted by a concurrent request simply affects
// zero rows and surfaces as pgx.ErrNoRows rather than corrupting anything.
func (r *PGTaskRepo) Update(ctx context.Context, id int64, p domain.TaskPatch) error {
	var (
		sets []string
		args []any
	)
	args = append(args, id)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.Priority != nil {
		set("priority", *p.Priority)
	}
	if p.AssignedTo.Set {
		set("assigned_to", p.AssignedTo.ID)
	}
	if p.DueDate.Set {
		set("due_date", p.DueDate.Date)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = $1"
	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete hard-deletes the task. Zero affected rows surface as pgx.ErrNoRows.
func (r *PGTaskRepo) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
