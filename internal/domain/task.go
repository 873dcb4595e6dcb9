package domain

import "time"

// Status is the task lifecycle state. Any authorized actor may set any
// value in any order; there is no transition-order constraint.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is the domain entity for a tracked task. CreatedBy is immutable
// after creation. AssignedTo is validated against an active user at
// assignment time only; an assignee going inactive later does not
// invalidate the task.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	CreatedBy   int64      `json:"created_by"`
	AssignedTo  *int64     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Denormalized for list/detail payloads, joined from users.
	CreatedByUsername  string  `json:"created_by_username"`
	AssignedToUsername *string `json:"assigned_to_username"`
}

// OptionalID carries the tri-state for nullable reference fields in a
// patch: Set=false means "leave unchanged", Set=true with ID=nil means
// "clear", Set=true with ID non-nil means "set to this user".
type OptionalID struct {
	Set bool
	ID  *int64
}

// OptionalDate is the same tri-state for nullable date fields.
type OptionalDate struct {
	Set  bool
	Date *time.Time
}

// TaskPatch is an explicit partial update. A nil pointer (or Set=false)
// means the field was omitted from the request; zero values are never
// conflated with "omitted".
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	AssignedTo  OptionalID
	DueDate     OptionalDate
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && !p.AssignedTo.Set && !p.DueDate.Set
}

// StatusOnly reports whether the patch touches the status field and
// nothing else. Status-only updates are permitted to assignees; anything
// wider requires full edit rights.
func (p TaskPatch) StatusOnly() bool {
	return p.Status != nil && p.Title == nil && p.Description == nil &&
		p.Priority == nil && !p.AssignedTo.Set && !p.DueDate.Set
}
