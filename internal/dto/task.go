package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"
)

// DueDate parses due_date from JSON as either date-only ("2006-01-02") or
// RFC3339. Date-only is stored as start of that day in UTC. Because it is
// used as a value type, UnmarshalJSON only runs when the key is present,
// which is what distinguishes "omitted" from an explicit null.
type DueDate struct {
	set bool
	t   *time.Time
}

func (d *DueDate) UnmarshalJSON(data []byte) error {
	d.set = true
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02", // date only
		time.RFC3339, // 2006-01-02T15:04:05Z07:00
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("due_date: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Present reports whether the key appeared in the request body at all.
func (d DueDate) Present() bool { return d.set }

// Ptr returns *time.Time for use in service/domain.
func (d DueDate) Ptr() *time.Time { return d.t }

// NullableID parses assigned_to with the same tri-state: key absent =
// unchanged, explicit null = clear, number = assign.
type NullableID struct {
	set bool
	id  *int64
}

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.set = true
	var raw *int64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("assigned_to: must be a user id or null")
	}
	n.id = raw
	return nil
}

func (n NullableID) Present() bool { return n.set }
func (n NullableID) Ptr() *int64   { return n.id }

// CreateTaskRequest is the JSON body for POST /api/tasks. Omitted status
// and priority default to pending/medium.
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=255"`
	Description string     `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssignedTo  NullableID `json:"assigned_to"`
	DueDate     DueDate    `json:"due_date"`
}

// UpdateTaskRequest is the JSON body for PUT /api/tasks/:id. Only fields
// present in the body are applied; an empty body is rejected.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssignedTo  NullableID `json:"assigned_to"`
	DueDate     DueDate    `json:"due_date"`
}

// Patch converts the request into the explicit domain patch.
func (r UpdateTaskRequest) Patch() domain.TaskPatch {
	p := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Status != nil {
		s := domain.Status(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := domain.Priority(*r.Priority)
		p.Priority = &pr
	}
	if r.AssignedTo.Present() {
		p.AssignedTo = domain.OptionalID{Set: true, ID: r.AssignedTo.Ptr()}
	}
	if r.DueDate.Present() {
		p.DueDate = domain.OptionalDate{Set: true, Date: r.DueDate.Ptr()}
	}
	return p
}

// TaskResponse mirrors the task row plus the joined usernames.
type TaskResponse struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	CreatedBy          int64      `json:"created_by"`
	AssignedTo         *int64     `json:"assigned_to"`
	DueDate            *time.Time `json:"due_date"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CreatedByUsername  string     `json:"created_by_username"`
	AssignedToUsername *string    `json:"assigned_to_username"`
}

func TaskToResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Status:             string(t.Status),
		Priority:           string(t.Priority),
		CreatedBy:          t.CreatedBy,
		AssignedTo:         t.AssignedTo,
		DueDate:            t.DueDate,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		CreatedByUsername:  t.CreatedByUsername,
		AssignedToUsername: t.AssignedToUsername,
	}
}

func TasksToResponses(list []domain.Task) []TaskResponse {
	out := make([]TaskResponse, len(list))
	for i := range list {
		out[i] = TaskToResponse(list[i])
	}
	return out
}
