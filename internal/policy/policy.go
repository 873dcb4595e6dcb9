// Package policy holds the access rules for tasks: pure functions over
// (identity, task), no I/O. Admins pass every check; otherwise rights
// derive from the creator and assignee relationships on the task row.
package policy

import "github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"

// Operation is a task-level permission.
type Operation string

const (
	OpView         Operation = "view"
	OpChangeStatus Operation = "change_status"
	OpEditFull     Operation = "edit_full"
	OpDelete       Operation = "delete"
)

func isCreator(id domain.Identity, t domain.Task) bool {
	return t.CreatedBy == id.ID
}

func isAssignee(id domain.Identity, t domain.Task) bool {
	return t.AssignedTo != nil && *t.AssignedTo == id.ID
}

// CanView: admin, creator or assignee.
func CanView(id domain.Identity, t domain.Task) bool {
	return id.Role == domain.RoleAdmin || isCreator(id, t) || isAssignee(id, t)
}

// CanChangeStatus: same set as view. An assignee may move a task through
// its states without owning it.
func CanChangeStatus(id domain.Identity, t domain.Task) bool {
	return id.Role == domain.RoleAdmin || isCreator(id, t) || isAssignee(id, t)
}

// CanEditFull covers title, description, priority, assignee and due date.
// Assignees are deliberately excluded: they work the task, they do not
// reshape it.
func CanEditFull(id domain.Identity, t domain.Task) bool {
	return id.Role == domain.RoleAdmin || isCreator(id, t)
}

// CanDelete: admin or creator only.
func CanDelete(id domain.Identity, t domain.Task) bool {
	return id.Role == domain.RoleAdmin || isCreator(id, t)
}

// Permissions returns every operation id may perform on t.
func Permissions(id domain.Identity, t domain.Task) []Operation {
	var ops []Operation
	if CanView(id, t) {
		ops = append(ops, OpView)
	}
	if CanChangeStatus(id, t) {
		ops = append(ops, OpChangeStatus)
	}
	if CanEditFull(id, t) {
		ops = append(ops, OpEditFull)
	}
	if CanDelete(id, t) {
		ops = append(ops, OpDelete)
	}
	return ops
}
