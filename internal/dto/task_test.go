package dto

import (
	"encoding/json"
	"testing"
	"time"
)

func decode(t *testing.T, body string) UpdateTaskRequest {
	t.Helper()
	var req UpdateTaskRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal %s: %v", body, err)
	}
	return req
}

func TestUpdateRequest_EmptyBodyYieldsEmptyPatch(t *testing.T) {
	req := decode(t, `{}`)
	if !req.Patch().Empty() {
		t.Fatalf("expected empty patch for {}")
	}
}

func TestAssignedTo_TriState(t *testing.T) {
	// Omitted: leave unchanged.
	req := decode(t, `{"title": "x"}`)
	if p := req.Patch(); p.AssignedTo.Set {
		t.Fatalf("omitted assigned_to must not be marked set")
	}

	// Explicit null: clear.
	req = decode(t, `{"assigned_to": null}`)
	p := req.Patch()
	if !p.AssignedTo.Set || p.AssignedTo.ID != nil {
		t.Fatalf("explicit null must mean clear, got %+v", p.AssignedTo)
	}
	if p.Empty() {
		t.Fatalf("clearing the assignee is not an empty update")
	}

	// Value: assign.
	req = decode(t, `{"assigned_to": 7}`)
	p = req.Patch()
	if !p.AssignedTo.Set || p.AssignedTo.ID == nil || *p.AssignedTo.ID != 7 {
		t.Fatalf("expected assignment to 7, got %+v", p.AssignedTo)
	}
}

func TestStatusOnlyPatch(t *testing.T) {
	req := decode(t, `{"status": "in_progress"}`)
	p := req.Patch()
	if !p.StatusOnly() {
		t.Fatalf("expected status-only patch")
	}

	req = decode(t, `{"status": "in_progress", "title": "x"}`)
	if req.Patch().StatusOnly() {
		t.Fatalf("patch with title must not be status-only")
	}
}

func TestDueDate_Parsing(t *testing.T) {
	req := decode(t, `{"due_date": "2026-02-19"}`)
	p := req.Patch()
	if !p.DueDate.Set || p.DueDate.Date == nil {
		t.Fatalf("date-only due_date not parsed: %+v", p.DueDate)
	}
	want := time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC)
	if !p.DueDate.Date.Equal(want) {
		t.Fatalf("due_date = %v, want %v", p.DueDate.Date, want)
	}

	req = decode(t, `{"due_date": "2026-02-19T15:04:05Z"}`)
	if p := req.Patch(); !p.DueDate.Set || p.DueDate.Date == nil {
		t.Fatalf("RFC3339 due_date not parsed")
	}

	req = decode(t, `{"due_date": null}`)
	if p := req.Patch(); !p.DueDate.Set || p.DueDate.Date != nil {
		t.Fatalf("explicit null must mean clear, got %+v", p.DueDate)
	}

	var bad UpdateTaskRequest
	if err := json.Unmarshal([]byte(`{"due_date": "next tuesday"}`), &bad); err == nil {
		t.Fatalf("expected error for garbage due_date")
	}
}

func TestZeroValuesAreNotOmitted(t *testing.T) {
	// An explicit empty description is a change, not an omission.
	req := decode(t, `{"description": ""}`)
	p := req.Patch()
	if p.Description == nil || *p.Description != "" {
		t.Fatalf("explicit empty description lost: %+v", p.Description)
	}
	if p.Empty() {
		t.Fatalf("setting description to empty is not an empty update")
	}
}
