package domain

import "time"

type Subtask struct {
	ID         int64     `json:"id"`
	IssueID    int64     `json:"issue_id"`
	Title      string    `json:"title"`
	IsDone     bool      `json:"is_done"`
	Position   int       `json:"position"`
	AssigneeID *int64    `json:"assignee_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateSubtaskRequest struct {
	Title    string `json:"title" binding:"required"`
	Position *int   `json:"position"`
}

type UpdateSubtaskRequest struct {
	Title      *string `json:"title"`
	IsDone     *bool   `json:"is_done"`
	AssigneeID *int64  `json:"assignee_id"`
	Unassign   bool    `json:"unassign"`
}
