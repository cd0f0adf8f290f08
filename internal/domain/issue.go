package domain

import "time"

type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityMedium IssuePriority = "MEDIUM"
	PriorityHigh   IssuePriority = "HIGH"
)

func (p IssuePriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// WIPTightenMode pins what UpdateIssueStatus does when the new wipLimit
// is below the column's live issue count.
type WIPTightenMode int

const (
	// WIPTightenReject fails the update so the count<=limit invariant
	// can never be observed broken.
	WIPTightenReject WIPTightenMode = iota
	// WIPTightenAllow would accept the update and surface an over-limit
	// column until issues drain out.
	WIPTightenAllow
)

// WIPTightenPolicy is the policy this deployment runs with.
const WIPTightenPolicy = WIPTightenReject

const (
	MaxLabelsPerIssue   = 5
	MaxLabelsPerProject = 20
)

type IssueStatus struct {
	ID         int64      `json:"id"`
	ProjectID  int64      `json:"project_id"`
	Name       string     `json:"name"`
	Color      string     `json:"color,omitempty"`
	Position   int        `json:"position"`
	IsDefault  bool       `json:"is_default"`
	WipLimit   *int       `json:"wip_limit,omitempty"` // nil = unlimited
	IssueCount int        `json:"issue_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"-"`
}

type Issue struct {
	ID          int64         `json:"id"`
	ProjectID   int64         `json:"project_id"`
	StatusID    int64         `json:"status_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	OwnerID     int64         `json:"owner_id"`
	AssigneeID  *int64        `json:"assignee_id,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Priority    IssuePriority `json:"priority"`
	Position    int           `json:"position"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	DeletedAt   *time.Time    `json:"-"`
}

// IssueDetail is the single-issue read model with its labels and
// subtasks resolved.
type IssueDetail struct {
	Issue
	Labels   []Label   `json:"labels"`
	Subtasks []Subtask `json:"subtasks"`
}

type Label struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IssueHistory is one recorded field change on an issue.
type IssueHistory struct {
	ID        int64     `json:"id"`
	IssueID   int64     `json:"issue_id"`
	ActorID   int64     `json:"actor_id"`
	Field     string    `json:"field"`
	OldValue  *string   `json:"old_value,omitempty"`
	NewValue  *string   `json:"new_value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateIssueStatusRequest struct {
	Name      string `json:"name" binding:"required"`
	Color     string `json:"color"`
	Position  *int   `json:"position"`
	IsDefault bool   `json:"is_default"`
	WipLimit  *int   `json:"wip_limit"`
}

type UpdateIssueStatusRequest struct {
	Name      string `json:"name" binding:"required"`
	Color     string `json:"color"`
	IsDefault bool   `json:"is_default"`
	WipLimit  *int   `json:"wip_limit"`
}

type ReorderRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

type CreateIssueRequest struct {
	StatusID    int64         `json:"status_id" binding:"required"`
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	AssigneeID  *int64        `json:"assignee_id"`
	DueDate     *time.Time    `json:"due_date"`
	Priority    IssuePriority `json:"priority"`
	Position    *int          `json:"position"`
	LabelIDs    []int64       `json:"label_ids"`
}

type UpdateIssueRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	AssigneeID  *int64         `json:"assignee_id"`
	DueDate     *time.Time     `json:"due_date"`
	Priority    *IssuePriority `json:"priority"`
	LabelIDs    []int64        `json:"label_ids"`
}

type MoveIssueRequest struct {
	StatusID int64 `json:"status_id" binding:"required"`
	Position int   `json:"position"`
}

type CreateLabelRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type UpdateLabelRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}
