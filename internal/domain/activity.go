package domain

import (
	"encoding/json"
	"time"
)

type ActionType string

const (
	ActionTeamCreated       ActionType = "TEAM_CREATED"
	ActionTeamUpdated       ActionType = "TEAM_UPDATED"
	ActionTeamDeleted       ActionType = "TEAM_DELETED"
	ActionMemberInvited     ActionType = "MEMBER_INVITED"
	ActionMemberJoined      ActionType = "MEMBER_JOINED"
	ActionMemberKicked      ActionType = "MEMBER_KICKED"
	ActionMemberLeft        ActionType = "MEMBER_LEFT"
	ActionRoleChanged       ActionType = "ROLE_CHANGED"
	ActionProjectCreated    ActionType = "PROJECT_CREATED"
	ActionProjectUpdated    ActionType = "PROJECT_UPDATED"
	ActionProjectArchived   ActionType = "PROJECT_ARCHIVED"
	ActionProjectUnarchived ActionType = "PROJECT_UNARCHIVED"
	ActionProjectDeleted    ActionType = "PROJECT_DELETED"
)

// ActivityLog is one append-only audit entry. Metadata is an opaque
// JSON payload whose shape is action-type specific; new action types may
// add fields but existing ones must stay readable.
type ActivityLog struct {
	ID         int64           `json:"id"`
	TeamID     int64           `json:"team_id"`
	ActorID    int64           `json:"actor_id"`
	ActionType ActionType      `json:"action_type"`
	TargetID   *int64          `json:"target_id,omitempty"`
	TargetType string          `json:"target_type,omitempty"`
	Message    string          `json:"message,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DefaultActivityLimit bounds activity feed queries when the caller does
// not supply a limit.
const DefaultActivityLimit = 50
