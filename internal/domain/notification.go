package domain

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationIssueAssigned  NotificationType = "ISSUE_ASSIGNED"
	NotificationIssueCommented NotificationType = "ISSUE_COMMENTED"
	NotificationIssueDueSoon   NotificationType = "ISSUE_DUE_SOON"
	NotificationIssueDueToday  NotificationType = "ISSUE_DUE_TODAY"
	NotificationTeamInvite     NotificationType = "TEAM_INVITE"
	NotificationRoleChanged    NotificationType = "TEAM_ROLE_CHANGED"
)

// Notification is an in-app message addressed to a single user. Payload
// is an opaque JSON document whose shape is type specific.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message,omitempty"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationSummary is the inbox view: the newest notifications plus
// the total unread count, which may exceed the page size.
type NotificationSummary struct {
	UnreadCount   int            `json:"unread_count"`
	Notifications []Notification `json:"notifications"`
}

// DefaultNotificationLimit bounds inbox queries when the caller does not
// supply a limit.
const DefaultNotificationLimit = 50
