package domain

import "time"

// InviteTTL is the validity window of a team invite token.
const InviteTTL = 7 * 24 * time.Hour

type TeamInvite struct {
	ID         int64      `json:"id"`
	TeamID     int64      `json:"team_id"`
	Email      string     `json:"email"`
	Token      string     `json:"token"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsExpired and IsAccepted are derived from expires_at/accepted_at so the
// lifecycle state can never diverge from the stored columns.
func (i TeamInvite) IsExpired(now time.Time) bool {
	return i.AcceptedAt == nil && now.After(i.ExpiresAt)
}

func (i TeamInvite) IsAccepted() bool {
	return i.AcceptedAt != nil
}

// InviteView is the listing shape with the derived lifecycle flags.
type InviteView struct {
	TeamInvite
	IsExpired  bool `json:"is_expired"`
	IsAccepted bool `json:"is_accepted"`
}

func (i TeamInvite) View(now time.Time) InviteView {
	return InviteView{
		TeamInvite: i,
		IsExpired:  i.IsExpired(now),
		IsAccepted: i.IsAccepted(),
	}
}

type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type AcceptInviteRequest struct {
	Token string `json:"token" binding:"required"`
}
