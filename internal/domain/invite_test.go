package domain

import (
	"testing"
	"time"
)

func TestInviteIsExpired(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	invite := TeamInvite{ExpiresAt: now.Add(time.Hour)}
	if invite.IsExpired(now) {
		t.Error("invite before its deadline reported expired")
	}

	invite.ExpiresAt = now.Add(-time.Minute)
	if !invite.IsExpired(now) {
		t.Error("invite past its deadline not reported expired")
	}

	// An accepted invite never flips to expired, whatever the clock says.
	acceptedAt := now.Add(-2 * time.Hour)
	invite.AcceptedAt = &acceptedAt
	if invite.IsExpired(now) {
		t.Error("accepted invite reported expired")
	}
}

func TestInviteView(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pending := TeamInvite{ID: 1, ExpiresAt: now.Add(InviteTTL)}
	view := pending.View(now)
	if view.IsExpired || view.IsAccepted {
		t.Errorf("pending invite view: expired=%v accepted=%v, want both false", view.IsExpired, view.IsAccepted)
	}

	acceptedAt := now.Add(-time.Hour)
	accepted := TeamInvite{ID: 2, ExpiresAt: now.Add(time.Hour), AcceptedAt: &acceptedAt}
	view = accepted.View(now)
	if !view.IsAccepted || view.IsExpired {
		t.Errorf("accepted invite view: expired=%v accepted=%v, want accepted only", view.IsExpired, view.IsAccepted)
	}
}
