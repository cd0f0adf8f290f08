package domain

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")

	ErrTeamNotFound    = errors.New("team not found")
	ErrMemberNotFound  = errors.New("team member not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrStatusNotFound  = errors.New("issue status not found")
	ErrIssueNotFound   = errors.New("issue not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrLabelNotFound   = errors.New("label not found")
	ErrCommentNotFound = errors.New("comment not found")

	ErrNotificationNotFound = errors.New("notification not found")

	ErrAlreadyMember       = errors.New("user is already a member of this team")
	ErrCannotRemoveOwner   = errors.New("cannot remove team owner")
	ErrCannotChangeOwner   = errors.New("cannot change owner role")
	ErrInviteNotFound      = errors.New("invite not found")
	ErrInviteExpired       = errors.New("invite token has expired")
	ErrInviteAccepted      = errors.New("invite token has already been used")
	ErrInviteEmailMismatch = errors.New("invite was sent to a different email address")
	ErrInvitePending       = errors.New("an invite is already pending for this email")

	ErrProjectArchived     = errors.New("project is archived")
	ErrDuplicateName       = errors.New("name already exists in this scope")
	ErrWIPLimitExceeded    = errors.New("WIP limit reached")
	ErrReorderMismatch     = errors.New("reorder list does not match current items")
	ErrDefaultStatusDelete = errors.New("default status cannot be deleted")
	ErrStatusNotInProject  = errors.New("status does not belong to this project")
	ErrLabelNotInProject   = errors.New("label does not belong to this project")
	ErrIssueLabelLimit     = errors.New("maximum labels per issue reached")
	ErrProjectLabelLimit   = errors.New("maximum labels per project reached")
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
