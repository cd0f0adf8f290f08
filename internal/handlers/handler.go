package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/service/activity"
	"github.com/planora/planora-backend/internal/service/comment"
	"github.com/planora/planora-backend/internal/service/invite"
	"github.com/planora/planora-backend/internal/service/issue"
	"github.com/planora/planora-backend/internal/service/notification"
	"github.com/planora/planora-backend/internal/service/project"
	"github.com/planora/planora-backend/internal/service/status"
	"github.com/planora/planora-backend/internal/service/subtask"
	"github.com/planora/planora-backend/internal/service/team"
)

// Services bundles the use-case layer the HTTP handlers dispatch to.
type Services struct {
	Teams         *team.TeamService
	Invites       *invite.InviteService
	Projects      *project.ProjectService
	Statuses      *status.StatusService
	Issues        *issue.IssueService
	Subtasks      *subtask.SubtaskService
	Comments      *comment.CommentService
	Activity      *activity.ActivityService
	Notifications *notification.NotificationService
}

type Handler struct {
	services *Services
	logger   *slog.Logger
}

func NewHandler(services *Services, logger *slog.Logger) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-User-ID"}
	router.Use(cors.New(config))

	api := router.Group("/api", h.identify)

	teams := api.Group("/teams")
	{
		teams.POST("", h.CreateTeam)
		teams.GET("", h.GetMyTeams)
		teams.GET("/:team_id", h.GetTeam)
		teams.PUT("/:team_id", h.UpdateTeam)
		teams.DELETE("/:team_id", h.DeleteTeam)

		teams.GET("/:team_id/members", h.GetTeamMembers)
		teams.DELETE("/:team_id/members/:member_id", h.RemoveMember)
		teams.PUT("/:team_id/members/:member_id/role", h.UpdateMemberRole)

		teams.POST("/:team_id/invites", h.CreateInvite)
		teams.GET("/:team_id/invites", h.GetTeamInvites)
		teams.DELETE("/:team_id/invites/:invite_id", h.CancelInvite)

		teams.POST("/:team_id/projects", h.CreateProject)
		teams.GET("/:team_id/projects", h.GetTeamProjects)

		teams.GET("/:team_id/activity", h.GetActivityLogs)
	}

	invites := api.Group("/invites")
	{
		invites.GET("", h.GetMyInvites)
		invites.POST("/accept", h.AcceptInvite)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.GetNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.GET("/:notification_id", h.GetNotification)
		notifications.POST("/:notification_id/read", h.MarkNotificationRead)
		notifications.POST("/read-all", h.MarkAllNotificationsRead)
		notifications.DELETE("/:notification_id", h.DeleteNotification)
	}

	projects := api.Group("/projects")
	{
		projects.GET("", h.GetMyProjects)
		projects.GET("/favorites", h.GetFavoriteProjects)
		projects.GET("/:project_id", h.GetProject)
		projects.PUT("/:project_id", h.UpdateProject)
		projects.DELETE("/:project_id", h.DeleteProject)
		projects.POST("/:project_id/archive", h.ArchiveProject)
		projects.POST("/:project_id/unarchive", h.UnarchiveProject)
		projects.POST("/:project_id/favorite", h.AddFavorite)
		projects.DELETE("/:project_id/favorite", h.RemoveFavorite)

		projects.POST("/:project_id/statuses", h.CreateStatus)
		projects.GET("/:project_id/statuses", h.GetStatuses)
		projects.PUT("/:project_id/statuses/:status_id", h.UpdateStatus)
		projects.DELETE("/:project_id/statuses/:status_id", h.DeleteStatus)
		projects.GET("/:project_id/statuses/:status_id/issues", h.GetStatusIssues)
		projects.PUT("/:project_id/status-order", h.ReorderStatuses)

		projects.POST("/:project_id/issues", h.CreateIssue)
		projects.GET("/:project_id/issues", h.GetProjectIssues)

		projects.POST("/:project_id/labels", h.CreateLabel)
		projects.GET("/:project_id/labels", h.GetProjectLabels)
		projects.PUT("/:project_id/labels/:label_id", h.UpdateLabel)
		projects.DELETE("/:project_id/labels/:label_id", h.DeleteLabel)
	}

	issues := api.Group("/issues")
	{
		issues.GET("/:issue_id", h.GetIssue)
		issues.PATCH("/:issue_id", h.UpdateIssue)
		issues.DELETE("/:issue_id", h.DeleteIssue)
		issues.POST("/:issue_id/move", h.MoveIssue)
		issues.GET("/:issue_id/history", h.GetIssueHistory)

		issues.POST("/:issue_id/labels/:label_id", h.AttachLabel)
		issues.DELETE("/:issue_id/labels/:label_id", h.DetachLabel)

		issues.POST("/:issue_id/subtasks", h.CreateSubtask)
		issues.GET("/:issue_id/subtasks", h.GetSubtasks)
		issues.PATCH("/:issue_id/subtasks/:subtask_id", h.UpdateSubtask)
		issues.DELETE("/:issue_id/subtasks/:subtask_id", h.DeleteSubtask)
		issues.PUT("/:issue_id/subtask-order", h.ReorderSubtasks)

		issues.POST("/:issue_id/comments", h.CreateComment)
		issues.GET("/:issue_id/comments", h.GetComments)
		issues.PUT("/:issue_id/comments/:comment_id", h.UpdateComment)
		issues.DELETE("/:issue_id/comments/:comment_id", h.DeleteComment)
	}

	return router
}

// identify resolves the acting user from the X-User-ID header. Auth
// proper lives at the gateway; the engine trusts the forwarded id.
func (h *Handler) identify(c *gin.Context) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		h.errorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-ID header is required")
		c.Abort()
		return
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		h.errorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-ID header is invalid")
		c.Abort()
		return
	}
	c.Set("user_id", userID)
	c.Next()
}

func (h *Handler) userID(c *gin.Context) int64 {
	return c.GetInt64("user_id")
}

func (h *Handler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", name+" is invalid")
		return 0, false
	}
	return id, true
}

func (h *Handler) errorResponse(c *gin.Context, status int, code, message string) {
	h.logger.Error("handler error", "code", code, "message", message, "status", status)
	c.JSON(status, domain.ErrorResponse{
		Error: domain.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Handler) successResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// handleError maps service-layer sentinels onto HTTP responses. Every
// handler funnels its non-nil errors through here.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrReorderMismatch),
		errors.Is(err, domain.ErrStatusNotInProject),
		errors.Is(err, domain.ErrLabelNotInProject):
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())

	case errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrInviteEmailMismatch):
		h.errorResponse(c, http.StatusForbidden, "FORBIDDEN", err.Error())

	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrTeamNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrStatusNotFound),
		errors.Is(err, domain.ErrIssueNotFound),
		errors.Is(err, domain.ErrSubtaskNotFound),
		errors.Is(err, domain.ErrLabelNotFound),
		errors.Is(err, domain.ErrCommentNotFound),
		errors.Is(err, domain.ErrNotificationNotFound),
		errors.Is(err, domain.ErrInviteNotFound):
		h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())

	case errors.Is(err, domain.ErrInviteExpired):
		h.errorResponse(c, http.StatusGone, "INVITE_EXPIRED", err.Error())

	case errors.Is(err, domain.ErrWIPLimitExceeded):
		h.errorResponse(c, http.StatusConflict, "WIP_LIMIT_EXCEEDED", err.Error())

	case errors.Is(err, domain.ErrDuplicateName):
		h.errorResponse(c, http.StatusConflict, "DUPLICATE_NAME", err.Error())

	case errors.Is(err, domain.ErrProjectArchived):
		h.errorResponse(c, http.StatusConflict, "PROJECT_ARCHIVED", err.Error())

	case errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrInvitePending),
		errors.Is(err, domain.ErrInviteAccepted),
		errors.Is(err, domain.ErrCannotRemoveOwner),
		errors.Is(err, domain.ErrCannotChangeOwner),
		errors.Is(err, domain.ErrDefaultStatusDelete),
		errors.Is(err, domain.ErrIssueLabelLimit),
		errors.Is(err, domain.ErrProjectLabelLimit):
		h.errorResponse(c, http.StatusConflict, "CONFLICT", err.Error())

	default:
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
