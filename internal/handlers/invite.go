package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
)

func (h *Handler) CreateInvite(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}
	var req domain.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	invite, err := h.services.Invites.CreateInvite(c.Request.Context(), teamID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusCreated, invite)
}

func (h *Handler) AcceptInvite(c *gin.Context) {
	var req domain.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	member, err := h.services.Invites.AcceptInvite(c.Request.Context(), h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, member)
}

func (h *Handler) CancelInvite(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}
	inviteID, ok := h.pathID(c, "invite_id")
	if !ok {
		return
	}

	if err := h.services.Invites.CancelInvite(c.Request.Context(), teamID, inviteID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetTeamInvites(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}

	invites, err := h.services.Invites.GetTeamInvites(c.Request.Context(), teamID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"invites": invites})
}

func (h *Handler) GetMyInvites(c *gin.Context) {
	invites, err := h.services.Invites.GetMyInvites(c.Request.Context(), h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"invites": invites})
}
