package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
)

func (h *Handler) CreateTeam(c *gin.Context) {
	var req domain.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	team, err := h.services.Teams.CreateTeam(c.Request.Context(), h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusCreated, team)
}

func (h *Handler) GetMyTeams(c *gin.Context) {
	teams, err := h.services.Teams.GetMyTeams(c.Request.Context(), h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"teams": teams})
}

func (h *Handler) GetTeam(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}

	team, err := h.services.Teams.GetTeam(c.Request.Context(), teamID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, team)
}

func (h *Handler) UpdateTeam(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}
	var req domain.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	team, err := h.services.Teams.UpdateTeam(c.Request.Context(), teamID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, team)
}

func (h *Handler) DeleteTeam(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}

	if err := h.services.Teams.DeleteTeam(c.Request.Context(), teamID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetTeamMembers(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}

	members, err := h.services.Teams.GetTeamMembers(c.Request.Context(), teamID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"members": members})
}

func (h *Handler) RemoveMember(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}
	memberID, ok := h.pathID(c, "member_id")
	if !ok {
		return
	}

	if err := h.services.Teams.RemoveMember(c.Request.Context(), teamID, memberID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdateMemberRole(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}
	memberID, ok := h.pathID(c, "member_id")
	if !ok {
		return
	}
	var req domain.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	member, err := h.services.Teams.UpdateMemberRole(c.Request.Context(), teamID, memberID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, member)
}

func (h *Handler) GetActivityLogs(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "limit is invalid")
			return
		}
		limit = parsed
	}

	logs, err := h.services.Activity.GetActivityLogs(c.Request.Context(), teamID, h.userID(c), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"activity": logs})
}
