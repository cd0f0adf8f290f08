package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
)

func (h *Handler) CreateProject(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}
	var req domain.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	project, err := h.services.Projects.CreateProject(c.Request.Context(), teamID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusCreated, project)
}

func (h *Handler) GetProject(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}

	project, err := h.services.Projects.GetProject(c.Request.Context(), projectID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, project)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	var req domain.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	project, err := h.services.Projects.UpdateProject(c.Request.Context(), projectID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, project)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}

	if err := h.services.Projects.DeleteProject(c.Request.Context(), projectID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ArchiveProject(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *Handler) UnarchiveProject(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *Handler) setArchived(c *gin.Context, archived bool) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}

	project, err := h.services.Projects.SetArchived(c.Request.Context(), projectID, h.userID(c), archived)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, project)
}

func (h *Handler) GetTeamProjects(c *gin.Context) {
	teamID, ok := h.pathID(c, "team_id")
	if !ok {
		return
	}

	projects, err := h.services.Projects.GetTeamProjects(c.Request.Context(), teamID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"projects": projects})
}

func (h *Handler) GetMyProjects(c *gin.Context) {
	projects, err := h.services.Projects.GetMyProjects(c.Request.Context(), h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"projects": projects})
}

func (h *Handler) AddFavorite(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}

	if err := h.services.Projects.AddFavorite(c.Request.Context(), projectID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}

	if err := h.services.Projects.RemoveFavorite(c.Request.Context(), projectID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetFavoriteProjects(c *gin.Context) {
	projects, err := h.services.Projects.GetFavoriteProjects(c.Request.Context(), h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"projects": projects})
}
