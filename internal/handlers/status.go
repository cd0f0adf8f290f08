package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
)

func (h *Handler) CreateStatus(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	var req domain.CreateIssueStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	status, err := h.services.Statuses.CreateStatus(c.Request.Context(), projectID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusCreated, status)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	statusID, ok := h.pathID(c, "status_id")
	if !ok {
		return
	}
	var req domain.UpdateIssueStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	status, err := h.services.Statuses.UpdateStatus(c.Request.Context(), projectID, statusID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, status)
}

func (h *Handler) DeleteStatus(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	statusID, ok := h.pathID(c, "status_id")
	if !ok {
		return
	}

	if err := h.services.Statuses.DeleteStatus(c.Request.Context(), projectID, statusID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ReorderStatuses(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	var req domain.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	statuses, err := h.services.Statuses.ReorderStatuses(c.Request.Context(), projectID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"statuses": statuses})
}

func (h *Handler) GetStatuses(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}

	statuses, err := h.services.Statuses.GetStatuses(c.Request.Context(), projectID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"statuses": statuses})
}
