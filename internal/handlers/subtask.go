package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
)

func (h *Handler) CreateSubtask(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	var req domain.CreateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	subtask, err := h.services.Subtasks.CreateSubtask(c.Request.Context(), issueID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusCreated, subtask)
}

func (h *Handler) UpdateSubtask(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	subtaskID, ok := h.pathID(c, "subtask_id")
	if !ok {
		return
	}
	var req domain.UpdateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	subtask, err := h.services.Subtasks.UpdateSubtask(c.Request.Context(), issueID, subtaskID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, subtask)
}

func (h *Handler) DeleteSubtask(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	subtaskID, ok := h.pathID(c, "subtask_id")
	if !ok {
		return
	}

	if err := h.services.Subtasks.DeleteSubtask(c.Request.Context(), issueID, subtaskID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ReorderSubtasks(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	var req domain.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	subtasks, err := h.services.Subtasks.ReorderSubtasks(c.Request.Context(), issueID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"subtasks": subtasks})
}

func (h *Handler) GetSubtasks(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}

	subtasks, err := h.services.Subtasks.GetSubtasks(c.Request.Context(), issueID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"subtasks": subtasks})
}
