package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
)

func (h *Handler) CreateIssue(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	var req domain.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	issue, err := h.services.Issues.CreateIssue(c.Request.Context(), projectID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusCreated, issue)
}

func (h *Handler) GetIssue(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}

	detail, err := h.services.Issues.GetIssue(c.Request.Context(), issueID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, detail)
}

func (h *Handler) UpdateIssue(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	var req domain.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	issue, err := h.services.Issues.UpdateIssue(c.Request.Context(), issueID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, issue)
}

func (h *Handler) MoveIssue(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	var req domain.MoveIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	issue, err := h.services.Issues.MoveIssue(c.Request.Context(), issueID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, issue)
}

func (h *Handler) DeleteIssue(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}

	if err := h.services.Issues.DeleteIssue(c.Request.Context(), issueID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProjectIssues(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}

	issues, err := h.services.Issues.GetProjectIssues(c.Request.Context(), projectID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"issues": issues})
}

func (h *Handler) GetStatusIssues(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	statusID, ok := h.pathID(c, "status_id")
	if !ok {
		return
	}

	issues, err := h.services.Issues.GetStatusIssues(c.Request.Context(), projectID, statusID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"issues": issues})
}

func (h *Handler) GetIssueHistory(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
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

	history, err := h.services.Issues.GetIssueHistory(c.Request.Context(), issueID, h.userID(c), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"history": history})
}

func (h *Handler) CreateLabel(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	var req domain.CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	label, err := h.services.Issues.CreateLabel(c.Request.Context(), projectID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusCreated, label)
}

func (h *Handler) UpdateLabel(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	labelID, ok := h.pathID(c, "label_id")
	if !ok {
		return
	}
	var req domain.UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	label, err := h.services.Issues.UpdateLabel(c.Request.Context(), projectID, labelID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, label)
}

func (h *Handler) DeleteLabel(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}
	labelID, ok := h.pathID(c, "label_id")
	if !ok {
		return
	}

	if err := h.services.Issues.DeleteLabel(c.Request.Context(), projectID, labelID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProjectLabels(c *gin.Context) {
	projectID, ok := h.pathID(c, "project_id")
	if !ok {
		return
	}

	labels, err := h.services.Issues.GetProjectLabels(c.Request.Context(), projectID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"labels": labels})
}

func (h *Handler) AttachLabel(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	labelID, ok := h.pathID(c, "label_id")
	if !ok {
		return
	}

	if err := h.services.Issues.AttachLabel(c.Request.Context(), issueID, labelID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DetachLabel(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	labelID, ok := h.pathID(c, "label_id")
	if !ok {
		return
	}

	if err := h.services.Issues.DetachLabel(c.Request.Context(), issueID, labelID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
