package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
)

func (h *Handler) CreateComment(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	var req domain.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	comment, err := h.services.Comments.CreateComment(c.Request.Context(), issueID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusCreated, comment)
}

func (h *Handler) UpdateComment(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	commentID, ok := h.pathID(c, "comment_id")
	if !ok {
		return
	}
	var req domain.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	comment, err := h.services.Comments.UpdateComment(c.Request.Context(), issueID, commentID, h.userID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, comment)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}
	commentID, ok := h.pathID(c, "comment_id")
	if !ok {
		return
	}

	if err := h.services.Comments.DeleteComment(c.Request.Context(), issueID, commentID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetComments(c *gin.Context) {
	issueID, ok := h.pathID(c, "issue_id")
	if !ok {
		return
	}

	comments, err := h.services.Comments.GetComments(c.Request.Context(), issueID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"comments": comments})
}
