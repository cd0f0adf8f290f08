package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetNotifications(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "limit is invalid")
			return
		}
		limit = parsed
	}

	var isRead *bool
	if raw := c.Query("is_read"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "is_read is invalid")
			return
		}
		isRead = &parsed
	}

	summary, err := h.services.Notifications.GetNotifications(c.Request.Context(), h.userID(c), limit, isRead)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, summary)
}

func (h *Handler) GetNotification(c *gin.Context) {
	notificationID, ok := h.pathID(c, "notification_id")
	if !ok {
		return
	}

	n, err := h.services.Notifications.GetNotification(c.Request.Context(), notificationID, h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, n)
}

func (h *Handler) GetUnreadCount(c *gin.Context) {
	count, err := h.services.Notifications.GetUnreadCount(c.Request.Context(), h.userID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.successResponse(c, http.StatusOK, gin.H{"unread_count": count})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	notificationID, ok := h.pathID(c, "notification_id")
	if !ok {
		return
	}

	if err := h.services.Notifications.MarkAsRead(c.Request.Context(), notificationID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.services.Notifications.MarkAllAsRead(c.Request.Context(), h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	notificationID, ok := h.pathID(c, "notification_id")
	if !ok {
		return
	}

	if err := h.services.Notifications.DeleteNotification(c.Request.Context(), notificationID, h.userID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
