/**
 * @description
 * This file contains the HTTP handlers for the in-app notification feed:
 * listing, unread counts and marking notifications read.
 */

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fundflow/campaign-service/internal/domain"
)

// ListNotificationsHandler handles GET /notifications.
// Query parameters: limit, offset, unread_only.
func (h *CampaignHandlers) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	opts := domain.NotificationListOptions{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		opts.Limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		opts.Offset, _ = strconv.Atoi(raw)
	}
	opts.UnreadOnly = r.URL.Query().Get("unread_only") == "true"

	notifications, err := h.service.ListNotifications(r.Context(), userID, opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	h.writeJSON(w, http.StatusOK, notifications)
}

// UnreadCountHandler handles GET /notifications/unread-count.
func (h *CampaignHandlers) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	count, err := h.service.CountUnreadNotifications(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// ListUserBadgesHandler handles GET /badges, the acting user's earned badges.
func (h *CampaignHandlers) ListUserBadgesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	badges, err := h.service.ListUserBadges(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if badges == nil {
		badges = []domain.Badge{}
	}
	h.writeJSON(w, http.StatusOK, badges)
}

// MarkNotificationReadHandler handles PUT /notifications/{notificationID}/read.
func (h *CampaignHandlers) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	notificationID, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), userID, notificationID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
