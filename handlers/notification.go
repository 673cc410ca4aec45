package handlers

import (
	"context"
	"net/http"

	"librarydesk/middleware"
	"librarydesk/models"
	"librarydesk/utils"
)

type NotificationStore interface {
	ListNotifications(ctx context.Context, memberID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, memberID string, id int64) error
}

type NotificationHandler struct {
	store NotificationStore
}

func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	notifs, err := h.store.ListNotifications(r.Context(), claims.MemberID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching notifications")
		return
	}
	utils.WriteJSON(w, http.StatusOK, notifs)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var payload struct {
		ID int64 `json:"id"`
	}
	if err := utils.ReadJSON(r, &payload); err != nil || payload.ID == 0 {
		utils.WriteError(w, http.StatusBadRequest, "id required")
		return
	}
	if err := h.store.MarkNotificationRead(r.Context(), claims.MemberID, payload.ID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error updating notification")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}
