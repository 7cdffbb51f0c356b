package web

import (
	"errors"
	"net/http"
	"strconv"

	"sunrise/internal/application/orchestrators"
	"sunrise/internal/application/projections"
	"sunrise/internal/domain/forum"
	"sunrise/internal/domain/notification"
)

// handleNotifications renders the navbar notification panel (GET /notifications)
// POST: JSON when asked for it, otherwise the panel fragment; anonymous viewers get a login hint
func handleNotifications(w http.ResponseWriter, r *http.Request) {
	v := viewerFor(r)
	panel, err := projections.QueryNotifications(r.Context(), v.backend, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	respondNotifications(w, r, panel)
}

func respondNotifications(w http.ResponseWriter, r *http.Request, panel projections.NotificationPanel) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, panel)
		return
	}
	renderFragment(w, r, "notifications.html", "notifications", panel)
}

// handleNotificationSeen acknowledges a notification (POST /notifications/{id}/seen)
// PRE: form field item_type is a notification type
// POST: the refreshed panel is returned; validation failures are 400
func handleNotificationSeen(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	v := viewerFor(r)
	list, err := orchestrators.ExecuteMarkNotificationSeen(r.Context(), orchestrators.MarkNotificationSeenInput{
		ID:       id,
		ItemType: r.FormValue("item_type"),
	}, v.backend)
	switch {
	case errors.Is(err, notification.ErrInvalidType), errors.Is(err, notification.ErrInvalidID):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, forum.ErrUnauthorized):
		respondNotifications(w, r, projections.NotificationPanel{NeedsLogin: true})
		return
	case err != nil:
		http.Error(w, "failed to update notification", http.StatusBadGateway)
		return
	}
	respondNotifications(w, r, projections.BuildNotificationPanel(list, timeNow()))
}
