package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/service"
)

// SendNotification handles send notification HTTP requests
func (h *HTTPHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      string          `json:"title"`
		Message    string          `json:"message"`
		TargetType string          `json:"targetType"`
		TargetID   json.RawMessage `json:"targetId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Notifications.Send(r.Context(), principal(r), &service.SendRequest{
		Title:      req.Title,
		Message:    req.Message,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Notification sent successfully",
		"notificationId": res.NotificationID,
		"recipientCount": res.RecipientCount,
	})
}

// EmployeeNotifications lists an employee's notifications.
func (h *HTTPHandler) EmployeeNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.svc.Notifications.ListForEmployee(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// UnreadCount counts an employee's unread notifications.
func (h *HTTPHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.svc.Notifications.UnreadCount(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// MarkNotificationRead marks the caller's copy read.
func (h *HTTPHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Notifications.MarkRead(r.Context(), principal(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Sockets authenticate by token, never by cookie.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsAuthenticate accepts the token from ?token= or the Authorization header.
func (h *HTTPHandler) wsAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = auth.BearerToken(r.Header.Get("Authorization"))
		}
		p, err := h.authenticator.Verify(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

// NotificationSocket upgrades to a websocket and registers it with the hub
// until the client disconnects. Inbound messages are discarded.
func (h *HTTPHandler) NotificationSocket(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("ws: upgrade failed")
		return
	}
	unregister := h.hub.Register(p.ID, conn)
	defer unregister()

	hlog.FromRequest(r).Debug().Int64("employee_id", p.ID).Msg("ws: connected")
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
