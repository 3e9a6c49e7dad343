package notif

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"researchhub/internal/common"
	"researchhub/internal/config"

	"github.com/gorilla/mux"
)

// NotificationHandler is the HTTP edge of the notification core: the
// pull API plus the live SSE stream.
type NotificationHandler struct {
	service           *NotificationService
	registry          *ConnectionRegistry
	heartbeatInterval time.Duration
}

func NewNotificationHandler(
	cfg *config.Config,
	service *NotificationService,
	registry *ConnectionRegistry,
) *NotificationHandler {
	heartbeat := time.Duration(cfg.Notification.HeartbeatInterval) * time.Second
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}

	return &NotificationHandler{
		service:           service,
		registry:          registry,
		heartbeatInterval: heartbeat,
	}
}

// Router builds the full route table. Everything under /api/v1 requires
// a Bearer token; ownership checks live in the store, not here.
func (h *NotificationHandler) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(common.AuthMiddleware)

	api.HandleFunc("/notifications", h.handleList).Methods("GET")
	api.HandleFunc("/notifications", h.handleCreate).Methods("POST")
	api.HandleFunc("/notifications", h.handleMarkAllRead).Methods("PUT")
	api.HandleFunc("/notifications/emit", h.handleEmit).Methods("POST")
	api.HandleFunc("/notifications/events", h.handleEvents).Methods("GET")
	api.HandleFunc("/notifications/{id}", h.handleMarkRead).Methods("PUT")
	api.HandleFunc("/notifications/{id}", h.handleDelete).Methods("DELETE")

	router.HandleFunc("/health", h.health).Methods("GET")

	return router
}

type createNotificationRequest struct {
	Kind         string                      `json:"type"`
	Title        string                      `json:"title"`
	Message      string                      `json:"message"`
	Metadata     common.NotificationMetadata `json:"metadata"`
	TargetUserID string                      `json:"target_user_id"`
}

type emitActionRequest struct {
	ActionType   string                      `json:"type"`
	Title        string                      `json:"title"`
	Message      string                      `json:"message"`
	Metadata     common.NotificationMetadata `json:"metadata"`
	TargetUserID string                      `json:"target_user_id"`
}

func (h *NotificationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = parsed
	}

	list, err := h.service.UserNotifications(r.Context(), userID, limit)
	if err != nil {
		log.Printf("Failed to get notifications for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to get notifications")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	targetUserID := req.TargetUserID
	if targetUserID == "" {
		targetUserID = userID
	}

	kind := common.NotificationKind(req.Kind)
	if req.Kind == "" {
		kind = common.ActionKind
	}

	notif, err := h.service.Notify(r.Context(), targetUserID, kind, req.Title, req.Message, req.Metadata)
	if err != nil {
		if common.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Failed to create notification for user %s: %v", targetUserID, err)
		writeError(w, http.StatusInternalServerError, "failed to create notification")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"notification": common.ToNotificationResponse(notif),
	})
}

func (h *NotificationHandler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	count, err := h.service.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to mark all notifications read for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to mark notifications as read")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"updated_count": count,
	})
}

func (h *NotificationHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	notificationID := mux.Vars(r)["id"]

	notif, err := h.service.MarkAsRead(r.Context(), userID, notificationID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		log.Printf("Failed to mark notification %s read: %v", notificationID, err)
		writeError(w, http.StatusInternalServerError, "failed to mark notification as read")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"notification": common.ToNotificationResponse(notif),
	})
}

func (h *NotificationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	notificationID := mux.Vars(r)["id"]

	if err := h.service.Delete(r.Context(), userID, notificationID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		log.Printf("Failed to delete notification %s: %v", notificationID, err)
		writeError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "notification deleted",
	})
}

func (h *NotificationHandler) handleEmit(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	var req emitActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	targetUserID := req.TargetUserID
	if targetUserID == "" {
		targetUserID = userID
	}

	delivered := h.service.EmitAction(targetUserID, req.ActionType, req.Title, req.Message, req.Metadata)

	message := "event delivered"
	if !delivered {
		message = "user not connected to the event stream"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": delivered,
		"message": message,
	})
}

// handleEvents is the live channel: one long-held SSE connection per
// user, registered for pushes until the client goes away or a newer
// connection replaces this one.
func (h *NotificationHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	handle := newSSEHandle(w, flusher)
	h.registry.Register(userID, handle)
	defer h.registry.Unregister(userID, handle)
	defer handle.Close()

	log.Printf("SSE connected for user %s", userID)

	if err := handle.Send(common.Event{
		Type:      common.ConnectedEvent,
		Message:   "Connected to notification stream",
		Timestamp: time.Now(),
	}); err != nil {
		log.Printf("SSE connect event failed for user %s: %v", userID, err)
		return
	}

	// First heartbeat right away so the client gets its unread count
	// without waiting a full interval.
	if err := h.sendHeartbeat(r, userID, handle); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("SSE disconnected for user %s", userID)
			return
		case <-handle.Done():
			// Superseded by a newer connection from the same user.
			log.Printf("SSE superseded for user %s", userID)
			return
		case <-ticker.C:
			if err := h.sendHeartbeat(r, userID, handle); err != nil {
				log.Printf("SSE heartbeat failed for user %s: %v", userID, err)
				return
			}
		}
	}
}

func (h *NotificationHandler) sendHeartbeat(r *http.Request, userID string, handle common.StreamHandle) error {
	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		// The store being briefly unavailable should not kill the
		// stream; the next tick retries.
		log.Printf("Heartbeat unread count failed for user %s: %v", userID, err)
		return nil
	}

	return handle.Send(common.Event{
		Type:        common.HeartbeatEvent,
		UnreadCount: &count,
		Timestamp:   time.Now(),
	})
}

func (h *NotificationHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"service":            "researchhub-notifications",
		"active_connections": h.registry.ActiveConnections(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}
