package handlers

import (
	"encoding/json"
	"net/http"

	"newsreel/internal/core"
	"newsreel/internal/utils"
)

type APIHandler struct {
	manager *core.Manager
	logger  *utils.Logger
}

func NewAPIHandler(manager *core.Manager, logger *utils.Logger) *APIHandler {
	return &APIHandler{manager: manager, logger: logger}
}

// A helper function to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to respond with a JSON error
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// System status
func (h *APIHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.manager.Status(r.Context()))
}

// Test notifications
func (h *APIHandler) TestNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.TestNotifiers(); err != nil {
		h.logger.Error("Notification test failed:", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
