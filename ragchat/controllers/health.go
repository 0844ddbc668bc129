package controllers

import (
	"encoding/json"
	"net/http"
)

type HealthController struct {
	storageBackend string
}

func NewHealthController(storageBackend string) *HealthController {
	return &HealthController{storageBackend: storageBackend}
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "storage": h.storageBackend})
}
