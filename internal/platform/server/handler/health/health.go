package health

import (
	"encoding/json"
	"net/http"

	"LogDB/internal/platform/repository/logstore"
)

type HealthHandler struct {
	db *logstore.Database
}

type HealthResponse struct {
	Status       string `json:"status"`
	Keys         int    `json:"keys"`
	LogSizeBytes int64  `json:"log_size_bytes"`
}

func NewHealthHandler(db *logstore.Database) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		Status:       "ok",
		Keys:         h.db.Len(),
		LogSizeBytes: h.db.Size(),
	})
}
