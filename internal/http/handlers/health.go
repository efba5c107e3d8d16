package handlers

import "net/http"

// EntryCounter reports the size of the entry collection.
type EntryCounter interface {
	Count() int
}

// HealthHandler serves /health.
type HealthHandler struct {
	entries EntryCounter
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(entries EntryCounter) *HealthHandler {
	return &HealthHandler{entries: entries}
}

type healthResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Entries: h.entries.Count()})
}
