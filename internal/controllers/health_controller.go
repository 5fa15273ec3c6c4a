package controllers

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"gpscam/internal/services"
	"gpscam/internal/storage"
)

type HealthController struct {
	captures  services.CaptureServiceInterface
	store     storage.RecordStore
	startTime time.Time
}

type healthResponse struct {
	Status          string  `json:"status"`
	Uptime          string  `json:"uptime"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	Backend         string  `json:"backend"`
	CapturesOK      uint64  `json:"captures_ok"`
	CapturesFailed  uint64  `json:"captures_failed"`
	CaptureInFlight bool    `json:"capture_in_flight"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	ok, failed := hc.captures.Captures()
	resp := healthResponse{
		Status:          "ok",
		Uptime:          formatDuration(uptime),
		UptimeSeconds:   uptime.Seconds(),
		Backend:         hc.store.Backend(),
		CapturesOK:      ok,
		CapturesFailed:  failed,
		CaptureInFlight: hc.captures.IsCapturing(),
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(captures services.CaptureServiceInterface, store storage.RecordStore) *HealthController {
	return &HealthController{
		captures:  captures,
		store:     store,
		startTime: time.Now(),
	}
}
