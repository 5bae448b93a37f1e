package api

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger reports whether the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// JobCounter reports job queue depth by status.
type JobCounter interface {
	Counts(ctx context.Context) (map[string]int64, error)
}

// SystemHandler serves health and version. Both dependencies are optional.
type SystemHandler struct {
	DB   Pinger
	Jobs JobCounter
}

type healthResponse struct {
	Status  string           `json:"status"`
	Service string           `json:"service"`
	Jobs    map[string]int64 `json:"jobs,omitempty"`
}

func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: "showcase"}
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			logger.Error("health: database unreachable", slog.Any("err", err))
			resp.Status = "unavailable"
			writeJSON(w, resp, http.StatusServiceUnavailable)
			return
		}
	}
	if h.Jobs != nil {
		counts, err := h.Jobs.Counts(r.Context())
		if err != nil {
			logger.Warn("health: job counts", slog.Any("err", err))
		} else {
			resp.Jobs = counts
		}
	}
	writeJSON(w, resp, http.StatusOK)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": version, "buildTime": buildTime}, http.StatusOK)
	}
}
