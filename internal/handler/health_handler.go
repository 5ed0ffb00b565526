package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"rap-order-service/internal/lyrics"
	"rap-order-service/internal/repository"
)

type HealthInfo struct {
	Version     string
	OrderStore  string
	APIEndpoint string
	VideoModel  string
	AudioModel  string
	Started     time.Time
}

type HealthHandler struct {
	info   HealthInfo
	pinger repository.Pinger
	logger *zap.Logger
	now    func() time.Time
}

// NewHealthHandler takes a nil pinger when orders live in process memory.
func NewHealthHandler(info HealthInfo, pinger repository.Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{info: info, pinger: pinger, logger: logger, now: time.Now}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status, code := "healthy", http.StatusOK
	database := "not_applicable"
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("health_database_unavailable", zap.Error(err))
			database = "unavailable"
			status, code = "unhealthy", http.StatusServiceUnavailable
		} else {
			database = "operational"
		}
	}

	now := h.now()
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": now.UTC().Format(time.RFC3339Nano),
		"uptime":    now.Sub(h.info.Started).Seconds(),
		"version":   h.info.Version,
		"services": map[string]string{
			"database":         database,
			"ai_api":           "operational",
			"video_generation": "operational",
		},
		"environment": map[string]string{
			"apiEndpoint": h.info.APIEndpoint,
			"videoModel":  h.info.VideoModel,
			"audioModel":  h.info.AudioModel,
			"orderStore":  h.info.OrderStore,
		},
	})
}

type TemplateHandler struct {
	catalog *lyrics.Catalog
}

func NewTemplateHandler(catalog *lyrics.Catalog) *TemplateHandler {
	return &TemplateHandler{catalog: catalog}
}

func (h *TemplateHandler) Templates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": h.catalog.Templates()})
}
