package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"rap-order-service/internal/apperr"
	"rap-order-service/internal/model"
	"rap-order-service/internal/service"
)

type VideoHandler struct {
	service *service.VideoService
	logger  *zap.Logger
}

func NewVideoHandler(service *service.VideoService, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{service: service, logger: logger}
}

func (h *VideoHandler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.generate(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{
			"message":  "Video generation API is running",
			"endpoint": "/api/generate-video",
			"method":   http.MethodPost,
			"model":    h.service.Model(),
			"status":   "operational",
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *VideoHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req model.VideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.GenerateVideo(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("video_generation_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error", Details: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
