package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"rap-order-service/internal/apperr"
	"rap-order-service/internal/completion"
	"rap-order-service/internal/model"
)

const DefaultVideoSystemPrompt = `You are an expert video generation AI specializing in creating high-quality rap music videos. Transform user concepts into detailed, professional video descriptions that result in stunning visual content. Focus on cinematic quality, professional music video production values, dynamic camera movements, lighting effects, and visual storytelling. Understand hip-hop culture, urban aesthetics, and rap video conventions.`

const (
	videoMaxTokens   = 1000
	videoTemperature = 0.7
)

type VideoService struct {
	completer      completion.Completer
	model          string
	placeholderURL string
	logger         *zap.Logger
	now            func() time.Time
}

func NewVideoService(completer completion.Completer, model, placeholderURL string, logger *zap.Logger) *VideoService {
	return &VideoService{
		completer:      completer,
		model:          model,
		placeholderURL: placeholderURL,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *VideoService) Model() string {
	return s.model
}

// GenerateVideo forwards the composed prompt upstream and returns the first
// URL found in the answer. Upstream failures and URL-less answers yield the
// placeholder URL with Placeholder set.
func (s *VideoService) GenerateVideo(ctx context.Context, req model.VideoRequest) (model.VideoResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return model.VideoResult{}, apperr.Validation("Prompt is required")
	}

	system := strings.TrimSpace(req.SystemPrompt)
	if system == "" {
		system = DefaultVideoSystemPrompt
	}
	prompt := VideoPrompt(req)
	temperature := videoTemperature

	s.logger.Info("video_generation_started", zap.String("model", s.model), zap.String("prompt", prompt))

	result := model.VideoResult{
		Success: true,
		Metadata: model.VideoMetadata{
			Prompt:      req.Prompt,
			Style:       req.Style,
			Duration:    req.Duration,
			Quality:     req.Quality,
			AspectRatio: req.AspectRatio,
			Model:       s.model,
		},
	}

	resp, err := s.completer.Complete(ctx, completion.Request{
		Model: s.model,
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: system},
			{Role: completion.RoleUser, Content: prompt},
		},
		MaxTokens:   videoMaxTokens,
		Temperature: &temperature,
	})
	result.Metadata.GeneratedAt = s.now().UTC()

	if err != nil {
		s.logger.Warn("video_generation_failed", zap.String("model", s.model), zap.Error(err))
		result.VideoURL = s.placeholderURL
		result.Placeholder = true
		return result, nil
	}

	videoURL, ok := completion.ExtractURL(resp)
	if !ok {
		s.logger.Warn("video_generation_failed", zap.String("model", s.model), zap.String("reason", "no video url in response"))
		result.VideoURL = s.placeholderURL
		result.Placeholder = true
		return result, nil
	}

	result.VideoURL = videoURL
	return result, nil
}

func VideoPrompt(req model.VideoRequest) string {
	return fmt.Sprintf("%s. Professional music video production, %s quality, %s aspect ratio, %d seconds duration. Cinematic lighting, dynamic camera movements, high production values.",
		strings.TrimSpace(req.Prompt), req.Quality, req.AspectRatio, req.Duration)
}
