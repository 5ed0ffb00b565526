package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rap-order-service/internal/completion"
	"rap-order-service/internal/lyrics"
)

const lyricExcerptLen = 500

type AudioResult struct {
	URL     string
	Success bool
	Err     string
}

// SongGenerator never fails: on any problem it returns a fallback URL with
// Success=false.
type SongGenerator interface {
	Generate(ctx context.Context, lyricText, style string) AudioResult
}

type AudioGenerator struct {
	completer    completion.Completer
	model        string
	timeout      time.Duration
	fallbackBase string
	logger       *zap.Logger
	now          func() time.Time
}

func NewAudioGenerator(completer completion.Completer, model string, timeout time.Duration, fallbackBase string, logger *zap.Logger) *AudioGenerator {
	return &AudioGenerator{
		completer:    completer,
		model:        model,
		timeout:      timeout,
		fallbackBase: fallbackBase,
		logger:       logger,
		now:          time.Now,
	}
}

func (g *AudioGenerator) Generate(ctx context.Context, lyricText, style string) AudioResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.completer.Complete(ctx, completion.Request{
		Model:    g.model,
		Messages: []completion.Message{{Role: completion.RoleUser, Content: SongPrompt(lyricText, style)}},
	})
	if err != nil {
		return g.fallback(err.Error())
	}

	audioURL, ok := completion.ExtractURL(resp)
	if !ok {
		return g.fallback("no audio url in response")
	}
	return AudioResult{URL: audioURL, Success: true}
}

func (g *AudioGenerator) fallback(reason string) AudioResult {
	g.logger.Warn("audio_generation_failed", zap.String("model", g.model), zap.String("reason", reason))
	return AudioResult{
		URL: fmt.Sprintf("%s/mock-song-%d.mp3", g.fallbackBase, g.now().UnixMilli()),
		Err: reason,
	}
}

// SongPrompt builds the audio generation prompt from the first 500
// characters of the lyrics.
func SongPrompt(lyricText, style string) string {
	return fmt.Sprintf("Create a rap song audio with these lyrics: \"%s...\"\nStyle: %s\nRequirements: Fast TTS-style rap vocals with background beat, 2-3 minutes duration",
		lyrics.Excerpt(lyricText, lyricExcerptLen), style)
}
