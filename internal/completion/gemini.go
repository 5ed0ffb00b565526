package completion

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient serves completion requests through the Gemini API. The
// request's model field is ignored in favor of the configured Gemini model.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Endpoint() string {
	return "gemini:" + g.model
}

func (g *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}
	if len(contents) == 0 {
		return Response{}, fmt.Errorf("gemini request has no user messages")
	}

	cfg := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate model=%s: %w", g.model, err)
	}

	return Response{
		Choices: []Choice{{Message: Message{Role: "assistant", Content: result.Text()}}},
	}, nil
}
