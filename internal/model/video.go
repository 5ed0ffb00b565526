package model

import "time"

type VideoRequest struct {
	Prompt       string `json:"prompt"`
	Duration     int    `json:"duration"`
	Quality      string `json:"quality"`
	AspectRatio  string `json:"aspectRatio"`
	Style        string `json:"style"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

type VideoMetadata struct {
	Prompt      string    `json:"prompt"`
	Style       string    `json:"style"`
	Duration    int       `json:"duration"`
	Quality     string    `json:"quality"`
	AspectRatio string    `json:"aspectRatio"`
	GeneratedAt time.Time `json:"generatedAt"`
	Model       string    `json:"model"`
}

type VideoResult struct {
	Success     bool          `json:"success"`
	VideoURL    string        `json:"videoUrl"`
	Placeholder bool          `json:"placeholder"`
	Metadata    VideoMetadata `json:"metadata"`
}
