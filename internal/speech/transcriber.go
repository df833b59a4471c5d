package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Transcriber turns a finished recording into text.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
}

// WhisperTranscriber calls an OpenAI-compatible transcription endpoint. The
// base URL can point at a local whisper.cpp or faster-whisper server.
type WhisperTranscriber struct {
	client   *openai.Client
	model    string
	language string
}

// NewWhisperTranscriber builds a transcriber. Empty baseURL uses the OpenAI API;
// empty model uses whisper-1.
func NewWhisperTranscriber(baseURL, apiKey, model, language string) *WhisperTranscriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
	}
}

// TranscribeFile uploads the WAV at path and returns the trimmed transcript.
func (t *WhisperTranscriber) TranscribeFile(ctx context.Context, path string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: t.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("speech: transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
