package ai

import (
	"context"
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	apperrors "github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/pkg/config"
)

// TranscribeOptions describes one speech-to-text request
type TranscribeOptions struct {
	AudioURL  string
	Language  string
	Diarize   bool
	WordBoost []string
}

// AssemblyAIClient wraps the AssemblyAI SDK
type AssemblyAIClient struct {
	client          *aai.Client
	apiKey          string
	defaultLanguage string
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config
func NewAssemblyAIClient(cfg config.AssemblyAIConfig) *AssemblyAIClient {
	opts := []aai.ClientOption{aai.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, aai.WithBaseURL(cfg.BaseURL))
	}
	return &AssemblyAIClient{
		client:          aai.NewClientWithOptions(opts...),
		apiKey:          cfg.APIKey,
		defaultLanguage: cfg.DefaultLanguage,
	}
}

// Transcribe submits the audio URL and blocks until AssemblyAI finishes.
// A transcript that ends in the error status is returned as an error.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, opts TranscribeOptions) (*aai.Transcript, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("assemblyai: %w", apperrors.ErrNotConfigured)
	}
	if opts.AudioURL == "" {
		return nil, fmt.Errorf("assemblyai: audio url is required")
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(opts.Diarize),
	}

	language := opts.Language
	if language == "" {
		language = c.defaultLanguage
	}
	if language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(language)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	if len(opts.WordBoost) > 0 {
		params.WordBoost = opts.WordBoost
		params.BoostParam = aai.TranscriptBoostParam("high")
	}

	transcript, err := c.client.Transcripts.TranscribeFromURL(ctx, opts.AudioURL, params)
	if err != nil {
		return nil, fmt.Errorf("assemblyai transcribe failed: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, fmt.Errorf("assemblyai transcript failed: %s", msg)
	}
	if transcript.Status != aai.TranscriptStatusCompleted {
		return nil, fmt.Errorf("assemblyai transcript not completed: %s", transcript.Status)
	}

	return &transcript, nil
}
