package transcript

import (
	"context"
	"encoding/json"
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/pkg/ai"
)

// Request is a speech-to-text job for a recording
type Request struct {
	AudioURL     string
	Language     string
	Diarize      bool
	KeywordBoost []string
}

// SpeechToText is the speech recognition boundary
type SpeechToText interface {
	Transcribe(ctx context.Context, req Request) (*RawTranscript, error)
}

// Transcriber is the AssemblyAI call the provider depends on
type Transcriber interface {
	Transcribe(ctx context.Context, opts ai.TranscribeOptions) (*aai.Transcript, error)
}

// AssemblyAIProvider adapts the AssemblyAI client to SpeechToText
type AssemblyAIProvider struct {
	client Transcriber
}

// NewAssemblyAIProvider creates the provider
func NewAssemblyAIProvider(client Transcriber) *AssemblyAIProvider {
	return &AssemblyAIProvider{client: client}
}

// Transcribe runs the job and decodes the response
func (p *AssemblyAIProvider) Transcribe(ctx context.Context, req Request) (*RawTranscript, error) {
	t, err := p.client.Transcribe(ctx, ai.TranscribeOptions{
		AudioURL:  req.AudioURL,
		Language:  req.Language,
		Diarize:   req.Diarize,
		WordBoost: req.KeywordBoost,
	})
	if err != nil {
		return nil, err
	}
	return FromAssemblyAI(t), nil
}

// FromAssemblyAI converts an SDK transcript. AssemblyAI reports times in milliseconds.
func FromAssemblyAI(t *aai.Transcript) *RawTranscript {
	if t == nil {
		return nil
	}
	raw := &RawTranscript{
		ProviderID: deref(t.ID),
		Text:       deref(t.Text),
		Language:   string(t.LanguageCode),
		Confidence: t.Confidence,
	}
	for _, u := range t.Utterances {
		raw.Utterances = append(raw.Utterances, RawUtterance{
			Text:       deref(u.Text),
			Start:      millis(u.Start),
			End:        millis(u.End),
			Confidence: derefFloat(u.Confidence),
			Speaker:    deref(u.Speaker),
		})
	}
	for _, w := range t.Words {
		raw.Words = append(raw.Words, RawWord{
			Text:       deref(w.Text),
			Start:      millis(w.Start),
			End:        millis(w.End),
			Confidence: derefFloat(w.Confidence),
			Speaker:    deref(w.Speaker),
		})
	}
	return raw
}

// DecodeRaw validates and decodes a transcript attached to a webhook or poll response
func DecodeRaw(data json.RawMessage) (*RawTranscript, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var raw RawTranscript
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed transcript payload: %v", entities.ErrInvalidInput, err)
	}
	for i, w := range raw.Words {
		if w.End < w.Start {
			return nil, fmt.Errorf("%w: word %d ends before it starts", entities.ErrInvalidInput, i)
		}
	}
	return &raw, nil
}

// Service fetches and normalizes transcripts
type Service struct {
	stt    SpeechToText
	logger *zap.Logger
}

// NewService creates a transcript service
func NewService(stt SpeechToText, logger *zap.Logger) *Service {
	return &Service{stt: stt, logger: logger}
}

// Transcribe calls the speech-to-text provider and normalizes the result.
// Provider failures return no partial transcript.
func (s *Service) Transcribe(ctx context.Context, req Request, customWords []string) (*Result, error) {
	if s.stt == nil {
		return nil, fmt.Errorf("%w: no speech-to-text provider", entities.ErrTranscriptionFailed)
	}
	if req.AudioURL == "" {
		return nil, fmt.Errorf("%w: audio url is required", entities.ErrInvalidInput)
	}
	if len(req.KeywordBoost) == 0 {
		req.KeywordBoost = cleanVocabulary(customWords)
	}

	raw, err := s.stt.Transcribe(ctx, req)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("transcript.stt_failed",
				zap.String("audio_url", req.AudioURL),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("%w: %w", entities.ErrTranscriptionFailed, err)
	}

	result := Normalize(raw, customWords)
	if s.logger != nil {
		s.logger.Info("transcript.normalized",
			zap.Int("segments", len(result.Segments)),
			zap.Int("speakers", len(result.Speakers)),
			zap.Float64("confidence", result.Confidence),
		)
	}
	return result, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func millis(ms *int64) float64 {
	if ms == nil {
		return 0
	}
	return float64(*ms) / 1000
}
