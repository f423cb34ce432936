package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"guardian/internal/catalog"
	"guardian/internal/config"
)

// RealtimeService mints ephemeral realtime voice sessions. The API key never
// leaves the server; clients receive only the session's client secret.
type RealtimeService struct {
	cfg    config.RealtimeConfig
	cat    *catalog.Catalog
	client *http.Client
}

func NewRealtimeService(cfg config.RealtimeConfig, cat *catalog.Catalog) *RealtimeService {
	return &RealtimeService{
		cfg:    cfg,
		cat:    cat,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

type transcription struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMS   int     `json:"prefix_padding_ms"`
	SilenceDurationMS int     `json:"silence_duration_ms"`
}

type sessionRequest struct {
	Model                   string        `json:"model"`
	Voice                   string        `json:"voice"`
	Instructions            string        `json:"instructions"`
	InputAudioFormat        string        `json:"input_audio_format"`
	OutputAudioFormat       string        `json:"output_audio_format"`
	InputAudioTranscription transcription `json:"input_audio_transcription"`
	TurnDetection           turnDetection `json:"turn_detection"`
}

// Instructions resolves the prompt for a session: the caller's own text, or
// the built-in voice prompt for language when that is empty.
func (s *RealtimeService) Instructions(language, systemPrompt string) string {
	if strings.TrimSpace(systemPrompt) != "" {
		return systemPrompt
	}
	return s.cat.VoicePrompt(language)
}

// CreateSession returns the upstream session object verbatim.
func (s *RealtimeService) CreateSession(ctx context.Context, language, systemPrompt string) (json.RawMessage, error) {
	body := sessionRequest{
		Model:                   s.cfg.Model,
		Voice:                   s.cat.Language(language).Voice,
		Instructions:            s.Instructions(language, systemPrompt),
		InputAudioFormat:        "pcm16",
		OutputAudioFormat:       "pcm16",
		InputAudioTranscription: transcription{Model: s.cfg.TranscriptionModel},
		TurnDetection: turnDetection{
			Type:              "server_vad",
			Threshold:         s.cfg.VADThreshold,
			PrefixPaddingMS:   s.cfg.PrefixPaddingMS,
			SilenceDurationMS: s.cfg.SilenceDurationMS,
		},
	}
	if body.Voice == "" {
		body.Voice = s.cfg.Voice
	}
	var out json.RawMessage
	if err := s.doJSON(ctx, http.MethodPost, "/v1/realtime/sessions", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RealtimeService) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("realtime api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(data)}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
