package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"guardian/internal/config"
	"guardian/internal/model"
)

const anthropicVersion = "2023-06-01"

// CoachService relays conversations to the Anthropic Messages API under the
// fixed coaching system prompt.
type CoachService struct {
	cfg    config.CoachConfig
	system string
	client *http.Client
}

func NewCoachService(cfg config.CoachConfig, systemPrompt string) *CoachService {
	return &CoachService{
		cfg:    cfg,
		system: systemPrompt,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// ValidateMessages accepts a non-empty history of user and assistant turns.
func ValidateMessages(msgs []model.ChatMessage) error {
	if len(msgs) == 0 {
		return invalid("messages required")
	}
	for i, m := range msgs {
		if m.Role != "user" && m.Role != "assistant" {
			return invalid("messages[%d]: unknown role %q", i, m.Role)
		}
	}
	return nil
}

// Reply returns the coach's answer: the first content block when it is text,
// otherwise the empty string.
func (s *CoachService) Reply(ctx context.Context, msgs []model.ChatMessage) (string, error) {
	if err := ValidateMessages(msgs); err != nil {
		return "", err
	}
	return s.doMessages(ctx, msgs, false, nil)
}

// Stream relays text deltas to flush as they arrive and returns the full reply.
func (s *CoachService) Stream(ctx context.Context, msgs []model.ChatMessage, flush func(string)) (string, error) {
	if err := ValidateMessages(msgs); err != nil {
		return "", err
	}
	return s.doMessages(ctx, msgs, true, flush)
}

func (s *CoachService) doMessages(ctx context.Context, msgs []model.ChatMessage, stream bool, flush func(string)) (string, error) {
	body := map[string]any{
		"model":      s.cfg.Model,
		"max_tokens": s.cfg.MaxTokens,
		"system":     s.system,
		"messages":   msgs,
	}
	if stream {
		body["stream"] = true
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.cfg.BaseURL, "/")+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("messages call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", &UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(data)}
	}

	if !stream {
		var result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(result.Content) == 0 || result.Content[0].Type != "text" {
			return "", nil
		}
		return result.Content[0].Text, nil
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var full strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev struct {
			Type  string `json:"type"`
			Delta struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"delta"`
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal([]byte(line[6:]), &ev) != nil {
			continue
		}
		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				full.WriteString(ev.Delta.Text)
				if flush != nil {
					flush(ev.Delta.Text)
				}
			}
		case "error":
			return full.String(), &UpstreamError{Status: http.StatusBadGateway, Message: ev.Error.Message}
		case "message_stop":
			return full.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read stream: %w", err)
	}
	return full.String(), nil
}

// upstreamMessage extracts error.message from a provider error body, falling
// back to the raw text.
func upstreamMessage(data []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(data))
}
