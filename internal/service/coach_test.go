package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"guardian/internal/config"
	"guardian/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoach(t *testing.T, h http.HandlerFunc) *CoachService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.Default().Coach
	cfg.BaseURL, cfg.APIKey = srv.URL, "test-key"
	return NewCoachService(cfg, "You are GUARDIAN.")
}

func TestCoachReply(t *testing.T) {
	svc := newCoach(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var body struct {
			Model     string              `json:"model"`
			MaxTokens int                 `json:"max_tokens"`
			System    string              `json:"system"`
			Messages  []model.ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "You are GUARDIAN.", body.System)
		assert.Equal(t, 500, body.MaxTokens)
		assert.Equal(t, []model.ChatMessage{{Role: "user", Content: "rough shift"}}, body.Messages)

		fmt.Fprint(w, `{"content":[{"type":"text","text":"What felt heaviest?"}]}`)
	})

	got, err := svc.Reply(context.Background(), []model.ChatMessage{{Role: "user", Content: "rough shift"}})
	require.NoError(t, err)
	assert.Equal(t, "What felt heaviest?", got)
}

func TestCoachReplyNonTextOrEmpty(t *testing.T) {
	for name, body := range map[string]string{
		"tool block": `{"content":[{"type":"tool_use","id":"x"}]}`,
		"no content": `{"content":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := newCoach(t, func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, body) })
			got, err := svc.Reply(context.Background(), []model.ChatMessage{{Role: "user", Content: "hi"}})
			require.NoError(t, err)
			assert.Equal(t, "", got)
		})
	}
}

func TestCoachUpstreamError(t *testing.T) {
	svc := newCoach(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	})
	_, err := svc.Reply(context.Background(), []model.ChatMessage{{Role: "user", Content: "hi"}})
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusTooManyRequests, ue.Status)
	assert.Equal(t, "slow down", ue.Message)
}

func TestCoachRejectsBadHistory(t *testing.T) {
	calls := 0
	svc := newCoach(t, func(w http.ResponseWriter, r *http.Request) { calls++ })
	_, err := svc.Reply(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Reply(context.Background(), []model.ChatMessage{{Role: "system", Content: "x"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, calls)
}

func TestCoachStream(t *testing.T) {
	svc := newCoach(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range []string{
			`{"type":"message_start"}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"You "}}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"made it."}}`,
			`{"type":"message_stop"}`,
		} {
			fmt.Fprintf(w, "event: x\ndata: %s\n\n", ev)
		}
	})

	var tokens []string
	full, err := svc.Stream(context.Background(), []model.ChatMessage{{Role: "user", Content: "hi"}}, func(s string) { tokens = append(tokens, s) })
	require.NoError(t, err)
	assert.Equal(t, "You made it.", full)
	assert.Equal(t, []string{"You ", "made it."}, tokens)
}

func TestCoachStreamErrorEvent(t *testing.T) {
	svc := newCoach(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"message\":\"overloaded\"}}\n\n")
	})
	_, err := svc.Stream(context.Background(), []model.ChatMessage{{Role: "user", Content: "hi"}}, nil)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "overloaded", ue.Message)
}
