package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// client drives a running GUARDIAN server over HTTP.
type client struct {
	t     *testing.T
	base  string
	token string
	http  *http.Client
}

func newClient(t *testing.T) *client {
	t.Helper()
	base := os.Getenv("E2E_BASE_URL")
	if base == "" {
		t.Skip("E2E_BASE_URL not set")
	}
	return &client{t: t, base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: 60 * time.Second}}
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if renewed := resp.Header.Get("X-New-Token"); renewed != "" {
		c.token = renewed
	}
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// signup registers a fresh officer and keeps the token.
func (c *client) signup() {
	c.t.Helper()
	email := fmt.Sprintf("e2e-%d@guardian.test", time.Now().UnixNano())
	status, out := c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": email, "password": "secret1", "confirm_password": "secret1", "full_name": "E2E Officer",
	})
	require.Equal(c.t, http.StatusCreated, status, out)
	c.token, _ = out["token"].(string)
	require.NotEmpty(c.t, c.token)
}

// --- Tests ---

func TestAuthRequired(t *testing.T) {
	c := newClient(t)
	status, _ := c.do(http.MethodGet, "/api/goals", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGoalLifecycle(t *testing.T) {
	c := newClient(t)
	c.signup()

	status, goal := c.do(http.MethodPost, "/api/goals", map[string]any{
		"title": "Run 10 miles", "category": "fitness", "target_value": 10, "current_value": 10, "unit": "miles",
	})
	require.Equal(t, http.StatusCreated, status, goal)
	assert.EqualValues(t, 100, goal["progress_percent"])
	assert.Equal(t, "completed", goal["status"])
	assert.NotNil(t, goal["completed_at"])

	id := goal["id"].(string)
	status, goal = c.do(http.MethodPost, "/api/goals/"+id+"/toggle", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "active", goal["status"])

	status, _ = c.do(http.MethodDelete, "/api/goals/"+id, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestJournalAndDashboard(t *testing.T) {
	c := newClient(t)
	c.signup()

	status, entry := c.do(http.MethodPost, "/api/journal", map[string]any{
		"entry_type": "gratitude", "content": "Partner had my back today", "mood_before": 2, "mood_after": 4,
	})
	require.Equal(t, http.StatusCreated, status, entry)

	status, dash := c.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status, dash)
	assert.Equal(t, "E2E Officer", dash["user_name"])
	journal := dash["journal"].(map[string]any)
	assert.EqualValues(t, 1, journal["total"])
	assert.EqualValues(t, 1, journal["streak"])
}

func TestSleepAssessment(t *testing.T) {
	c := newClient(t)
	c.signup()

	status, def := c.do(http.MethodGet, "/api/assessments/sleep", nil)
	require.Equal(t, http.StatusOK, status, def)
	answers := map[string]float64{}
	for _, q := range def["questions"].([]any) {
		answers[q.(map[string]any)["id"].(string)] = 2
	}

	status, res := c.do(http.MethodPost, "/api/assessments/sleep/responses", map[string]any{"responses": answers})
	require.Equal(t, http.StatusCreated, status, res)
	assert.EqualValues(t, 14, res["total_score"])
	assert.EqualValues(t, 28, res["max_possible"])
	assert.Equal(t, "Fair", res["interpretation"].(map[string]any)["level"])
}

func TestChatRejectsEmptyConversation(t *testing.T) {
	c := newClient(t)
	c.signup()
	status, out := c.do(http.MethodPost, "/api/chat", map[string]any{"messages": []any{}})
	assert.Equal(t, http.StatusBadRequest, status, out)
}

func TestChatReply(t *testing.T) {
	if os.Getenv("E2E_UPSTREAM") == "" {
		t.Skip("E2E_UPSTREAM not set")
	}
	c := newClient(t)
	c.signup()
	status, out := c.do(http.MethodPost, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "I had a rough shift."}},
	})
	require.Equal(t, http.StatusOK, status, out)
	assert.NotEmpty(t, out["message"])
}
