package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const renewHeader = "X-New-Token"

// HTTPTokenSource asks the GUARDIAN server for an ephemeral realtime
// credential on behalf of a signed-in user.
type HTTPTokenSource struct {
	BaseURL string
	Client  *http.Client

	mu    sync.Mutex
	token string
}

func NewHTTPTokenSource(baseURL, token string) *HTTPTokenSource {
	return &HTTPTokenSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
		token:   token,
	}
}

// Token returns the current JWT, including any renewal sent by the server.
func (t *HTTPTokenSource) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

type tokenRequest struct {
	Language     string `json:"language"`
	SystemPrompt string `json:"systemPrompt"`
}

type tokenResponse struct {
	ClientSecret ClientSecret `json:"client_secret"`
}

func (t *HTTPTokenSource) NewSession(ctx context.Context, language, instructions string) (ClientSecret, error) {
	body, err := json.Marshal(tokenRequest{Language: language, SystemPrompt: instructions})
	if err != nil {
		return ClientSecret{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/api/voice/session", bytes.NewReader(body))
	if err != nil {
		return ClientSecret{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.Token())

	resp, err := t.Client.Do(req)
	if err != nil {
		return ClientSecret{}, fmt.Errorf("POST /api/voice/session: %w", err)
	}
	defer resp.Body.Close()

	if renewed := resp.Header.Get(renewHeader); renewed != "" {
		t.mu.Lock()
		t.token = renewed
		t.mu.Unlock()
	}
	if resp.StatusCode != http.StatusOK {
		return ClientSecret{}, fmt.Errorf("failed to get session token: status %d", resp.StatusCode)
	}
	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ClientSecret{}, fmt.Errorf("decode session: %w", err)
	}
	if out.ClientSecret.Value == "" {
		return ClientSecret{}, fmt.Errorf("session has no client secret")
	}
	return out.ClientSecret, nil
}

// HTTPSDPExchanger trades a local SDP offer for the upstream answer.
type HTTPSDPExchanger struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSDPExchanger(baseURL string) *HTTPSDPExchanger {
	return &HTTPSDPExchanger{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (x *HTTPSDPExchanger) Exchange(ctx context.Context, model, secret, offer string) (string, error) {
	endpoint := x.BaseURL + "/v1/realtime?model=" + url.QueryEscape(model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(offer))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/sdp")
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := x.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("realtime sdp exchange: %w", err)
	}
	defer resp.Body.Close()

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read sdp answer: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to connect to realtime: status %d", resp.StatusCode)
	}
	return string(answer), nil
}
