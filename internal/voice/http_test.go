package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTokenSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/voice/session", r.URL.Path)
		assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"language": "fr", "systemPrompt": "Coach."}, body)

		w.Header().Set(renewHeader, "jwt-2")
		fmt.Fprint(w, `{"id":"sess_1","client_secret":{"value":"ek_1","expires_at":1700000000}}`)
	}))
	defer srv.Close()

	ts := NewHTTPTokenSource(srv.URL+"/", "jwt-1")
	secret, err := ts.NewSession(context.Background(), "fr", "Coach.")
	require.NoError(t, err)
	assert.Equal(t, ClientSecret{Value: "ek_1", ExpiresAt: 1700000000}, secret)
	assert.Equal(t, "jwt-2", ts.Token())
}

func TestHTTPTokenSourceErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"upstream status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Failed to create session"}`)
		},
		"no secret": func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"id":"sess_1"}`) },
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewHTTPTokenSource(srv.URL, "jwt").NewSession(context.Background(), "en", "")
			assert.Error(t, err)
		})
	}
}

func TestHTTPSDPExchanger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/realtime", r.URL.Path)
		assert.Equal(t, "gpt-4o-realtime-preview-2024-12-17", r.URL.Query().Get("model"))
		assert.Equal(t, "Bearer ek_1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/sdp", r.Header.Get("Content-Type"))
		offer, _ := io.ReadAll(r.Body)
		assert.Equal(t, "v=0 offer", string(offer))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, "v=0 answer")
	}))
	defer srv.Close()

	answer, err := NewHTTPSDPExchanger(srv.URL).Exchange(context.Background(), "gpt-4o-realtime-preview-2024-12-17", "ek_1", "v=0 offer")
	require.NoError(t, err)
	assert.Equal(t, "v=0 answer", answer)
}

func TestHTTPSDPExchangerRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewHTTPSDPExchanger(srv.URL).Exchange(context.Background(), "m", "bad", "v=0")
	assert.ErrorContains(t, err, "status 401")
}
