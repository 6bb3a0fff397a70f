package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-rag/internal/config"
)

type fakeChat struct {
	parts []string
	err   error
}

func (f *fakeChat) Stream(ctx context.Context, query string, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	for _, p := range f.parts {
		if _, err := w.Write([]byte(p)); err != nil {
			return err
		}
	}
	return nil
}

func newTestServer(t *testing.T, chat ChatService) *httptest.Server {
	t.Helper()
	srv := NewServer(&config.ServerConfig{Port: "0"}, chat)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postChat(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChatMissingQuery(t *testing.T) {
	ts := newTestServer(t, &fakeChat{})

	for _, body := range []string{`{}`, `{"query": "  "}`, `not json`} {
		resp := postChat(t, ts, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.NotEmpty(t, payload["error"])
	}
}

func TestChatStreamsPlainText(t *testing.T) {
	ts := newTestServer(t, &fakeChat{parts: []string{"Leave accrues ", "monthly."}})

	resp := postChat(t, ts, `{"query": "how does leave accrue?"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Leave accrues monthly.", string(body))
}

func TestChatInternalFailure(t *testing.T) {
	ts := newTestServer(t, &fakeChat{err: errors.New("store down")})

	resp := postChat(t, ts, `{"query": "anything"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.NotEmpty(t, payload["error"])
	assert.Contains(t, payload["details"], "store down")
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeChat{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
