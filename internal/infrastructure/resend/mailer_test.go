package resend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

type emailPayload struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html"`
	Text    string            `json:"text"`
	Headers map[string]string `json:"headers"`
}

func TestMailerSend(t *testing.T) {
	t.Parallel()

	var (
		got  emailPayload
		path string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer server.Close()

	m := NewMailer(config.ResendConfig{Endpoint: server.URL, APIKey: "re_key"})
	id, err := m.Send(context.Background(), ports.Message{
		From:    "Digest <d@example.com>",
		To:      "reader@example.com",
		Subject: "Issue #1",
		HTML:    "<p>hi</p>",
		Text:    "hi",
		Headers: map[string]string{"List-Unsubscribe": "<https://x/unsubscribe/t>"},
	})
	require.NoError(t, err)

	assert.Equal(t, "msg_123", id)
	assert.Equal(t, "/emails", path)
	assert.Equal(t, []string{"reader@example.com"}, got.To)
	assert.Equal(t, "Issue #1", got.Subject)
	assert.Equal(t, "<p>hi</p>", got.HTML)
	assert.Equal(t, "<https://x/unsubscribe/t>", got.Headers["List-Unsubscribe"])
}

func TestMailerSendError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`))
	}))
	defer server.Close()

	_, err := NewMailer(config.ResendConfig{Endpoint: server.URL, APIKey: "k"}).Send(context.Background(), ports.Message{To: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid from field")
}

func TestMailerMisconfigured(t *testing.T) {
	t.Parallel()

	_, err := NewMailer(config.ResendConfig{}).Send(context.Background(), ports.Message{To: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "misconfigured")
}
