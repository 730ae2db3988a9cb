package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/emailcraft-backend/internal/config"
)

func newTestMailer(url, key string) *SendGridMailer {
	return NewSendGridMailer(&config.SendGridConfig{
		APIKey:    key,
		BaseURL:   url,
		FromEmail: "noreply@yourcompany.com",
		Timeout:   5 * time.Second,
	})
}

func TestSendAccepted(t *testing.T) {
	var got mailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ok := newTestMailer(srv.URL, "SG.test").Send(context.Background(), "alice@example.com", "Sale", "Hi\nthere", "<p>Hi</p><p>there</p>")
	require.True(t, ok)

	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "alice@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "noreply@yourcompany.com", got.From.Email)
	assert.Equal(t, "Sale", got.Subject)
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Equal(t, "text/html", got.Content[1].Type)
}

func TestSendRejectedReturnsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad from"}]}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	assert.False(t, newTestMailer(srv.URL, "SG.test").Send(context.Background(), "bob@example.com", "Sale", "Hi", ""))
}

func TestSendUnreachableReturnsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	assert.False(t, newTestMailer(url, "SG.test").Send(context.Background(), "bob@example.com", "Sale", "Hi", ""))
	assert.False(t, newTestMailer(url, "").Send(context.Background(), "bob@example.com", "Sale", "Hi", ""))
}

func TestTextToHTML(t *testing.T) {
	assert.Equal(t, "<p>Dear Bob,</p><p>Big sale</p><p>The Team</p>", TextToHTML("Dear Bob,\n\n  Big sale \n\nThe Team"))
	assert.Equal(t, "", TextToHTML("\n \n"))
}
