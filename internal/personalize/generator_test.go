package personalize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/emailcraft-backend/internal/config"
	"github.com/unclebandit/emailcraft-backend/internal/model"
)

func newTestGenerator(url string) *Generator {
	return NewGenerator(&config.OpenAIConfig{
		APIKey:      "sk-test",
		BaseURL:     url,
		Model:       "gpt-4o",
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	})
}

func completion(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestGenerateOne(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		completion(t, w, `{"subject":"Alice, your sale is here","content":"Hi Alice!","personalizationNotes":"Used location"}`)
	}))
	defer srv.Close()

	location := "Nairobi"
	email, err := newTestGenerator(srv.URL).GenerateOne(context.Background(),
		model.Contact{FirstName: "Alice", LastName: "Smith", Location: &location}, "announce sale")
	require.NoError(t, err)

	assert.Equal(t, "Alice, your sale is here", email.Subject)
	assert.Equal(t, "Hi Alice!", email.Content)
	assert.Equal(t, "Used location", email.Notes)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[0].Content, "- Location: Nairobi")
	assert.Contains(t, got.Messages[0].Content, "Campaign Prompt: announce sale")
	assert.Equal(t, "Generate a personalized email for Alice", got.Messages[1].Content)
}

func TestGenerateOneFillsDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		completion(t, w, `{}`)
	}))
	defer srv.Close()

	email, err := newTestGenerator(srv.URL).GenerateOne(context.Background(), model.Contact{FirstName: "Bob"}, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Your Personalized Email", email.Subject)
	assert.Equal(t, "Hello there!", email.Content)
	assert.Equal(t, "Standard personalization applied", email.Notes)
}

func TestGenerateOneErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestGenerator(srv.URL).GenerateOne(context.Background(), model.Contact{FirstName: "Bob"}, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")

	noKey := NewGenerator(&config.OpenAIConfig{BaseURL: srv.URL})
	_, err = noKey.GenerateOne(context.Background(), model.Contact{FirstName: "Bob"}, "hello")
	assert.Error(t, err)
}

func TestGenerateManyFallsBackPerContact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.HasSuffix(req.Messages[1].Content, "Bob") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		completion(t, w, `{"subject":"For you","content":"Generated","personalizationNotes":"n"}`)
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL)
	var fallbacks []string
	g.OnFallback = func(c model.Contact, err error) { fallbacks = append(fallbacks, c.FirstName) }

	contacts := []model.Contact{{FirstName: "Alice"}, {FirstName: "Bob"}, {FirstName: "Carol"}}
	emails := g.GenerateMany(context.Background(), contacts, "announce sale")

	require.Len(t, emails, 3)
	assert.Equal(t, "For you", emails[0].Subject)
	assert.Equal(t, "Hi Bob!", emails[1].Subject)
	assert.Equal(t, "Dear Bob,\n\nannounce sale\n\nBest regards,\nThe Team", emails[1].Content)
	assert.Equal(t, "Fallback email due to generation error", emails[1].Notes)
	assert.Equal(t, "For you", emails[2].Subject)
	assert.Equal(t, []string{"Bob"}, fallbacks)
}

func TestFallbackKeepsPromptVerbatim(t *testing.T) {
	email := Fallback("Ann", "Use code {first_name}50")
	assert.Equal(t, "Hi Ann!", email.Subject)
	assert.Equal(t, "Dear Ann,\n\nUse code {first_name}50\n\nBest regards,\nThe Team", email.Content)
}

func TestSystemPromptDefaults(t *testing.T) {
	p := SystemPrompt(model.Contact{FirstName: "Bob", LastName: "Jones"}, "x")
	assert.Contains(t, p, "- Age: Unknown")
	assert.Contains(t, p, "- Last Purchase: None")
	assert.Contains(t, p, "- Total Spent: $0")
	assert.Contains(t, p, "- Communication Style: Professional")
	assert.Contains(t, p, "- Interests: General")
}

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate("Hi {first_name} from {location}", map[string]string{"first_name": "Alice", "location": "Nairobi"})
	assert.Equal(t, "Hi Alice from Nairobi", out)
}
