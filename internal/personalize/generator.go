// Package personalize asks an OpenAI-compatible chat completions API for one email per contact.
package personalize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/unclebandit/emailcraft-backend/internal/config"
	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/model"
)

// Email is one generated subject/body pair.
type Email struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
	Notes   string `json:"personalizationNotes"`
}

// Generator calls the chat completions endpoint.
type Generator struct {
	config *config.OpenAIConfig
	client *http.Client

	// OnFallback, when set, is called each time a contact gets the fallback email.
	OnFallback func(contact model.Contact, err error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewGenerator creates a generator with its own HTTP client.
func NewGenerator(cfg *config.OpenAIConfig) *Generator {
	return &Generator{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// GenerateOne requests a personalized email for a single contact.
func (g *Generator) GenerateOne(ctx context.Context, contact model.Contact, prompt string) (Email, error) {
	if g.config.APIKey == "" {
		return Email{}, appErrors.NewExternal("openai", fmt.Errorf("API key not configured"))
	}

	payload := chatRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(contact, prompt)},
			{Role: "user", Content: "Generate a personalized email for " + contact.FirstName},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    g.config.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Email{}, err
	}

	endpoint := strings.TrimRight(g.config.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Email{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Email{}, appErrors.NewExternal("openai", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Email{}, appErrors.NewExternal("openai", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Email{}, appErrors.NewExternal("openai", fmt.Errorf("decode response: %w", err))
	}
	if len(cr.Choices) == 0 {
		return Email{}, appErrors.NewExternal("openai", fmt.Errorf("response has no choices"))
	}

	content := cr.Choices[0].Message.Content
	if content == "" {
		content = "{}"
	}
	var out Email
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Email{}, appErrors.NewExternal("openai", fmt.Errorf("decode email JSON: %w", err))
	}
	if out.Subject == "" {
		out.Subject = "Your Personalized Email"
	}
	if out.Content == "" {
		out.Content = "Hello there!"
	}
	if out.Notes == "" {
		out.Notes = "Standard personalization applied"
	}
	return out, nil
}

// GenerateMany generates emails one contact at a time, in order.
// A failed contact gets the fallback email; the result always has len(contacts) entries.
func (g *Generator) GenerateMany(ctx context.Context, contacts []model.Contact, prompt string) []Email {
	emails := make([]Email, 0, len(contacts))
	for _, contact := range contacts {
		email, err := g.GenerateOne(ctx, contact, prompt)
		if err != nil {
			log.Printf("⚠️ Failed to generate email for %s: %v", contact.Email, err)
			if g.OnFallback != nil {
				g.OnFallback(contact, err)
			}
			email = Fallback(contact.FirstName, prompt)
		}
		emails = append(emails, email)
	}
	return emails
}

// SystemPrompt describes the contact profile and the campaign brief to the model.
func SystemPrompt(c model.Contact, prompt string) string {
	purchaseDate := "Unknown"
	if c.PurchaseDate != nil {
		purchaseDate = c.PurchaseDate.Format(time.DateOnly)
	}
	age := "Unknown"
	if c.Age != nil {
		age = fmt.Sprintf("%d", *c.Age)
	}
	spent := "0"
	if c.TotalSpent != nil {
		spent = fmt.Sprintf("%.2f", *c.TotalSpent)
	}

	var b strings.Builder
	b.WriteString("You are an expert email marketing specialist. Create a personalized email based on the contact's profile and campaign prompt.\n\n")
	b.WriteString("Contact Profile:\n")
	fmt.Fprintf(&b, "- Name: %s %s\n", c.FirstName, c.LastName)
	fmt.Fprintf(&b, "- Age: %s\n", age)
	fmt.Fprintf(&b, "- Gender: %s\n", orDefault(c.Gender, "Unknown"))
	fmt.Fprintf(&b, "- Location: %s\n", orDefault(c.Location, "Unknown"))
	fmt.Fprintf(&b, "- Last Purchase: %s\n", orDefault(c.LastPurchase, "None"))
	fmt.Fprintf(&b, "- Purchase Date: %s\n", purchaseDate)
	fmt.Fprintf(&b, "- Total Spent: $%s\n", spent)
	fmt.Fprintf(&b, "- Personality Type: %s\n", orDefault(c.PersonalityType, "Unknown"))
	fmt.Fprintf(&b, "- Communication Style: %s\n", orDefault(c.CommunicationStyle, "Professional"))
	fmt.Fprintf(&b, "- Interests: %s\n\n", orDefault(c.Interests, "General"))
	fmt.Fprintf(&b, "Campaign Prompt: %s\n\n", prompt)
	b.WriteString("Create a personalized email with:\n")
	b.WriteString("1. A compelling subject line\n")
	b.WriteString("2. Email content that speaks to their specific profile\n")
	b.WriteString("3. Notes explaining the personalization choices\n\n")
	b.WriteString("Response format (JSON):\n")
	b.WriteString(`{
  "subject": "Personalized subject line",
  "content": "Full email content with personalization",
  "personalizationNotes": "Explanation of personalization choices"
}`)
	return b.String()
}

func orDefault(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}
