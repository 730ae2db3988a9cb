package service_test

import (
	"context"
	"sync"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/personalize"
	"github.com/unclebandit/emailcraft-backend/internal/queue"
)

// MockPersonalizer returns canned emails; contacts listed in fallback get the fallback email
type MockPersonalizer struct {
	fallback map[int]bool
	short    int // when > 0, return only this many emails
	calls    int
	lastCtx  context.Context
}

func (m *MockPersonalizer) GenerateMany(ctx context.Context, contacts []model.Contact, prompt string) []personalize.Email {
	m.calls++
	m.lastCtx = ctx
	var out []personalize.Email
	for _, c := range contacts {
		if m.fallback[c.ID] {
			out = append(out, personalize.Fallback(c.FirstName, prompt))
			continue
		}
		out = append(out, personalize.Email{
			Subject: "Hello " + c.FirstName,
			Content: prompt + " for " + c.FirstName,
			Notes:   "mock",
		})
	}
	if m.short > 0 && m.short < len(out) {
		out = out[:m.short]
	}
	return out
}

// MockMailer fails for the listed recipients
type MockMailer struct {
	mu     sync.Mutex
	failTo map[string]bool
	sent   []string
	html   []string
}

func (m *MockMailer) Send(ctx context.Context, to, subject, text, html string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	m.html = append(m.html, html)
	return !m.failTo[to]
}

// CaptureQueue records published events
type CaptureQueue struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (q *CaptureQueue) Publish(topic string, evt queue.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, evt)
	return q.err
}

func (q *CaptureQueue) Subscribe(topic string, handler queue.Handler) error {
	return nil
}

// BusyGuard refuses every acquire, like a held Redis token
type BusyGuard struct{}

func (BusyGuard) Acquire(ctx context.Context, campaignID int) (func(), error) {
	return nil, appErrors.NewConflict("campaign %d is already being sent", campaignID)
}
