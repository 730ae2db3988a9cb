package queue

import (
	"fmt"
	"log"
	"sync"
	"time"
)

const TopicCampaignCompleted = "campaign.completed"

// Event is published after a campaign send finishes.
type Event struct {
	Type       string    `json:"type"`
	CampaignID int       `json:"campaignId"`
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Handler func(evt Event) error

// Queue interface
type Queue interface {
	Publish(topic string, evt Event) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue delivers events to in-process subscribers with retry
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]Handler
	maxRetries int
	backoff    time.Duration
	wg         sync.WaitGroup
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

// jobPayload wraps an event with retry info
type jobPayload struct {
	Event      Event
	RetryCount int
	MaxRetries int
}

// Publish sends an event to all subscribers of the topic
func (q *InMemoryQueue) Publish(topic string, evt Event) error {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := jobPayload{
			Event:      evt,
			MaxRetries: q.maxRetries,
		}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler Handler, job jobPayload) {
	defer q.wg.Done()
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Event)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): campaign %d, error: %v\n", job.RetryCount, job.MaxRetries, job.Event.CampaignID, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Event)
			return // No requeue
		}

		// Linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}
