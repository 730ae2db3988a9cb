package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unclebandit/emailcraft-backend/internal/model"
)

var (
	emailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emailcraft_emails_total",
		Help: "Delivery attempts by final log status",
	}, []string{"status"})

	fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emailcraft_personalization_fallbacks_total",
		Help: "Contacts that received the fallback email",
	})
)

// RecordFallback matches personalize.Generator.OnFallback.
func RecordFallback(model.Contact, error) {
	fallbacksTotal.Inc()
}
