package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// BookingMetrics tracks the quote and submission pipeline.
type BookingMetrics struct {
	submissions *prometheus.CounterVec
	quotes      *prometheus.CounterVec
	bookedDates *prometheus.CounterVec
	content     *prometheus.CounterVec
}

// NewBookingMetrics registers the booking metrics on reg. A nil registerer yields a no-op recorder.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	m := &BookingMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submissions_total",
			Help:      "Booking submissions by item type and outcome.",
		}, []string{"item_type", "outcome"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quotes computed by item type.",
		}, []string{"item_type"}),
		bookedDates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booked_dates_cache_total",
			Help:      "Booked-dates cache lookups by result.",
		}, []string{"result"}),
		content: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_cache_total",
			Help:      "Content cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.submissions, m.quotes, m.bookedDates, m.content)
	return m
}

func (m *BookingMetrics) IncSubmission(itemType, outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(itemType), normalizeLabel(outcome)).Inc()
}

func (m *BookingMetrics) IncQuote(itemType string) {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.WithLabelValues(normalizeLabel(itemType)).Inc()
}

func (m *BookingMetrics) IncBookedDatesCache(result string) {
	if m == nil || m.bookedDates == nil {
		return
	}
	m.bookedDates.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *BookingMetrics) IncContentCache(result string) {
	if m == nil || m.content == nil {
		return
	}
	m.content.WithLabelValues(normalizeLabel(result)).Inc()
}
