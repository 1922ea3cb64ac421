package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.IncSubmission("car", OutcomeAccepted)
	m.IncSubmission("car", OutcomeAccepted)
	m.IncSubmission("tour", OutcomeRejected)
	m.IncQuote("transport")
	m.IncBookedDatesCache(CacheHit)
	m.IncBookedDatesCache(CacheMiss)
	m.IncContentCache(CacheError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("car", OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("tour", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotes.WithLabelValues("transport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookedDates.WithLabelValues(CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.content.WithLabelValues(CacheError)))

	count, err := testutil.GatherAndCount(reg, "dryd_booking_submissions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOutboxMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.IncPublished("booking_submitted")
	m.IncFailed("booking_submitted")
	m.IncDLQ("booking_submitted", "max_attempts")
	m.IncDLQ("", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("booking_submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed.WithLabelValues("booking_submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dlq.WithLabelValues("unknown", "unknown")))
}
