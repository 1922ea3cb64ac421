package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/pkg/config"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/metrics"
	"github.com/dryd-travel/booking-backend/pkg/outbox"
	"github.com/dryd-travel/booking-backend/pkg/outbox/registry"
)

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type fakePubSub struct{}

func (fakePubSub) Ping(context.Context) error { return nil }

func (fakePubSub) Publisher(string) *gcppubsub.Publisher { return nil }

type fakeEvents struct {
	batch      []models.OutboxEvent
	published  []uuid.UUID
	failed     []uuid.UUID
	terminated []uuid.UUID
}

func (f *fakeEvents) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if len(f.batch) > limit {
		return f.batch[:limit], nil
	}
	return f.batch, nil
}

func (f *fakeEvents) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeEvents) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeEvents) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminated = append(f.terminated, id)
	return nil
}

type fakeDeadLetter struct {
	entries []models.OutboxDLQ
}

func (f *fakeDeadLetter) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

// fakeTopic fails the messages whose event_id is listed in failures.
type fakeTopic struct {
	failures map[string]error
	messages []*gcppubsub.Message
}

func (f *fakeTopic) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	return fakeResult{err: f.failures[msg.Attributes["event_id"]]}
}

func envelopeEvent(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, eventID string, attempts int) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		Data:       json.RawMessage(`{"reference":"DRYD-CAR-1"}`),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

type harness struct {
	svc     *Service
	events  *fakeEvents
	dlq     *fakeDeadLetter
	topics  map[string]*fakeTopic
	reg     *prometheus.Registry
}

func newHarness(t *testing.T, batch []models.OutboxEvent, failures map[string]error) harness {
	t.Helper()
	cfg := &config.Config{
		PubSub: config.PubSubConfig{BookingsTopic: "bookings", NotificationTopic: "notifications"},
		Outbox: config.OutboxConfig{BatchSize: 10, MaxAttempts: 3},
	}
	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	h := harness{
		events:  &fakeEvents{batch: batch},
		dlq:     &fakeDeadLetter{},
		topics:  map[string]*fakeTopic{"bookings": {failures: failures}},
		reg:     prometheus.NewRegistry(),
	}
	h.svc, err = NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.Nop(),
		DB:         fakeDB{},
		PubSub:     fakePubSub{},
		Events:     h.events,
		DeadLetter: h.dlq,
		Registry:   eventRegistry,
		Metrics:    metrics.NewOutboxMetrics(h.reg),
		Publishers: func(topic string) publisher {
			if t, ok := h.topics[topic]; ok {
				return t
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return h
}

func TestDrainPublishesAndContinuesAfterTransientFailure(t *testing.T) {
	first := envelopeEvent(t, enums.EventBookingSubmitted, enums.AggregateBooking, "evt-1", 0)
	second := envelopeEvent(t, enums.EventBookingStatusChanged, enums.AggregateBooking, "evt-2", 0)
	h := newHarness(t, []models.OutboxEvent{first, second}, map[string]error{"evt-1": errors.New("unavailable")})

	n, err := h.svc.drainOnce(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if len(h.events.failed) != 1 || h.events.failed[0] != first.ID {
		t.Fatalf("expected first row marked failed, got %v", h.events.failed)
	}
	if len(h.events.published) != 1 || h.events.published[0] != second.ID {
		t.Fatalf("expected second row published, got %v", h.events.published)
	}
	if len(h.dlq.entries) != 0 {
		t.Fatalf("transient failure should not dead-letter")
	}

	msg := h.topics["bookings"].messages[1]
	if msg.Attributes["event_type"] != string(enums.EventBookingStatusChanged) || msg.Attributes["aggregate_id"] != second.AggregateID.String() {
		t.Fatalf("unexpected attributes %v", msg.Attributes)
	}
	expected := `
# HELP dryd_outbox_published_total Outbox events published.
# TYPE dryd_outbox_published_total counter
dryd_outbox_published_total{event_type="booking_status_changed"} 1
`
	if err := testutil.GatherAndCompare(h.reg, strings.NewReader(expected), "dryd_outbox_published_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestDrainDeadLettersUndecodableRow(t *testing.T) {
	bad := envelopeEvent(t, enums.EventBookingSubmitted, enums.AggregateContent, "evt-3", 0)
	h := newHarness(t, []models.OutboxEvent{bad}, nil)

	if _, err := h.svc.drainOnce(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(h.dlq.entries) != 1 || h.dlq.entries[0].ErrorReason != enums.OutboxDLQReasonInvalidPayload {
		t.Fatalf("expected invalid_payload dlq entry, got %+v", h.dlq.entries)
	}
	if len(h.events.terminated) != 1 || len(h.topics["bookings"].messages) != 0 {
		t.Fatalf("expected terminal mark without publish")
	}
}

func TestDrainDeadLettersAfterMaxAttempts(t *testing.T) {
	tired := envelopeEvent(t, enums.EventBookingExpired, enums.AggregateBooking, "evt-4", 2)
	h := newHarness(t, []models.OutboxEvent{tired}, map[string]error{"evt-4": errors.New("deadline exceeded")})

	if _, err := h.svc.drainOnce(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(h.dlq.entries) != 1 || h.dlq.entries[0].ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("expected max_attempts dlq entry, got %+v", h.dlq.entries)
	}
	if h.dlq.entries[0].ErrorMessage == nil || *h.dlq.entries[0].ErrorMessage == "" {
		t.Fatalf("expected error message on dlq entry")
	}
	if len(h.events.failed) != 0 {
		t.Fatalf("row at max attempts should not be marked failed")
	}
}

func TestDrainDeadLettersUnknownTopic(t *testing.T) {
	content := envelopeEvent(t, enums.EventContentUpdated, enums.AggregateContent, "evt-5", 0)
	h := newHarness(t, []models.OutboxEvent{content}, nil)

	if _, err := h.svc.drainOnce(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(h.dlq.entries) != 1 || h.dlq.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("expected non_retryable dlq entry, got %+v", h.dlq.entries)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := h.svc.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error for missing config")
	}
}
