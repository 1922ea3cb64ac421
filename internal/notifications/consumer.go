package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/money"
	"github.com/dryd-travel/booking-backend/pkg/outbox"
	"github.com/dryd-travel/booking-backend/pkg/outbox/payloads"
)

const consumerName = "staff-inbox"

type inboxWriter interface {
	Create(ctx context.Context, notification *models.StaffNotification) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type claimGuard interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns booking events from the bookings subscription into inbox entries.
type Consumer struct {
	repo         inboxWriter
	subscription receiver
	guard        claimGuard
	logg         *logger.Logger
}

func NewConsumer(repo inboxWriter, subscription receiver, guard claimGuard, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	if subscription == nil {
		return nil, errors.New("bookings subscription required")
	}
	if guard == nil {
		return nil, errors.New("dedupe guard required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Consumer{repo: repo, subscription: subscription, guard: guard, logg: logg}, nil
}

// Run blocks receiving messages until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked. Malformed messages are
// acked so they do not loop; storage failures nack for redelivery.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	ctx = c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventBookingSubmitted && eventType != enums.EventBookingExpired {
		return true
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(ctx, "failed to decode envelope", err)
		return true
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(ctx, "invalid event id", err)
		return true
	}
	ctx = c.logg.WithField(ctx, "event_id", eventID.String())

	notification, err := buildNotification(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(ctx, "failed to parse payload", err)
		return true
	}

	claimed, err := c.guard.Claim(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(ctx, "dedupe claim failed", err)
		return false
	}
	if !claimed {
		c.logg.Info(ctx, "event already processed")
		return true
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		if !pkgerrors.Retryable(err) {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "notification dropped")
			return true
		}
		c.logg.Error(ctx, "failed to store notification", err)
		if relErr := c.guard.Release(ctx, consumerName, eventID); relErr != nil {
			c.logg.Warn(ctx, "failed to release dedupe claim")
		}
		return false
	}
	c.logg.Info(ctx, "staff notified")
	return true
}

func buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.StaffNotification, error) {
	switch eventType {
	case enums.EventBookingSubmitted:
		var p payloads.BookingSubmittedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.BookingID == uuid.Nil {
			return nil, errors.New("booking id missing")
		}
		message := fmt.Sprintf("%s booked %s for %s. Paid %s of %s (%s).",
			p.CustomerName, p.ItemName, p.StartDate.Format("2006-01-02"),
			money.Format(p.AmountPaidCents), money.Format(p.TotalCents), p.PaymentOption)
		return &models.StaffNotification{
			Type:      enums.NotificationTypeBookingReview,
			BookingID: &p.BookingID,
			Title:     fmt.Sprintf("Booking %s awaits payment review", p.Reference),
			Message:   message,
			Link:      bookingLink(p.BookingID),
		}, nil
	case enums.EventBookingExpired:
		var p payloads.BookingExpiredEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.BookingID == uuid.Nil {
			return nil, errors.New("booking id missing")
		}
		return &models.StaffNotification{
			Type:      enums.NotificationTypeBookingExpired,
			BookingID: &p.BookingID,
			Title:     fmt.Sprintf("Booking %s expired", p.Reference),
			Message:   fmt.Sprintf("Booking %s for %s was never reviewed and has expired.", p.Reference, p.StartDate.Format("2006-01-02")),
			Link:      bookingLink(p.BookingID),
		}, nil
	}
	return nil, fmt.Errorf("unsupported event type %s", eventType)
}

func bookingLink(id uuid.UUID) *string {
	link := "/admin/bookings/" + id.String()
	return &link
}
