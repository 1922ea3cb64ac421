package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/internal/bookings"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/outbox"
	"github.com/dryd-travel/booking-backend/pkg/outbox/payloads"
)

const (
	bookingExpiryJobName     = "booking-expiry"
	defaultPendingExpiryDays = 1
	expiryBatchSize          = 100
	expiryStatusNote         = "Expired: not reviewed before the start date."
)

type BookingExpiryJobParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Repository   expirableBookingRepo
	Outbox       outbox.Emitter
	Availability datesInvalidator
	// ExpiryDays is how long after its start date a pending booking survives.
	ExpiryDays int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type expirableBookingRepo interface {
	WithTx(tx *gorm.DB) *bookings.Repository
}

type datesInvalidator interface {
	Invalidate(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) error
}

// NewBookingExpiryJob builds the job that moves abandoned pending bookings to expired,
// freeing their dates.
func NewBookingExpiryJob(params BookingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	days := params.ExpiryDays
	if days <= 0 {
		days = defaultPendingExpiryDays
	}
	return &bookingExpiryJob{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		outbox:       params.Outbox,
		availability: params.Availability,
		expiryDays:   days,
		batchSize:    expiryBatchSize,
		now:          time.Now,
	}, nil
}

type bookingExpiryJob struct {
	logg         *logger.Logger
	db           txRunner
	repo         expirableBookingRepo
	outbox       outbox.Emitter
	availability datesInvalidator
	expiryDays   int
	batchSize    int
	now          func() time.Time
}

func (j *bookingExpiryJob) Name() string { return bookingExpiryJobName }

func (j *bookingExpiryJob) Run(ctx context.Context) (int64, error) {
	now := j.now().UTC()
	cutoff := now.Add(-time.Duration(j.expiryDays) * 24 * time.Hour)

	var (
		total int64
		errs  error
	)
	for {
		batch, err := j.expireBatch(ctx, cutoff, now)
		if err != nil {
			return total, multierr.Append(errs, fmt.Errorf("expire pending bookings: %w", err))
		}
		total += int64(len(batch.expired))
		errs = multierr.Append(errs, batch.failures)
		j.invalidate(ctx, batch.expired)

		// A failing row would be listed again forever; leave it for the next cycle.
		if batch.failures != nil || batch.listed < j.batchSize {
			break
		}
	}
	if total > 0 {
		j.logg.Info(j.logg.WithField(ctx, "expired", total), "pending bookings expired")
	}
	return total, errs
}

type expiryBatch struct {
	listed   int
	expired  []models.Booking
	failures error
}

// expireBatch transitions one page of expirable bookings inside a single
// transaction. Each row runs in its own savepoint so one bad row does not
// roll back the rest.
func (j *bookingExpiryJob) expireBatch(ctx context.Context, cutoff, now time.Time) (expiryBatch, error) {
	var batch expiryBatch
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		candidates, err := j.repo.WithTx(tx).ListExpirable(ctx, cutoff, j.batchSize)
		if err != nil {
			return err
		}
		batch.listed = len(candidates)
		for _, booking := range candidates {
			var moved bool
			rowErr := tx.Transaction(func(sp *gorm.DB) error {
				ok, err := j.repo.WithTx(sp).TransitionStatus(ctx, booking.ID, enums.BookingStatusPending, enums.BookingStatusExpired, expiryStatusNote, now)
				if err != nil || !ok {
					return err
				}
				moved = true
				return j.outbox.Emit(ctx, sp, outbox.DomainEvent{
					EventType:     enums.EventBookingExpired,
					AggregateType: enums.AggregateBooking,
					AggregateID:   booking.ID,
					Actor:         outbox.SystemActor(bookingExpiryJobName),
					Data: payloads.BookingExpiredEvent{
						BookingID: booking.ID,
						Reference: booking.Reference,
						Email:     booking.Email,
						StartDate: booking.StartDate,
						ExpiredAt: now,
					},
					OccurredAt: now,
				})
			})
			if rowErr != nil {
				batch.failures = multierr.Append(batch.failures, fmt.Errorf("expire booking %s: %w", booking.Reference, rowErr))
				continue
			}
			if moved {
				batch.expired = append(batch.expired, booking)
			}
		}
		return nil
	})
	if err != nil {
		return expiryBatch{}, err
	}
	return batch, nil
}

func (j *bookingExpiryJob) invalidate(ctx context.Context, expired []models.Booking) {
	if j.availability == nil {
		return
	}
	seen := map[uuid.UUID]struct{}{}
	for _, booking := range expired {
		if _, ok := seen[booking.ItemID]; ok {
			continue
		}
		seen[booking.ItemID] = struct{}{}
		if err := j.availability.Invalidate(ctx, booking.ItemType, booking.ItemID); err != nil {
			warnCtx := j.logg.WithFields(ctx, map[string]any{"item_id": booking.ItemID.String(), "error": err.Error()})
			j.logg.Warn(warnCtx, "booked dates cache invalidation failed")
		}
	}
}
