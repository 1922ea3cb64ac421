// Package bookings accepts booking submissions and manages their review lifecycle.
package bookings

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/internal/availability"
	"github.com/dryd-travel/booking-backend/internal/catalog"
	"github.com/dryd-travel/booking-backend/internal/quote"
	"github.com/dryd-travel/booking-backend/pkg/auth"
	"github.com/dryd-travel/booking-backend/pkg/config"
	"github.com/dryd-travel/booking-backend/pkg/db"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/metrics"
	"github.com/dryd-travel/booking-backend/pkg/outbox"
	"github.com/dryd-travel/booking-backend/pkg/outbox/payloads"
	"github.com/dryd-travel/booking-backend/pkg/pagination"
	"github.com/dryd-travel/booking-backend/pkg/storage/gcs"
)

const referenceConstraint = "ux_bookings_reference"

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var errSubmissionInFlight = pkgerrors.New(pkgerrors.CodeConflict, "submission already in progress")

type bookingRepository interface {
	WithTx(tx *gorm.DB) *Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindByReference(ctx context.Context, reference string) (*models.Booking, error)
	List(ctx context.Context, filter ListFilter) (pagination.Page[models.Booking], error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type proofStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (*gcs.Object, error)
	Delete(ctx context.Context, object string) error
}

type inFlightGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
	InFlightKey(fingerprint string) string
}

// SubmitRequest is a booking form after transport decoding.
type SubmitRequest struct {
	ItemType  enums.ItemType
	ItemID    uuid.UUID
	Selection quote.Selection
	Input     Input
}

// StatusChange is a staff decision on a booking.
type StatusChange struct {
	Status enums.BookingStatus
	Note   string
}

// Service exposes booking operations.
type Service interface {
	Quote(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID, sel quote.Selection, session auth.Session) (*quote.Quote, error)
	Submit(ctx context.Context, req SubmitRequest, session auth.Session) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange, session auth.Session) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetByReference(ctx context.Context, reference string, session auth.Session) (*models.Booking, error)
	List(ctx context.Context, filter ListFilter) (pagination.Page[models.Booking], error)
}

// ServiceParams wires the booking service.
type ServiceParams struct {
	Repo         bookingRepository
	DB           txRunner
	Catalog      catalog.Service
	Availability availability.Service
	Proofs       proofStore
	Guard        inFlightGuard
	Outbox       outbox.Emitter
	Metrics      *metrics.BookingMetrics
	Logger       *logger.Logger
	Config       config.BookingConfig
}

type service struct {
	repo         bookingRepository
	db           txRunner
	catalog      catalog.Service
	availability availability.Service
	proofs       proofStore
	guard        inFlightGuard
	outbox       outbox.Emitter
	metrics      *metrics.BookingMetrics
	logg         *logger.Logger
	cfg          config.BookingConfig
	assembler    *Assembler
	now          func() time.Time
}

// NewService builds the booking service. Guard and Metrics are optional.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("booking repository required")
	case params.DB == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog service required")
	case params.Availability == nil:
		return nil, fmt.Errorf("availability service required")
	case params.Proofs == nil:
		return nil, fmt.Errorf("proof store required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         params.Repo,
		db:           params.DB,
		catalog:      params.Catalog,
		availability: params.Availability,
		proofs:       params.Proofs,
		guard:        params.Guard,
		outbox:       params.Outbox,
		metrics:      params.Metrics,
		logg:         params.Logger,
		cfg:          params.Config,
		assembler:    NewAssembler(params.Config.MaxProofBytes()),
		now:          time.Now,
	}, nil
}

func (s *service) Quote(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID, sel quote.Selection, session auth.Session) (*quote.Quote, error) {
	item, err := s.catalog.Get(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}
	q := quote.ComputeQuote(item, sel, session)
	s.metrics.IncQuote(string(itemType))
	return &q, nil
}

func (s *service) Submit(ctx context.Context, req SubmitRequest, session auth.Session) (booking *models.Booking, err error) {
	if !req.ItemType.IsValid() || req.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid itemType and itemId are required")
	}
	ctx = s.logg.WithItem(ctx, string(req.ItemType), req.ItemID.String())
	defer func() { s.recordOutcome(req.ItemType, err) }()

	release, err := s.acquire(ctx, req)
	if err != nil {
		return nil, err
	}
	defer release()

	item, err := s.catalog.Get(ctx, req.ItemType, req.ItemID)
	if err != nil {
		return nil, err
	}

	q := quote.ComputeQuote(item, req.Selection, session)
	s.metrics.IncQuote(string(item.Type))

	dates, err := s.availability.BookedDates(ctx, item.Type, item.ID)
	if err != nil {
		return nil, err
	}

	sub, err := s.assembler.Assemble(item, req.Selection, q, req.Input, availability.NewDateSet(dates), session)
	if err != nil {
		return nil, err
	}

	object := proofObjectName(s.cfg.ProofPrefix, sub.PaymentReference, sub.PaymentProof.Filename)
	uploaded, err := s.proofs.Upload(ctx, object, normalizeContentType(sub.PaymentProof.ContentType), bytes.NewReader(sub.PaymentProof.Data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload payment proof")
	}

	row := toModel(sub, uploaded.URL)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockItem(ctx, item.Type, item.ID); err != nil {
			return err
		}
		if err := s.recheckAvailability(ctx, tx, item, req.Selection, q); err != nil {
			return err
		}
		if err := repo.Create(ctx, row); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingSubmitted,
			AggregateType: enums.AggregateBooking,
			AggregateID:   row.ID,
			Actor:         actorFor(session),
			Data:          submittedEvent(row),
		})
	})
	if err != nil {
		if delErr := s.proofs.Delete(context.WithoutCancel(ctx), object); delErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "object", object), "payment proof cleanup failed: "+delErr.Error())
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		if db.IsUniqueViolation(err, referenceConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment reference collision, please submit again")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store booking")
	}

	if err := s.availability.Invalidate(ctx, item.Type, item.ID); err != nil {
		s.logg.Warn(ctx, "booked dates invalidation failed after submission")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"reference":    row.Reference,
		"booking_id":   row.ID.String(),
		"required_due": row.RequiredPaymentCents,
	}), "booking submitted")
	return row, nil
}

// recheckAvailability repeats the date check inside the transaction so two
// customers cannot take the same day between the first check and the insert.
func (s *service) recheckAvailability(ctx context.Context, tx *gorm.DB, item quote.Item, sel quote.Selection, q quote.Quote) error {
	if !item.Type.HasDateConflicts() {
		return nil
	}
	spans, err := availability.NewRepository(tx).ListSpans(ctx, item.Type, item.ID)
	if err != nil {
		return err
	}
	booked := availability.DateSet{}
	for _, span := range spans {
		for _, day := range availability.Expand(span.ItemType, span.StartDate, span.EndDate) {
			booked[day] = struct{}{}
		}
	}
	if err := availability.CheckSelection(item.Type, sel, q, booked); err != nil {
		var conflict *availability.ConflictError
		if errors.As(err, &conflict) {
			return pkgerrors.Newf(pkgerrors.CodeConflict,
				"The selected dates include %s, which is already booked. Please choose different dates.", conflict.Date).
				WithDetails(map[string]string{"date": conflict.Date})
		}
		return err
	}
	return nil
}

// acquire takes the in-flight lock for this submission fingerprint. Redis
// outages do not block bookings; the transaction recheck still guards dates.
func (s *service) acquire(ctx context.Context, req SubmitRequest) (func(), error) {
	noop := func() {}
	if s.guard == nil {
		return noop, nil
	}
	key := s.guard.InFlightKey(fingerprint(req))
	owner := uuid.NewString()
	ok, err := s.guard.SetNX(ctx, key, owner, s.inFlightTTL())
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "in-flight guard unavailable")
		return noop, nil
	}
	if !ok {
		return nil, errSubmissionInFlight
	}
	return func() {
		if _, err := s.guard.ReleaseIfOwner(context.WithoutCancel(ctx), key, owner); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "in-flight guard release failed")
		}
	}, nil
}

func (s *service) inFlightTTL() time.Duration {
	if s.cfg.InFlightTTL <= 0 {
		return 2 * time.Minute
	}
	return s.cfg.InFlightTTL
}

func (s *service) recordOutcome(itemType enums.ItemType, err error) {
	switch {
	case err == nil:
		s.metrics.IncSubmission(string(itemType), metrics.OutcomeAccepted)
	case errors.Is(err, errSubmissionInFlight):
		s.metrics.IncSubmission(string(itemType), metrics.OutcomeDuplicate)
	case isRejection(err):
		s.metrics.IncSubmission(string(itemType), metrics.OutcomeRejected)
	default:
		s.metrics.IncSubmission(string(itemType), metrics.OutcomeError)
	}
}

func isRejection(err error) bool {
	for _, code := range []pkgerrors.Code{
		pkgerrors.CodeValidation,
		pkgerrors.CodeConflict,
		pkgerrors.CodePayment,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
	} {
		if pkgerrors.Is(err, code) {
			return true
		}
	}
	return false
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange, session auth.Session) (*models.Booking, error) {
	if !session.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required")
	}
	if !change.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", change.Status)
	}

	var updated *models.Booking
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return err
		}
		if !current.Status.CanTransitionTo(change.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move booking from %s to %s", current.Status, change.Status)
		}
		now := s.now().UTC()
		ok, err := repo.TransitionStatus(ctx, id, current.Status, change.Status, strings.TrimSpace(change.Note), now)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking was changed concurrently")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingStatusChanged,
			AggregateType: enums.AggregateBooking,
			AggregateID:   id,
			Actor:         actorFor(session),
			Data: payloads.BookingStatusChangedEvent{
				BookingID: id,
				Reference: current.Reference,
				Email:     current.Email,
				From:      current.Status,
				To:        change.Status,
				Note:      strings.TrimSpace(change.Note),
				ChangedAt: now,
			},
		}); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
	}

	if !updated.Status.HoldsDates() {
		if err := s.availability.Invalidate(ctx, updated.ItemType, updated.ItemID); err != nil {
			s.logg.Warn(ctx, "booked dates invalidation failed after status change")
		}
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}

// GetByReference looks a booking up by its payment reference. Bookings tied to
// an account are only visible to that account and to staff.
func (s *service) GetByReference(ctx context.Context, reference string, session auth.Session) (*models.Booking, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	booking, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.UserID != nil && !session.IsStaff() && (!session.Authenticated || session.UserID != *booking.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return booking, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (pagination.Page[models.Booking], error) {
	if _, err := pagination.ParseCursor(filter.Cursor); err != nil {
		return pagination.Page[models.Booking]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.Booking]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return page, nil
}

func toModel(sub *Submission, proofURL string) *models.Booking {
	row := &models.Booking{
		Reference:              sub.PaymentReference,
		ItemType:               sub.ItemType,
		ItemID:                 sub.ItemID,
		ItemName:               sub.ItemName,
		Status:                 enums.BookingStatusPending,
		UserID:                 sub.UserID,
		FirstName:              sub.FirstName,
		LastName:               sub.LastName,
		Email:                  sub.Email,
		Phone:                  sub.Phone,
		Address:                sub.Address,
		SpecialRequests:        sub.SpecialRequests,
		AgreedToTerms:          sub.AgreedToTerms,
		StartDate:              sub.StartDate,
		EndDate:                sub.EndDate,
		Time:                   sub.Time,
		NumberOfDays:           sub.NumberOfDays,
		NumberOfGuests:         sub.NumberOfGuests,
		PickupLocation:         sub.PickupLocation,
		DropoffLocation:        sub.DropoffLocation,
		PickupCoordinates:      sub.Pickup,
		DropoffCoordinates:     sub.Dropoff,
		TransportDestination:   sub.TransportDestination,
		PaymentOption:          sub.PaymentOption,
		TotalCents:             sub.Quote.TotalCents,
		DownpaymentCents:       sub.Quote.DownpaymentCents,
		RequiredPaymentCents:   sub.Quote.RequiredPaymentCents,
		AmountPaidCents:        sub.AmountPaidCents,
		ManualPaymentReference: sub.ManualPaymentReference,
		PaymentProofURL:        proofURL,
	}
	if sub.DeliveryMethod != "" {
		method := sub.DeliveryMethod
		row.DeliveryMethod = &method
	}
	if sub.TransportServiceType != "" {
		serviceType := sub.TransportServiceType
		row.TransportServiceType = &serviceType
	}
	if sub.Quote.PromotionApplied() {
		base := sub.Quote.BaseCents
		row.OriginalPriceCents = &base
		row.DiscountCents = sub.Quote.DiscountCents
		row.PromotionTitle = sub.Quote.PromotionTitle
	}
	return row
}

func submittedEvent(row *models.Booking) payloads.BookingSubmittedEvent {
	return payloads.BookingSubmittedEvent{
		BookingID:            row.ID,
		Reference:            row.Reference,
		ItemType:             row.ItemType,
		ItemID:               row.ItemID,
		ItemName:             row.ItemName,
		CustomerName:         strings.TrimSpace(row.FirstName + " " + row.LastName),
		Email:                row.Email,
		StartDate:            row.StartDate,
		EndDate:              row.EndDate,
		PaymentOption:        row.PaymentOption,
		TotalCents:           row.TotalCents,
		RequiredPaymentCents: row.RequiredPaymentCents,
		AmountPaidCents:      row.AmountPaidCents,
		PromotionTitle:       row.PromotionTitle,
		PaymentProofURL:      row.PaymentProofURL,
	}
}

func actorFor(session auth.Session) *outbox.ActorRef {
	if !session.Authenticated {
		return &outbox.ActorRef{Role: "guest"}
	}
	return &outbox.ActorRef{UserID: session.UserIDPtr(), Role: string(session.Role)}
}

// fingerprint identifies "the same booking" across double clicks and retries.
func fingerprint(req SubmitRequest) string {
	start := ""
	if req.Selection.StartDate != nil {
		start = availability.FormatDate(*req.Selection.StartDate)
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		strings.ToLower(strings.TrimSpace(req.Input.Email)),
		string(req.ItemType),
		req.ItemID.String(),
		start,
	}, "|")))
	return hex.EncodeToString(sum[:16])
}

func proofObjectName(prefix, reference, filename string) string {
	name := unsafeFilename.ReplaceAllString(path.Base(strings.TrimSpace(filename)), "_")
	if name == "" || name == "." || name == "_" {
		name = "proof"
	}
	if prefix = strings.Trim(prefix, "/"); prefix == "" {
		prefix = "payment-proofs"
	}
	return path.Join(prefix, reference, name)
}
