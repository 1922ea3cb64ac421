// Package content serves keyed site content: the booking disclaimer and the
// payment QR images shown next to the payment form.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/pkg/auth"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/metrics"
	"github.com/dryd-travel/booking-backend/pkg/outbox"
	"github.com/dryd-travel/booking-backend/pkg/outbox/payloads"
	"github.com/dryd-travel/booking-backend/pkg/redis"
)

const (
	TypeBookingDisclaimer = "booking_disclaimer"
	TypePaymentQRGCash    = "payment_qr_gcash"
	TypePaymentQRBank     = "payment_qr_bank"

	defaultCacheTTL = 10 * time.Minute
)

var typePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Entry is the public shape of a content row.
type Entry struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type contentRepository interface {
	WithTx(tx *gorm.DB) *Repository
	FindByType(ctx context.Context, contentType string) (*models.ContentEntry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cacheStore interface {
	redis.Cache
	ContentKey(contentType string) string
}

type Service interface {
	Get(ctx context.Context, contentType string) (Entry, error)
	Upsert(ctx context.Context, entry Entry, session auth.Session) (Entry, error)
}

type ServiceParams struct {
	Repo     contentRepository
	DB       txRunner
	Cache    cacheStore
	Outbox   outbox.Emitter
	Metrics  *metrics.BookingMetrics
	Logger   *logger.Logger
	CacheTTL time.Duration
}

type service struct {
	repo    contentRepository
	db      txRunner
	cache   cacheStore
	outbox  outbox.Emitter
	metrics *metrics.BookingMetrics
	logg    *logger.Logger
	ttl     time.Duration
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("content repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{
		repo:    params.Repo,
		db:      params.DB,
		cache:   params.Cache,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
		ttl:     ttl,
	}, nil
}

// Get returns the entry for contentType. Cache failures only cost a database read.
func (s *service) Get(ctx context.Context, contentType string) (Entry, error) {
	contentType = strings.TrimSpace(contentType)
	if !typePattern.MatchString(contentType) {
		return Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid content type")
	}
	ctx = s.logg.WithField(ctx, "content_type", contentType)

	if entry, ok := s.readCache(ctx, contentType); ok {
		return entry, nil
	}

	row, err := s.repo.FindByType(ctx, contentType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Entry{}, pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
		}
		return Entry{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load content")
	}
	entry := toEntry(row)
	s.writeCache(ctx, entry)
	return entry, nil
}

func (s *service) Upsert(ctx context.Context, entry Entry, session auth.Session) (Entry, error) {
	if !session.Authenticated || session.Role != enums.RoleAdmin {
		return Entry{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	entry.Type = strings.TrimSpace(entry.Type)
	if !typePattern.MatchString(entry.Type) {
		return Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid content type")
	}
	if strings.TrimSpace(entry.Title) == "" {
		return Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	var saved *models.ContentEntry
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row := &models.ContentEntry{
			Type:      entry.Type,
			Title:     strings.TrimSpace(entry.Title),
			Content:   entry.Content,
			UpdatedBy: session.UserIDPtr(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := repo.Upsert(ctx, row); err != nil {
			return err
		}
		stored, err := repo.FindByType(ctx, entry.Type)
		if err != nil {
			return err
		}
		saved = stored
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContentUpdated,
			AggregateType: enums.AggregateContent,
			AggregateID:   AggregateID(stored.Type),
			Actor:         &outbox.ActorRef{UserID: session.UserIDPtr(), Role: string(session.Role)},
			Data: payloads.ContentUpdatedEvent{
				Type:      stored.Type,
				Title:     stored.Title,
				UpdatedAt: stored.UpdatedAt,
			},
		})
	})
	if err != nil {
		return Entry{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save content")
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, s.cache.ContentKey(entry.Type)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "content cache invalidation failed")
		}
	}
	return toEntry(saved), nil
}

func (s *service) readCache(ctx context.Context, contentType string) (Entry, bool) {
	if s.cache == nil {
		return Entry{}, false
	}
	raw, err := s.cache.Get(ctx, s.cache.ContentKey(contentType))
	if err != nil {
		if redis.IsNil(err) {
			s.metrics.IncContentCache(metrics.CacheMiss)
		} else {
			s.metrics.IncContentCache(metrics.CacheError)
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "content cache read failed")
		}
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		s.metrics.IncContentCache(metrics.CacheError)
		return Entry{}, false
	}
	s.metrics.IncContentCache(metrics.CacheHit)
	return entry, true
}

func (s *service) writeCache(ctx context.Context, entry Entry) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.ContentKey(entry.Type), string(payload), s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "content cache write failed")
	}
}

// AggregateID derives a stable event aggregate id from a content type.
func AggregateID(contentType string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("dryd:content:"+contentType))
}

func toEntry(row *models.ContentEntry) Entry {
	return Entry{
		Type:      row.Type,
		Title:     row.Title,
		Content:   row.Content,
		UpdatedAt: row.UpdatedAt,
	}
}
