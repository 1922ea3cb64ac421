package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/metrics"
	"github.com/dryd-travel/booking-backend/pkg/redis"
)

const defaultCacheTTL = 30 * time.Second

type spanLister interface {
	ListSpans(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) ([]Span, error)
}

type cacheStore interface {
	redis.Cache
	BookedDatesKey(itemType, itemID string) string
}

// Service exposes the booked-dates calendar of an item.
type Service interface {
	BookedDates(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) ([]string, error)
	Invalidate(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) error
}

// ServiceParams wires the calendar service.
type ServiceParams struct {
	Repo     spanLister
	Cache    cacheStore
	Metrics  *metrics.BookingMetrics
	Logger   *logger.Logger
	CacheTTL time.Duration
}

type service struct {
	repo    spanLister
	cache   cacheStore
	metrics *metrics.BookingMetrics
	logg    *logger.Logger
	ttl     time.Duration
	group   singleflight.Group
	tracker *Tracker
}

// NewService builds the booked-dates service. Cache and Metrics are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("availability repository required")
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
		cache:   params.Cache,
		metrics: params.Metrics,
		logg:    params.Logger,
		ttl:     ttl,
		tracker: NewTracker(),
	}, nil
}

func (s *service) BookedDates(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) ([]string, error) {
	if !itemType.IsValid() || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid item type and id are required")
	}
	if !itemType.HasDateConflicts() {
		return []string{}, nil
	}

	key := flightKey(itemType, itemID)
	ctx = s.logg.WithItem(ctx, string(itemType), itemID.String())

	if dates, ok := s.readCache(ctx, itemType, itemID); ok {
		return dates, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		gen := s.tracker.Begin(key)
		dates, err := s.load(ctx, itemType, itemID)
		if err != nil {
			return nil, err
		}
		if s.tracker.Commit(key, gen) {
			s.writeCache(ctx, itemType, itemID, dates)
		}
		return dates, nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booked dates")
	}
	return append([]string(nil), v.([]string)...), nil
}

func (s *service) Invalidate(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) error {
	key := flightKey(itemType, itemID)
	s.tracker.Supersede(key)
	s.group.Forget(key)
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, s.cache.BookedDatesKey(string(itemType), itemID.String())); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "booked dates cache invalidation failed")
		return err
	}
	return nil
}

func (s *service) load(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) ([]string, error) {
	spans, err := s.repo.ListSpans(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}
	set := DateSet{}
	for _, span := range spans {
		for _, day := range Expand(itemType, span.StartDate, span.EndDate) {
			set[day] = struct{}{}
		}
	}
	return set.Sorted(), nil
}

func (s *service) readCache(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.BookedDatesKey(string(itemType), itemID.String()))
	if err != nil {
		if redis.IsNil(err) {
			s.metrics.IncBookedDatesCache(metrics.CacheMiss)
		} else {
			s.metrics.IncBookedDatesCache(metrics.CacheError)
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "booked dates cache read failed")
		}
		return nil, false
	}
	var dates []string
	if err := json.Unmarshal([]byte(raw), &dates); err != nil {
		s.metrics.IncBookedDatesCache(metrics.CacheError)
		return nil, false
	}
	s.metrics.IncBookedDatesCache(metrics.CacheHit)
	return dates, true
}

func (s *service) writeCache(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID, dates []string) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(dates)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.BookedDatesKey(string(itemType), itemID.String()), string(payload), s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "booked dates cache write failed")
	}
}

func flightKey(itemType enums.ItemType, itemID uuid.UUID) string {
	return string(itemType) + ":" + itemID.String()
}
