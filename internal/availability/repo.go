package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
)

// Span is the stored date footprint of one booking.
type Span struct {
	ItemType  enums.ItemType
	StartDate time.Time
	EndDate   *time.Time
}

// Repository reads date-holding bookings.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListSpans returns the spans of every booking for the item whose status still holds dates.
func (r *Repository) ListSpans(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) ([]Span, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("item_type", "start_date", "end_date").
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Where("status IN ?", enums.DateHoldingStatuses()).
		Order("start_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	spans := make([]Span, 0, len(rows))
	for _, row := range rows {
		spans = append(spans, Span{ItemType: row.ItemType, StartDate: row.StartDate, EndDate: row.EndDate})
	}
	return spans, nil
}
