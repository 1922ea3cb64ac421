package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	"github.com/dryd-travel/booking-backend/pkg/pagination"
)

// ListFilter narrows the staff booking listing.
type ListFilter struct {
	Status   *enums.BookingStatus
	ItemType *enums.ItemType
	Email    string
	Limit    int
	Cursor   string
}

// Repository handles booking persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to booking operations.
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

func (r *Repository) Create(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is required")
	}
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *Repository) FindByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("reference = ?", strings.ToUpper(strings.TrimSpace(reference))).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// List returns bookings newest first, one cursor page at a time.
func (r *Repository) List(ctx context.Context, filter ListFilter) (pagination.Page[models.Booking], error) {
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return pagination.Page[models.Booking]{}, err
	}

	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.ItemType != nil {
		q = q.Where("item_type = ?", *filter.ItemType)
	}
	if email := strings.ToLower(strings.TrimSpace(filter.Email)); email != "" {
		q = q.Where("email = ?", email)
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Booking
	if err := q.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&rows).Error; err != nil {
		return pagination.Page[models.Booking]{}, err
	}
	return pagination.Trim(rows, filter.Limit, func(b models.Booking) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	}), nil
}

// TransitionStatus moves a booking from one status to another and reports
// whether the row was still in the expected status.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus, note string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":      to,
			"status_note": note,
			"updated_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// LockItem serializes submissions for one catalog item until the transaction ends.
// Only Postgres supports row locks; sqlite connections are already single-writer.
func (r *Repository) LockItem(ctx context.Context, itemType enums.ItemType, itemID uuid.UUID) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	var table string
	switch itemType {
	case enums.ItemTypeCar:
		table = models.Car{}.TableName()
	case enums.ItemTypeTour:
		table = models.Tour{}.TableName()
	case enums.ItemTypeTransport:
		table = models.TransportService{}.TableName()
	default:
		return fmt.Errorf("unknown item type %q", itemType)
	}
	var id uuid.UUID
	return r.db.WithContext(ctx).
		Table(table).
		Select("id").
		Where("id = ?", itemID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scan(&id).Error
}

// ListExpirable returns pending bookings that started before cutoff, oldest first.
func (r *Repository) ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND start_date < ?", enums.BookingStatusPending, cutoff).
		Order("start_date ASC").
		Limit(limit)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var rows []models.Booking
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
