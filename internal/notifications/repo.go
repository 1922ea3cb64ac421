package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/pkg/db"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/pagination"
)

// Repository persists the staff inbox.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, notification *models.StaffNotification) error {
	err := r.db.WithContext(ctx).Create(notification).Error
	switch {
	case err == nil:
		return nil
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "booking no longer exists")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert staff notification")
	}
}

type listFilter struct {
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

// List returns notifications newest first.
func (r *Repository) List(ctx context.Context, filter listFilter) (pagination.Page[models.StaffNotification], error) {
	q := r.db.WithContext(ctx).Model(&models.StaffNotification{})
	if filter.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if c := filter.Cursor; c != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", c.CreatedAt, c.CreatedAt, c.ID)
	}

	var rows []models.StaffNotification
	if err := q.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&rows).Error; err != nil {
		return pagination.Page[models.StaffNotification]{}, err
	}
	return pagination.Trim(rows, filter.Limit, func(n models.StaffNotification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	}), nil
}

// MarkRead stamps one unread row. found is false when the id does not exist at all.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (found bool, err error) {
	res := r.db.WithContext(ctx).
		Model(&models.StaffNotification{}).
		Where("id = ? AND read_at IS NULL", id).
		UpdateColumn("read_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StaffNotification{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) MarkAllRead(ctx context.Context, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StaffNotification{}).
		Where("read_at IS NULL").
		UpdateColumn("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *Repository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StaffNotification{}).Where("read_at IS NULL").Count(&count).Error
	return count, err
}
