package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dryd-travel/booking-backend/pkg/db/models"
)

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

func (r *Repository) FindByType(ctx context.Context, contentType string) (*models.ContentEntry, error) {
	var entry models.ContentEntry
	if err := r.db.WithContext(ctx).Where("type = ?", contentType).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert inserts the entry or overwrites title, content and editor of an existing one.
func (r *Repository) Upsert(ctx context.Context, entry *models.ContentEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "content", "updated_by", "updated_at"}),
		}).
		Create(entry).Error
}
