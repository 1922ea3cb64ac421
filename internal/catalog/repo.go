package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/pkg/db/models"
)

// Repository reads and writes catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to catalog operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindCar(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	var car models.Car
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&car).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *Repository) FindTour(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	var tour models.Tour
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&tour).Error; err != nil {
		return nil, err
	}
	return &tour, nil
}

func (r *Repository) FindTransport(ctx context.Context, id uuid.UUID) (*models.TransportService, error) {
	var svc models.TransportService
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *Repository) ListCars(ctx context.Context) ([]models.Car, error) {
	var cars []models.Car
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&cars).Error
	return cars, err
}

func (r *Repository) ListTours(ctx context.Context) ([]models.Tour, error) {
	var tours []models.Tour
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("title ASC").Find(&tours).Error
	return tours, err
}

func (r *Repository) ListTransport(ctx context.Context) ([]models.TransportService, error) {
	var services []models.TransportService
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&services).Error
	return services, err
}

// Create inserts a catalog row (car, tour or transport service).
func (r *Repository) Create(ctx context.Context, row any) error {
	return r.db.WithContext(ctx).Create(row).Error
}
