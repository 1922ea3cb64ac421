// Package catalog serves the cars, tours and transport services customers can book.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/internal/quote"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
)

type catalogRepository interface {
	FindCar(ctx context.Context, id uuid.UUID) (*models.Car, error)
	FindTour(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	FindTransport(ctx context.Context, id uuid.UUID) (*models.TransportService, error)
	ListCars(ctx context.Context) ([]models.Car, error)
	ListTours(ctx context.Context) ([]models.Tour, error)
	ListTransport(ctx context.Context) ([]models.TransportService, error)
}

// Service exposes the read side of the catalog.
type Service interface {
	Get(ctx context.Context, itemType enums.ItemType, id uuid.UUID) (quote.Item, error)
	GetListing(ctx context.Context, itemType enums.ItemType, id uuid.UUID) (*Listing, error)
	List(ctx context.Context, itemType enums.ItemType) ([]Listing, error)
}

type service struct {
	repo catalogRepository
	logg *logger.Logger
}

// NewService builds a catalog service backed by repo.
func NewService(repo catalogRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, itemType enums.ItemType, id uuid.UUID) (quote.Item, error) {
	listing, err := s.GetListing(ctx, itemType, id)
	if err != nil {
		return quote.Item{}, err
	}
	return listing.Item, nil
}

func (s *service) GetListing(ctx context.Context, itemType enums.ItemType, id uuid.UUID) (*Listing, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	var (
		listing Listing
		err     error
	)
	switch itemType {
	case enums.ItemTypeCar:
		var car *models.Car
		if car, err = s.repo.FindCar(ctx, id); err == nil {
			listing = fromCar(*car)
		}
	case enums.ItemTypeTour:
		var tour *models.Tour
		if tour, err = s.repo.FindTour(ctx, id); err == nil {
			listing = fromTour(*tour)
		}
	case enums.ItemTypeTransport:
		var svc *models.TransportService
		if svc, err = s.repo.FindTransport(ctx, id); err == nil {
			listing = fromTransport(*svc)
		}
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported item type %q", itemType)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}

	if verr := Validate(listing.Item); verr != nil {
		ctx = s.logg.WithItem(ctx, string(itemType), id.String())
		s.logg.Error(ctx, "catalog item misconfigured", verr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, verr, "item is not bookable right now")
	}
	return &listing, nil
}

func (s *service) List(ctx context.Context, itemType enums.ItemType) ([]Listing, error) {
	var listings []Listing
	switch itemType {
	case enums.ItemTypeCar:
		cars, err := s.repo.ListCars(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cars")
		}
		for _, car := range cars {
			listings = append(listings, fromCar(car))
		}
	case enums.ItemTypeTour:
		tours, err := s.repo.ListTours(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tours")
		}
		for _, tour := range tours {
			listings = append(listings, fromTour(tour))
		}
	case enums.ItemTypeTransport:
		services, err := s.repo.ListTransport(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transport services")
		}
		for _, svc := range services {
			listings = append(listings, fromTransport(svc))
		}
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported item type %q", itemType)
	}

	valid := make([]Listing, 0, len(listings))
	for _, listing := range listings {
		if err := Validate(listing.Item); err != nil {
			s.logg.Warn(s.logg.WithItem(ctx, string(itemType), listing.ID.String()), "skipping misconfigured catalog item: "+err.Error())
			continue
		}
		valid = append(valid, listing)
	}
	return valid, nil
}
