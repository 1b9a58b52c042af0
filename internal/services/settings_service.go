package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aroma-notes/api/internal/domain"
	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
	"github.com/aroma-notes/api/internal/repositories"
)

// ErrSettingsInvalidInput marks rejected settings updates.
var ErrSettingsInvalidInput = errors.New("settings: invalid input")

type settingsService struct {
	settings repositories.SettingsRepository
	clock    Clock
}

// SettingsServiceDeps wires NewSettingsService.
type SettingsServiceDeps struct {
	Settings repositories.SettingsRepository
	Clock    Clock
}

// NewSettingsService builds the settings service.
func NewSettingsService(deps SettingsServiceDeps) (SettingsService, error) {
	if deps.Settings == nil {
		return nil, errors.New("settings service: repository is required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &settingsService{settings: deps.Settings, clock: deps.Clock}, nil
}

// Get returns the stored settings, substituting the default delivery fee
// when the document is missing or carries no usable fee.
func (s *settingsService) Get(ctx context.Context) (domain.StoreSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if platformfs.IsNotFound(err) {
			return domain.StoreSettings{DeliveryFee: domain.DefaultDeliveryFee}, nil
		}
		return domain.StoreSettings{}, err
	}
	if settings.DeliveryFee < 0 {
		settings.DeliveryFee = domain.DefaultDeliveryFee
	}
	return settings, nil
}

func (s *settingsService) UpdateDeliveryFee(ctx context.Context, fee int64) (domain.StoreSettings, error) {
	if fee < 0 {
		return domain.StoreSettings{}, fmt.Errorf("%w: delivery fee must be non-negative", ErrSettingsInvalidInput)
	}
	now := s.clock()
	if err := s.settings.UpdateDeliveryFee(ctx, fee, now); err != nil {
		return domain.StoreSettings{}, err
	}
	return domain.StoreSettings{DeliveryFee: fee, UpdatedAt: now}, nil
}
