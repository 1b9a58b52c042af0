package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/aroma-notes/api/internal/domain"
	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
)

const (
	settingsCollection = "settings"
	settingsDocID      = "store"
)

// SettingsRepository stores the singleton settings/store document.
type SettingsRepository struct {
	repo *platformfs.Repository[domain.StoreSettings]
}

// NewSettingsRepository builds the repository.
func NewSettingsRepository(client *firestore.Client) (*SettingsRepository, error) {
	repo, err := platformfs.NewRepository(client, settingsCollection, decodeSettings)
	if err != nil {
		return nil, err
	}
	return &SettingsRepository{repo: repo}, nil
}

func decodeSettings(doc *firestore.DocumentSnapshot) (domain.StoreSettings, error) {
	data := doc.Data()
	settings := domain.StoreSettings{DeliveryFee: -1}
	if fee, ok := asInt64(data["deliveryFee"]); ok {
		settings.DeliveryFee = fee
	}
	if v, ok := data["updatedAt"].(time.Time); ok {
		settings.UpdatedAt = v
	}
	return settings, nil
}

func (r *SettingsRepository) Get(ctx context.Context) (domain.StoreSettings, error) {
	return r.repo.Get(ctx, settingsDocID)
}

// UpdateDeliveryFee merge-writes the fee, leaving any other fields on the
// document in place.
func (r *SettingsRepository) UpdateDeliveryFee(ctx context.Context, fee int64, at time.Time) error {
	return r.repo.Merge(ctx, settingsDocID, map[string]any{
		"deliveryFee": fee,
		"updatedAt":   at,
	})
}
