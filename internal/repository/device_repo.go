package repository

import (
	"context"
	"fmt"

	"sensormon/internal/models"
)

// DeviceRepository persists devices keyed by EUI.
type DeviceRepository struct {
	db DBTX
}

// NewDeviceRepository returns repository.
func NewDeviceRepository(db DBTX) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert inserts the device or overwrites every mutable field of an existing
// one in a single atomic statement. Safe to call concurrently for the same
// EUI from different files; the unique-key conflict resolution is the only
// locking. (xmax = 0) distinguishes a fresh insert from an overwrite.
func (r *DeviceRepository) Upsert(ctx context.Context, device models.Device) (Outcome, error) {
	const query = `
		INSERT INTO devices
			(dev_eui, device_name, device_profile_name, tenant_name, application_name,
			 description, address, location, class_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::point, $9, NOW(), NOW())
		ON CONFLICT (dev_eui)
		DO UPDATE SET device_name = EXCLUDED.device_name,
		              device_profile_name = EXCLUDED.device_profile_name,
		              tenant_name = EXCLUDED.tenant_name,
		              application_name = EXCLUDED.application_name,
		              description = EXCLUDED.description,
		              address = EXCLUDED.address,
		              location = EXCLUDED.location,
		              class_enabled = EXCLUDED.class_enabled,
		              updated_at = NOW()
		RETURNING (xmax = 0)
	`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		device.DevEUI,
		device.DeviceName,
		device.DeviceProfileName,
		device.TenantName,
		device.ApplicationName,
		device.Description,
		device.Address,
		pointLiteral(device.Longitude, device.Latitude),
		device.ClassEnabled,
	).Scan(&inserted)
	if err != nil {
		return "", fmt.Errorf("upsert device %s: %w", device.DevEUI, err)
	}
	if inserted {
		return OutcomeInserted, nil
	}
	return OutcomeUpdated, nil
}

// pointLiteral renders a Postgres point as "(x,y)", i.e. (lon,lat), or NULL.
// A nil pair is an explicit overwrite to NULL, not a skip.
func pointLiteral(lon, lat *float64) *string {
	if lon == nil || lat == nil {
		return nil
	}
	p := fmt.Sprintf("(%v,%v)", *lon, *lat)
	return &p
}
