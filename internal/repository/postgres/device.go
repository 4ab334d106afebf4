package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldcart/backoffice/internal/model"
)

var _ model.DeviceStore = (*DeviceRepository)(nil)

type DeviceRepository struct {
	db *Connection
}

func NewDeviceRepository(db *Connection) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) RecordLogin(ctx context.Context, device model.Device) error {
	const query = `
        INSERT INTO devices (
            id, user_id, device_id, name, type, os_name, os_version,
            browser_name, browser_version, last_login_at, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
    `

	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		device.ID, device.UserID, device.DeviceID, device.Name, device.Type,
		device.OSName, device.OSVersion, device.BrowserName, device.BrowserVersion,
		device.LastLoginAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record login device: %w", err)
	}
	return nil
}

func (r *DeviceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Device, error) {
	const query = `
        SELECT id, user_id, device_id, name, type, os_name, os_version,
               browser_name, browser_version, last_login_at, created_at
        FROM devices WHERE user_id = $1
        ORDER BY last_login_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		err := rows.Scan(
			&d.ID, &d.UserID, &d.DeviceID, &d.Name, &d.Type, &d.OSName, &d.OSVersion,
			&d.BrowserName, &d.BrowserVersion, &d.LastLoginAt, &d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return devices, nil
}
