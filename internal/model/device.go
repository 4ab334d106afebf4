package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeviceStore records login telemetry.
type DeviceStore interface {
	RecordLogin(ctx context.Context, device Device) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Device, error)
}

// Device describes the client device reported at login time.
type Device struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	DeviceID       string
	Name           string
	Type           string
	OSName         string
	OSVersion      string
	BrowserName    string
	BrowserVersion string
	LastLoginAt    time.Time
	CreatedAt      time.Time
}

// DeviceInfo is the wire shape clients send with login requests.
type DeviceInfo struct {
	DeviceID       string `json:"deviceId,omitempty"`
	Name           string `json:"name,omitempty"`
	Type           string `json:"type,omitempty"`
	Brand          string `json:"brand,omitempty"`
	Model          string `json:"model,omitempty"`
	OSName         string `json:"osName,omitempty"`
	OSVersion      string `json:"osVersion,omitempty"`
	BrowserName    string `json:"browserName,omitempty"`
	BrowserVersion string `json:"browserVersion,omitempty"`
	PushToken      string `json:"pushToken,omitempty"`
}
