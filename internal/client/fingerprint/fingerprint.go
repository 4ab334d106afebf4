// Package fingerprint builds the device telemetry sent with login
// requests. The device id is generated once per state directory and
// reused so a device keeps a stable identity across sessions.
package fingerprint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldcart/backoffice/internal/model"
)

const idFileName = "device_id"

// ClientName identifies this client in telemetry, analogous to a
// browser name for web logins.
const ClientName = "backofficectl"

// DeviceID returns the cached device id for the state directory,
// generating and persisting one on first use.
func DeviceID(stateDir string) (string, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	path := filepath.Join(stateDir, idFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}

	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}
	return id, nil
}

// Collect assembles the device info payload for login telemetry.
func Collect(stateDir, clientVersion string) (model.DeviceInfo, error) {
	id, err := DeviceID(stateDir)
	if err != nil {
		return model.DeviceInfo{}, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return model.DeviceInfo{
		DeviceID:       id,
		Name:           hostname,
		Type:           "desktop",
		Model:          runtime.GOARCH,
		OSName:         runtime.GOOS,
		BrowserName:    ClientName,
		BrowserVersion: clientVersion,
	}, nil
}
