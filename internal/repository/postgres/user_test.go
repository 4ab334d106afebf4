package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUserRepository(t *testing.T) {
	db := &Connection{}
	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewRefreshTokenRepository(t *testing.T) {
	db := &Connection{}
	repo := NewRefreshTokenRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewOTPRepository(t *testing.T) {
	db := &Connection{}
	repo := NewOTPRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewDeviceRepository(t *testing.T) {
	db := &Connection{}
	repo := NewDeviceRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}
