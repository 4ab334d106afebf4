package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for back-office users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// User represents a stored back-office user.
type User struct {
	ID               uuid.UUID
	Name             string
	Email            string
	PhoneNumber      string
	PasswordHash     string
	ManagementAccess bool
	Modules          []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}
