//go:build integration

package postgres_test

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fieldcart/backoffice/internal/model"
	repo "github.com/fieldcart/backoffice/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "backoffice_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/backoffice_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	user := model.User{
		ID:               uuid.New(),
		Name:             "Asha Devi",
		Email:            "asha@example.com",
		PhoneNumber:      "+919876543210",
		PasswordHash:     "argon2-hash",
		ManagementAccess: true,
		Modules:          []string{"category", "users"},
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	t.Run("user_repository", func(t *testing.T) {
		saved, err := ur.Create(ctx, user)
		require.NoError(t, err)
		require.Equal(t, user.ID, saved.ID)

		byEmail, err := ur.GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		require.Equal(t, user.ID, byEmail.ID)
		require.Equal(t, []string{"category", "users"}, byEmail.Modules)
		require.True(t, byEmail.ManagementAccess)

		byPhone, err := ur.GetByPhone(ctx, user.PhoneNumber)
		require.NoError(t, err)
		require.Equal(t, user.ID, byPhone.ID)

		_, err = ur.GetByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("refresh_token_repository", func(t *testing.T) {
		rr := repo.NewRefreshTokenRepository(conn)
		h := sha256.Sum256([]byte("refresh"))
		rt := model.RefreshToken{
			ID:        uuid.New(),
			JTI:       uuid.NewString(),
			UserID:    user.ID,
			TokenHash: h[:],
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, rr.Create(ctx, rt))

		got, err := rr.GetByJTI(ctx, rt.JTI)
		require.NoError(t, err)
		require.Equal(t, rt.UserID, got.UserID)
		require.Nil(t, got.RevokedAt)

		require.NoError(t, rr.RevokeByJTI(ctx, rt.JTI))
		got, err = rr.GetByJTI(ctx, rt.JTI)
		require.NoError(t, err)
		require.NotNil(t, got.RevokedAt)

		require.NoError(t, rr.RevokeAllByUser(ctx, user.ID))
	})

	t.Run("otp_repository", func(t *testing.T) {
		or := repo.NewOTPRepository(conn)
		h := sha256.Sum256([]byte("123456"))
		first := model.OTPCode{
			ID:         uuid.New(),
			Identifier: user.Email,
			CodeHash:   h[:],
			Purpose:    model.OTPPurposeLogin,
			ExpiresAt:  time.Now().Add(5 * time.Minute),
		}
		require.NoError(t, or.Create(ctx, first))

		time.Sleep(10 * time.Millisecond)

		h2 := sha256.Sum256([]byte("654321"))
		second := first
		second.ID = uuid.New()
		second.CodeHash = h2[:]
		require.NoError(t, or.Create(ctx, second))

		// The most recent code wins.
		active, err := or.GetActiveByIdentifier(ctx, user.Email)
		require.NoError(t, err)
		require.Equal(t, second.ID, active.ID)

		require.NoError(t, or.Consume(ctx, second.ID))
		active, err = or.GetActiveByIdentifier(ctx, user.Email)
		require.NoError(t, err)
		require.Equal(t, first.ID, active.ID)
	})

	t.Run("device_repository", func(t *testing.T) {
		dr := repo.NewDeviceRepository(conn)
		require.NoError(t, dr.RecordLogin(ctx, model.Device{
			ID:          uuid.New(),
			UserID:      user.ID,
			DeviceID:    "fp-1",
			Name:        "office laptop",
			Type:        "desktop",
			OSName:      "linux",
			LastLoginAt: time.Now(),
		}))

		devices, err := dr.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, devices, 1)
		require.Equal(t, "fp-1", devices[0].DeviceID)
	})
}
