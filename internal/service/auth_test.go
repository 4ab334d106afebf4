package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldcart/backoffice/internal/logger"
	"github.com/fieldcart/backoffice/internal/mocks"
	"github.com/fieldcart/backoffice/internal/model"
)

func newAuthFixture(t *testing.T) (*Auth, *mocks.UserStore, *mocks.OTPStore, *mocks.DeviceStore, *mocks.RefreshTokenStore, *mocks.TokenManager, *mocks.Sender) {
	t.Helper()
	users := &mocks.UserStore{}
	otps := &mocks.OTPStore{}
	devices := &mocks.DeviceStore{}
	refresh := &mocks.RefreshTokenStore{}
	manager := &mocks.TokenManager{}
	sender := &mocks.Sender{}
	auth := NewAuth(users, otps, devices, refresh, manager, sender, logger.Noop())
	return auth, users, otps, devices, refresh, manager, sender
}

func storedUser(t *testing.T, password string) model.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return model.User{
		ID:               uuid.New(),
		Name:             "Asha Devi",
		Email:            "asha@example.com",
		PhoneNumber:      "+919876543210",
		PasswordHash:     hash,
		ManagementAccess: true,
		Modules:          []string{"category", "users"},
	}
}

func TestAuth_PasswordLogin_Success(t *testing.T) {
	ctx := context.Background()
	auth, users, _, devices, refresh, manager, _ := newAuthFixture(t)
	user := storedUser(t, "secret")

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	manager.On("GenerateAccessToken", user.ID).Return("A", nil).Once()
	manager.On("GenerateRefreshToken", user.ID).Return("R", "jti", nil).Once()
	refresh.On("Create", ctx, mock.Anything).Return(nil).Once()
	devices.On("RecordLogin", ctx, mock.Anything).Return(nil).Once()

	res, err := auth.PasswordLogin(ctx, LoginInput{
		Email:    user.Email,
		Password: "secret",
		Device:   model.DeviceInfo{DeviceID: "dev-1", Name: "office laptop"},
	})
	require.NoError(t, err)
	assert.Equal(t, "A", res.Tokens.AccessToken)
	assert.Equal(t, "R", res.Tokens.RefreshToken)
	assert.Equal(t, user.ID, res.User.ID)

	devices.AssertExpectations(t)
}

func TestAuth_PasswordLogin_ByPhone(t *testing.T) {
	ctx := context.Background()
	auth, users, _, _, refresh, manager, _ := newAuthFixture(t)
	user := storedUser(t, "secret")

	users.On("GetByPhone", ctx, user.PhoneNumber).Return(user, nil).Once()
	manager.On("GenerateAccessToken", user.ID).Return("A", nil).Once()
	manager.On("GenerateRefreshToken", user.ID).Return("R", "jti", nil).Once()
	refresh.On("Create", ctx, mock.Anything).Return(nil).Once()

	res, err := auth.PasswordLogin(ctx, LoginInput{PhoneNumber: user.PhoneNumber, Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
}

func TestAuth_PasswordLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	auth, users, _, _, _, _, _ := newAuthFixture(t)
	user := storedUser(t, "secret")

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()

	_, err := auth.PasswordLogin(ctx, LoginInput{Email: user.Email, Password: "wrong"})
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_PasswordLogin_UnknownUser(t *testing.T) {
	ctx := context.Background()
	auth, users, _, _, _, _, _ := newAuthFixture(t)

	users.On("GetByEmail", ctx, "nobody@example.com").Return(model.User{}, model.ErrNotFound).Once()

	_, err := auth.PasswordLogin(ctx, LoginInput{Email: "nobody@example.com", Password: "secret"})
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_RequestLoginCode_Email(t *testing.T) {
	ctx := context.Background()
	auth, users, otps, _, _, _, sender := newAuthFixture(t)
	user := storedUser(t, "secret")

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	otps.On("Create", ctx, mock.MatchedBy(func(c model.OTPCode) bool {
		return c.Identifier == user.Email && c.Purpose == model.OTPPurposeLogin && !c.Consumed
	})).Return(nil).Once()
	sender.On("SendLoginCode", user.Email, mock.MatchedBy(func(code string) bool {
		return len(code) == 6
	})).Return(nil).Once()

	err := auth.RequestLoginCode(ctx, user.Email, "")
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestAuth_RequestLoginCode_UnknownIdentifierIsSilent(t *testing.T) {
	ctx := context.Background()
	auth, users, _, _, _, _, sender := newAuthFixture(t)

	users.On("GetByEmail", ctx, "nobody@example.com").Return(model.User{}, model.ErrNotFound).Once()

	err := auth.RequestLoginCode(ctx, "nobody@example.com", "")
	require.NoError(t, err)
	sender.AssertNotCalled(t, "SendLoginCode", mock.Anything, mock.Anything)
}

func TestAuth_VerifyLoginCode_Success(t *testing.T) {
	ctx := context.Background()
	auth, users, otps, _, refresh, manager, _ := newAuthFixture(t)
	user := storedUser(t, "secret")

	otp := model.OTPCode{
		ID:         uuid.New(),
		Identifier: user.Email,
		CodeHash:   hashCode("123456"),
		Purpose:    model.OTPPurposeLogin,
		ExpiresAt:  time.Now().Add(time.Minute),
	}

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	otps.On("GetActiveByIdentifier", ctx, user.Email).Return(otp, nil).Once()
	otps.On("Consume", ctx, otp.ID).Return(nil).Once()
	manager.On("GenerateAccessToken", user.ID).Return("A", nil).Once()
	manager.On("GenerateRefreshToken", user.ID).Return("R", "jti", nil).Once()
	refresh.On("Create", ctx, mock.Anything).Return(nil).Once()

	res, err := auth.VerifyLoginCode(ctx, user.Email, "", "123456", model.DeviceInfo{})
	require.NoError(t, err)
	assert.Equal(t, "A", res.Tokens.AccessToken)
}

func TestAuth_VerifyLoginCode_WrongCode(t *testing.T) {
	ctx := context.Background()
	auth, users, otps, _, _, _, _ := newAuthFixture(t)
	user := storedUser(t, "secret")

	otp := model.OTPCode{
		ID:         uuid.New(),
		Identifier: user.Email,
		CodeHash:   hashCode("123456"),
		ExpiresAt:  time.Now().Add(time.Minute),
	}

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	otps.On("GetActiveByIdentifier", ctx, user.Email).Return(otp, nil).Once()

	_, err := auth.VerifyLoginCode(ctx, user.Email, "", "654321", model.DeviceInfo{})
	require.ErrorIs(t, err, model.ErrOTPMismatch)
}

func TestAuth_VerifyLoginCode_Expired(t *testing.T) {
	ctx := context.Background()
	auth, users, otps, _, _, _, _ := newAuthFixture(t)
	user := storedUser(t, "secret")

	otp := model.OTPCode{
		ID:         uuid.New(),
		Identifier: user.Email,
		CodeHash:   hashCode("123456"),
		ExpiresAt:  time.Now().Add(-time.Minute),
	}

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	otps.On("GetActiveByIdentifier", ctx, user.Email).Return(otp, nil).Once()

	_, err := auth.VerifyLoginCode(ctx, user.Email, "", "123456", model.DeviceInfo{})
	require.ErrorIs(t, err, model.ErrOTPExpired)
}

func TestAuth_Logout_InvalidTokenStillSucceeds(t *testing.T) {
	ctx := context.Background()
	auth, _, _, _, _, manager, _ := newAuthFixture(t)

	manager.On("ParseRefreshToken", "garbage").Return(uuid.Nil, "", assert.AnError).Once()

	err := auth.Logout(ctx, "garbage")
	require.NoError(t, err)
}

func TestAuth_Permissions(t *testing.T) {
	ctx := context.Background()
	auth, users, _, _, _, _, _ := newAuthFixture(t)
	user := storedUser(t, "secret")

	users.On("GetByID", ctx, user.ID).Return(user, nil).Once()

	modules, err := auth.Permissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"category", "users"}, modules)
}
