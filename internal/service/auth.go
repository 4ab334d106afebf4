package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/matthewhartstonge/argon2"

	"github.com/fieldcart/backoffice/internal/logger"
	"github.com/fieldcart/backoffice/internal/mailer"
	"github.com/fieldcart/backoffice/internal/model"
)

// Auth implements the back-office authentication flows: password login,
// one-time code login and logout. It is the only issuer of token pairs.
type Auth struct {
	userStore    model.UserStore
	otpStore     model.OTPStore
	deviceStore  model.DeviceStore
	tokenService *TokenService
	sender       mailer.Sender
	logger       *logger.Logger
}

func NewAuth(
	userStore model.UserStore,
	otpStore model.OTPStore,
	deviceStore model.DeviceStore,
	refreshTokenStore model.RefreshTokenStore,
	tokenManager model.TokenManager,
	sender mailer.Sender,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		otpStore:     otpStore,
		deviceStore:  deviceStore,
		tokenService: NewTokenService(tokenManager, refreshTokenStore, logger),
		sender:       sender,
		logger:       logger,
	}
}

// LoginInput carries the credentials of a password login attempt. Exactly one
// of Email and PhoneNumber is set.
type LoginInput struct {
	Email       string
	PhoneNumber string
	Password    string
	Device      model.DeviceInfo
}

// AuthResult is returned on any successful authentication.
type AuthResult struct {
	Tokens model.TokenPair
	User   model.User
}

// TokenService exposes the composed token service for refresh/logout handlers.
func (a *Auth) TokenService() *TokenService {
	return a.tokenService
}

// PasswordLogin authenticates a user by email or phone number and password.
func (a *Auth) PasswordLogin(ctx context.Context, in LoginInput) (AuthResult, error) {
	user, err := a.findUser(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return AuthResult{}, model.ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := argon2.VerifyEncoded([]byte(in.Password), []byte(user.PasswordHash))
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return AuthResult{}, model.ErrInvalidCredentials
	}

	return a.establishSession(ctx, user, in.Device)
}

// RequestLoginCode issues a one-time login code for the given identifier and
// delivers it out of band. Phone delivery has no provider wired yet, so codes
// for phone identifiers are only logged.
func (a *Auth) RequestLoginCode(ctx context.Context, email, phone string) error {
	user, err := a.findUser(ctx, email, phone)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// Do not leak which identifiers exist.
			a.logger.Info().Str("identifier", identifierOf(email, phone)).Msg("login code requested for unknown identifier")
			return nil
		}
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate login code: %w", err)
	}

	otp := model.OTPCode{
		ID:         uuid.New(),
		Identifier: identifierOf(email, phone),
		CodeHash:   hashCode(code),
		Purpose:    model.OTPPurposeLogin,
		ExpiresAt:  time.Now().Add(model.OTPCodeTTL),
		CreatedAt:  time.Now(),
	}
	if err := a.otpStore.Create(ctx, otp); err != nil {
		return fmt.Errorf("failed to persist login code: %w", err)
	}

	if email != "" {
		if err := a.sender.SendLoginCode(user.Email, code); err != nil {
			return fmt.Errorf("failed to deliver login code: %w", err)
		}
	} else {
		// TODO: wire an SMS provider for phone identifiers.
		a.logger.Info().Str("phone", user.PhoneNumber).Msg("login code issued for phone identifier")
	}

	return nil
}

// VerifyLoginCode checks a presented one-time code and, when valid,
// establishes a session exactly like a password login.
func (a *Auth) VerifyLoginCode(ctx context.Context, email, phone, code string, device model.DeviceInfo) (AuthResult, error) {
	user, err := a.findUser(ctx, email, phone)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return AuthResult{}, model.ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	otp, err := a.otpStore.GetActiveByIdentifier(ctx, identifierOf(email, phone))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return AuthResult{}, model.ErrOTPMismatch
		}
		return AuthResult{}, err
	}

	if otp.Consumed {
		return AuthResult{}, model.ErrOTPConsumed
	}
	if time.Now().After(otp.ExpiresAt) {
		return AuthResult{}, model.ErrOTPExpired
	}
	if subtle.ConstantTimeCompare(otp.CodeHash, hashCode(code)) != 1 {
		return AuthResult{}, model.ErrOTPMismatch
	}

	if err := a.otpStore.Consume(ctx, otp.ID); err != nil {
		return AuthResult{}, fmt.Errorf("failed to consume login code: %w", err)
	}

	return a.establishSession(ctx, user, device)
}

// Logout revokes the presented refresh token. Invalid tokens are not an
// error: the client clears its local state regardless.
func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := a.tokenService.RevokeByToken(ctx, refreshToken); err != nil {
		a.logger.Warn().Err(err).Msg("logout with unparseable refresh token")
	}
	return nil
}

// Profile returns the stored user for an authenticated subject.
func (a *Auth) Profile(ctx context.Context, userID uuid.UUID) (model.User, error) {
	return a.userStore.GetByID(ctx, userID)
}

// Permissions returns the module names the user may access.
func (a *Auth) Permissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Modules, nil
}

func (a *Auth) establishSession(ctx context.Context, user model.User, device model.DeviceInfo) (AuthResult, error) {
	pair, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.recordDevice(ctx, user.ID, device)

	a.logger.Info().Str("user_id", user.ID.String()).Msg("session established")

	return AuthResult{Tokens: pair, User: user}, nil
}

// recordDevice stores login telemetry. Failures are logged, never fatal:
// telemetry must not block a login.
func (a *Auth) recordDevice(ctx context.Context, userID uuid.UUID, device model.DeviceInfo) {
	if device == (model.DeviceInfo{}) {
		return
	}

	now := time.Now()
	err := a.deviceStore.RecordLogin(ctx, model.Device{
		ID:             uuid.New(),
		UserID:         userID,
		DeviceID:       device.DeviceID,
		Name:           device.Name,
		Type:           device.Type,
		OSName:         device.OSName,
		OSVersion:      device.OSVersion,
		BrowserName:    device.BrowserName,
		BrowserVersion: device.BrowserVersion,
		LastLoginAt:    now,
		CreatedAt:      now,
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to record login device")
	}
}

func (a *Auth) findUser(ctx context.Context, email, phone string) (model.User, error) {
	if email != "" {
		return a.userStore.GetByEmail(ctx, email)
	}
	return a.userStore.GetByPhone(ctx, phone)
}

func identifierOf(email, phone string) string {
	if email != "" {
		return email
	}
	return phone
}

// HashPassword produces an argon2id encoded hash for storage.
func HashPassword(password string) (string, error) {
	cfg := argon2.DefaultConfig()
	encoded, err := cfg.HashEncoded([]byte(password))
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(encoded), nil
}

func hashCode(code string) []byte {
	h := sha256.Sum256([]byte(code))
	return h[:]
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
