package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlow_HappyPasswordPath(t *testing.T) {
	f := NewFlow()
	defer f.Dispose()

	assert.Equal(t, StepCollectIdentifier, f.Step())

	require.NoError(t, f.SubmitIdentifier("user@example.com"))
	assert.Equal(t, StepEnterPassword, f.Step())
	assert.Equal(t, KindEmail, f.Kind())

	f.Authenticated()
	assert.Equal(t, StepAuthenticated, f.Step())
}

func TestFlow_InvalidIdentifierStaysPut(t *testing.T) {
	f := NewFlow()
	defer f.Dispose()

	err := f.SubmitIdentifier("not-an-identifier")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	assert.Equal(t, StepCollectIdentifier, f.Step())
	assert.Empty(t, f.Identifier())
}

func TestFlow_OTPSiblingTransition(t *testing.T) {
	f := NewFlow(WithTickInterval(time.Millisecond))
	defer f.Dispose()

	require.NoError(t, f.SubmitIdentifier("+919876543210"))
	assert.Equal(t, KindPhone, f.Kind())

	f.ChooseOTP()
	assert.Equal(t, StepEnterOTP, f.Step())
	assert.False(t, f.CanResend(), "cooldown is armed on entering the OTP step")

	f.Authenticated()
	assert.Equal(t, StepAuthenticated, f.Step())
	assert.Equal(t, 0, f.CountdownRemaining())
}

func TestFlow_ChooseOTPIgnoredBeforeIdentifier(t *testing.T) {
	f := NewFlow()
	defer f.Dispose()

	f.ChooseOTP()
	assert.Equal(t, StepCollectIdentifier, f.Step())
}

func TestFlow_BackResetsEverything(t *testing.T) {
	f := NewFlow(WithTickInterval(time.Millisecond))
	defer f.Dispose()

	require.NoError(t, f.SubmitIdentifier("user@example.com"))
	f.ChooseOTP()

	f.Back()
	assert.Equal(t, StepCollectIdentifier, f.Step())
	assert.Empty(t, f.Identifier())
	assert.Equal(t, 0, f.CountdownRemaining())
}

func TestFlow_ResendAfterCooldownExpires(t *testing.T) {
	done := make(chan struct{})
	var once atomic.Bool
	f := NewFlow(
		WithTickInterval(time.Millisecond),
		WithCountdownTick(func(remaining int) {
			if remaining == 0 && once.CompareAndSwap(false, true) {
				close(done)
			}
		}),
	)
	defer f.Dispose()

	require.NoError(t, f.SubmitIdentifier("user@example.com"))
	f.ChooseOTP()
	assert.False(t, f.ResendRequested(), "resend is unavailable while the cooldown runs")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cooldown did not expire")
	}

	assert.True(t, f.CanResend())
	assert.True(t, f.ResendRequested())
	assert.False(t, f.CanResend(), "resend re-arms the cooldown")
}
