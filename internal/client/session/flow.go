package session

import (
	"time"
)

// Step is a position in the multi-step login flow.
type Step string

const (
	StepCollectIdentifier Step = "collect-identifier"
	StepEnterPassword     Step = "enter-password"
	StepEnterOTP          Step = "enter-otp"
	StepAuthenticated     Step = "authenticated"
)

// OTPResendCooldown is the cooldown armed whenever a code is requested.
const OTPResendCooldown = 60

// Flow drives the login UI state machine. It holds no credentials and
// performs no network calls; the owning view calls the Manager and
// reports outcomes back through the transition methods.
type Flow struct {
	step       Step
	identifier string
	kind       Kind
	countdown  *Countdown

	tickInterval time.Duration
	onTick       func(remaining int)
}

type FlowOption func(*Flow)

// WithTickInterval shortens the countdown tick, for tests.
func WithTickInterval(d time.Duration) FlowOption {
	return func(f *Flow) { f.tickInterval = d }
}

// WithCountdownTick observes each countdown decrement.
func WithCountdownTick(fn func(remaining int)) FlowOption {
	return func(f *Flow) { f.onTick = fn }
}

func NewFlow(opts ...FlowOption) *Flow {
	f := &Flow{
		step:         StepCollectIdentifier,
		tickInterval: time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) Step() Step         { return f.step }
func (f *Flow) Identifier() string { return f.identifier }
func (f *Flow) Kind() Kind         { return f.kind }

// SubmitIdentifier validates the identifier and advances to the
// password step. Invalid input surfaces an error and stays put.
func (f *Flow) SubmitIdentifier(identifier string) error {
	kind := Classify(identifier)
	if kind == KindInvalid {
		return ErrInvalidIdentifier
	}
	f.identifier = identifier
	f.kind = kind
	f.step = StepEnterPassword
	return nil
}

// ChooseOTP is the sibling transition from the password step: the user
// asked for a one-time code instead. Arms the resend cooldown.
func (f *Flow) ChooseOTP() {
	if f.step != StepEnterPassword && f.step != StepEnterOTP {
		return
	}
	f.step = StepEnterOTP
	f.armCountdown()
}

// ResendRequested re-arms the cooldown after another code was sent. Only
// valid while the cooldown is exhausted.
func (f *Flow) ResendRequested() bool {
	if f.step != StepEnterOTP || !f.CanResend() {
		return false
	}
	f.armCountdown()
	return true
}

// Authenticated marks the terminal success state and releases the
// countdown.
func (f *Flow) Authenticated() {
	f.stopCountdown()
	f.step = StepAuthenticated
}

// Back returns to identifier collection from any step and releases the
// countdown.
func (f *Flow) Back() {
	f.stopCountdown()
	f.identifier = ""
	f.kind = KindInvalid
	f.step = StepCollectIdentifier
}

// Dispose cancels the countdown when the owning view unmounts.
func (f *Flow) Dispose() {
	f.stopCountdown()
}

// CountdownRemaining reports the seconds left before resend re-enables.
func (f *Flow) CountdownRemaining() int {
	if f.countdown == nil {
		return 0
	}
	return f.countdown.Remaining()
}

// CanResend reports whether the resend action is available.
func (f *Flow) CanResend() bool {
	return f.step == StepEnterOTP && f.CountdownRemaining() == 0
}

func (f *Flow) armCountdown() {
	f.stopCountdown()
	f.countdown = StartCountdown(OTPResendCooldown, f.tickInterval, f.onTick)
}

func (f *Flow) stopCountdown() {
	if f.countdown != nil {
		f.countdown.Stop()
		f.countdown = nil
	}
}
