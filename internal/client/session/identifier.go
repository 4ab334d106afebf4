package session

import (
	"errors"
	"regexp"
)

// ErrInvalidIdentifier is returned when user input matches neither the
// email nor the phone shape. The check happens before any network call.
var ErrInvalidIdentifier = errors.New("identifier is neither an email address nor a phone number")

// Kind is the classification of a login identifier.
type Kind int

const (
	KindInvalid Kind = iota
	KindEmail
	KindPhone
)

func (k Kind) String() string {
	switch k {
	case KindEmail:
		return "email"
	case KindPhone:
		return "phone"
	default:
		return "invalid"
	}
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{8,}$`)
)

// Classify tags an identifier as email or phone so call sites branch on
// the tag instead of re-running the patterns.
func Classify(identifier string) Kind {
	switch {
	case emailPattern.MatchString(identifier):
		return KindEmail
	case phonePattern.MatchString(identifier):
		return KindPhone
	default:
		return KindInvalid
	}
}
