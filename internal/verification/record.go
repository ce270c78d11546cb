package verification

import (
	"strings"
	"time"
	"unicode"
)

// Record represents one outstanding passcode challenge. At most one record
// exists per (email, phone) pair; issuing again overwrites the prior record.
type Record struct {
	Key       string
	Code      string
	Email     string
	Phone     string
	ExpiresAt time.Time
	Attempts  int
}

// NormalizeEmail canonicalises an email address for key derivation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips all whitespace from a phone number so formatting
// variants of the same number map to the same key.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// DeriveKey builds the lookup key for a normalized (email, phone) pair.
func DeriveKey(email, phone string) string {
	return email + "|" + phone
}
