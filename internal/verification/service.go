package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trustreach/verifyd/pkg/crypto"
)

const (
	defaultCodeTTL     = 10 * time.Minute
	defaultMaxAttempts = 5
)

// Status is the outcome of a validation attempt. The variants are mutually
// exclusive and evaluated in priority order: a missing record is reported
// before expiry, expiry before the attempt limit, and the attempt limit
// before the code comparison.
type Status int

const (
	StatusNotFound Status = iota
	StatusExpired
	StatusLocked
	StatusMismatch
	StatusValid
)

// String returns a short label suitable for metrics and logs.
func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "not_found"
	case StatusExpired:
		return "expired"
	case StatusLocked:
		return "locked"
	case StatusMismatch:
		return "mismatch"
	case StatusValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Message returns the canonical user-facing message for the outcome.
func (s Status) Message() string {
	switch s {
	case StatusNotFound:
		return "OTP not found. Please request a new OTP."
	case StatusExpired:
		return "OTP has expired. Please request a new OTP."
	case StatusLocked:
		return "Too many failed attempts. Please request a new OTP."
	case StatusMismatch:
		return "Incorrect OTP. Please try again."
	case StatusValid:
		return "OTP verified successfully."
	default:
		return "Verification failed."
	}
}

// Option customises the Service.
type Option func(*Service)

// WithClock injects a custom time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithCodeTTL overrides the passcode lifetime.
func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxAttempts overrides the failed-attempt budget per record.
func WithMaxAttempts(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxAttempts = limit
		}
	}
}

// Service issues short-lived numeric passcodes tied to an (email, phone)
// pair and validates submitted codes against stored state.
type Service struct {
	store       Store
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewService constructs a verification service on top of the given store.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("verification service: store is required")
	}

	service := &Service{
		store:       store,
		ttl:         defaultCodeTTL,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CodeTTL returns the configured passcode lifetime.
func (s *Service) CodeTTL() time.Duration {
	return s.ttl
}

// Issue generates a fresh passcode for the pair and stores it, replacing any
// prior outstanding record for the same pair. The code is returned so the
// caller can dispatch it through the notifier; delivery failure does not
// invalidate the record.
func (s *Service) Issue(ctx context.Context, email, phone string) (string, error) {
	email = NormalizeEmail(email)
	phone = NormalizePhone(phone)
	if email == "" {
		return "", errors.New("verification service: email is required")
	}
	if phone == "" {
		return "", errors.New("verification service: phone is required")
	}

	code, err := crypto.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("verification service: %w", err)
	}

	rec := Record{
		Key:       DeriveKey(email, phone),
		Code:      code,
		Email:     email,
		Phone:     phone,
		ExpiresAt: s.now().Add(s.ttl),
	}

	if err := s.store.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("verification service: save record: %w", err)
	}

	return code, nil
}

// Validate checks a submitted code against the stored record for the pair.
// Expected outcomes are returned as a Status, never as an error; the error
// path is reserved for backing-store failures. The decision itself runs as
// one atomic store operation, so racing submissions of the same code yield
// exactly one StatusValid.
func (s *Service) Validate(ctx context.Context, email, phone, submitted string) (Status, error) {
	key := DeriveKey(NormalizeEmail(email), NormalizePhone(phone))
	submitted = strings.TrimSpace(submitted)

	status, err := s.store.Consume(ctx, key, submitted, s.now(), s.maxAttempts)
	if err != nil {
		return status, fmt.Errorf("verification service: validate: %w", err)
	}
	return status, nil
}

// SweepExpired removes expired records from the store. Validation does not
// depend on the sweep; it exists to bound memory growth from abandoned
// challenges.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	removed, err := s.store.SweepExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("verification service: sweep: %w", err)
	}
	return removed, nil
}
