package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/alumni-backend/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no linked Account/Profile pair exists for an email.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by CreateLinked when the email is already taken.
	// Stores must enforce this themselves; callers' existence checks are advisory.
	ErrDuplicateEmail = errors.New("email already registered")
)

// AccountStore persists the Account/Profile pair. Every mutation is scoped to a
// single email and applied atomically across both records.
type AccountStore interface {
	// FindByEmail returns the linked pair or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*entity.Account, *entity.Profile, error)
	// CreateLinked inserts both records in one transaction.
	CreateLinked(ctx context.Context, a *entity.Account, p *entity.Profile) error
	// MarkOTPVerified clears the OTP and flags the account as verified.
	MarkOTPVerified(ctx context.Context, email string) error
	// BeginPasswordReset stores a fresh OTP, revokes verification, sets the
	// changing-password flag and replaces the hash with entity.PasswordResetSentinel.
	BeginPasswordReset(ctx context.Context, email, otp string) error
	// CompletePasswordReset stores the new hash and clears the changing-password flag.
	CompletePasswordReset(ctx context.Context, email, passwordHash string) error
	// UpdateProfile overwrites the personal-detail fields of the profile.
	UpdateProfile(ctx context.Context, p *entity.Profile) error
	// CompleteProfile overwrites profile details and marks the account completed.
	CompleteProfile(ctx context.Context, p *entity.Profile, food *entity.FoodPreference) error
	// DeleteLinked removes both records in one transaction.
	DeleteLinked(ctx context.Context, email string) error
}
