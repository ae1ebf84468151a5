package entity

import "time"

// Role is the authorization role carried by an account and its tokens.
type Role string

const (
	RoleUser      Role = "USER"
	RoleSuperuser Role = "SUPERUSER"
)

// FoodPreference is collected when an alumnus completes their profile.
type FoodPreference string

const (
	FoodVeg    FoodPreference = "Veg"
	FoodNonVeg FoodPreference = "NonVeg"
)

// Account holds identity and verification state.
// It is created and destroyed together with its Profile; Email is the join key.
//
// OTP is non-nil only while a verification or password-reset challenge is outstanding.
type Account struct {
	ID                 string
	Email              string
	Role               Role
	OTP                *string
	IsOTPVerified      bool
	IsChangingPassword bool
	IsCompleted        bool
	FoodPreference     *FoodPreference
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasPendingOTP reports whether a challenge code is waiting to be confirmed.
func (a *Account) HasPendingOTP() bool {
	return a.OTP != nil && *a.OTP != ""
}

// CanChangePassword reports whether a forgot-password sequence has been started
// and its OTP confirmed.
func (a *Account) CanChangePassword() bool {
	return a.IsChangingPassword && a.IsOTPVerified
}
