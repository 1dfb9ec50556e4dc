package services

import "errors"

// Listing errors.
var (
	ErrDuplicateListing = errors.New("an identical active listing already exists")
	ErrListingNotFound  = errors.New("listing not found")
	ErrForbidden        = errors.New("operation not allowed for this user")
	ErrInvalidFilter    = errors.New("invalid listing filter")
)

// Identity errors.
var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrCompanyNameRequired = errors.New("company name is required for company accounts")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotVerified         = errors.New("email not verified")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidToken        = errors.New("invalid token")
)

// Verification errors.
var (
	ErrNoPendingVerification = errors.New("no verification pending for this email")
	ErrCodeExpired           = errors.New("code expired")
	ErrInvalidCode           = errors.New("invalid code")
	ErrTooManyAttempts       = errors.New("too many invalid attempts")
	ErrResendCooldown        = errors.New("wait before resending the code")
	ErrAlreadyVerified       = errors.New("email already verified")
	ErrDeliveryFailed        = errors.New("verification email could not be sent")
)
