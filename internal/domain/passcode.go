package domain

import "time"

// PasscodePurpose distinguishes registration codes from login codes.
type PasscodePurpose string

const (
	PurposeRegistration PasscodePurpose = "REGISTRATION"
	PurposeLogin        PasscodePurpose = "LOGIN"
)

// ValidPurpose reports whether p is a known passcode purpose.
func ValidPurpose(p PasscodePurpose) bool {
	return p == PurposeRegistration || p == PurposeLogin
}

// Passcode is a short-lived numeric credential tied to an email address.
// Only the bcrypt hash of the code is persisted. At most one unconsumed,
// unexpired passcode per (email, purpose) is treated as valid: issuing a
// new code marks prior outstanding codes consumed.
type Passcode struct {
	ID         string
	Email      string
	CodeHash   string
	Purpose    PasscodePurpose
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Consumed reports whether the passcode has already been used or invalidated.
func (p *Passcode) Consumed() bool {
	return p.ConsumedAt != nil
}

// Expired reports whether the passcode is past its expiry at the given time.
func (p *Passcode) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
