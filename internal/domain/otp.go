package domain

import "time"

// OTPVerification holds a one-time code emailed during registration.
// A row is usable only while unexpired and unverified.
type OTPVerification struct {
	ID        string
	Email     string
	Code      string
	ExpiresAt time.Time
	Verified  bool
	CreatedAt time.Time
}

// Expired reports whether the code is past its expiry at the given instant.
func (o *OTPVerification) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
