package types

import "time"

// ResetCode stores a pending password-reset code for a user. The code
// itself is bcrypt-hashed; only the plaintext emailed to the user can
// redeem it. One code per user: regenerating replaces the old one.
type ResetCode struct {
	UserEmail  string    `json:"user_email" db:"user_email"`
	CodeHash   string    `json:"-" db:"code"`
	Expiration time.Time `json:"expiration" db:"expiration"`
}

// Expired reports whether the code is no longer redeemable at now.
// A code expires the instant now reaches the expiration timestamp.
func (c *ResetCode) Expired(now time.Time) bool {
	return !now.Before(c.Expiration)
}
