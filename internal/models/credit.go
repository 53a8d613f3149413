package models

import "time"

// CreditAccount holds a user's generation entitlement. Accounts are created
// implicitly with a zero balance the first time a user is referenced; the
// balance never goes negative.
type CreditAccount struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Credits   int       `json:"credits" db:"credits"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
