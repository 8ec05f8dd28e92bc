package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Passcode holds the structure for the otps collection in mongo. A passcode
// is single use, keyed by email, and valid only until ExpiresAt. Issuing a
// new passcode for an email supersedes any prior one.
type Passcode struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Code      string             `json:"code" bson:"code"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Expired reports whether the passcode is past its expiry at the given time.
func (p *Passcode) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
