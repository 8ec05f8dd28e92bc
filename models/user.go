package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the structure for the users collection in mongo.
//
// A user carries either a local bcrypt credential (HashedPassword) or a
// federated identity (GoogleID), set once at creation. Accounts created
// through either path are verified at creation.
type User struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email          string             `json:"email" bson:"email"`
	FullName       string             `json:"full_name,omitempty" bson:"full_name,omitempty"`
	HashedPassword string             `json:"-" bson:"hashed_password,omitempty"`
	GoogleID       string             `json:"-" bson:"google_id,omitempty"`
	ProfilePicture string             `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	IsActive       bool               `json:"is_active" bson:"is_active"`
	IsVerified     bool               `json:"is_verified" bson:"is_verified"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasPassword reports whether the account was created with a local
// credential (as opposed to Google sign-in only).
func (u *User) HasPassword() bool {
	return u.HashedPassword != ""
}
