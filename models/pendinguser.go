package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingUser holds the structure for the pendingUsers collection in mongo.
// A pending user is a signup attempt awaiting passcode verification; at most
// one exists per email. Records expire 24 hours after creation.
type PendingUser struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email          string             `json:"email" bson:"email"`
	FullName       string             `json:"full_name,omitempty" bson:"full_name,omitempty"`
	HashedPassword string             `json:"-" bson:"hashed_password"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}
