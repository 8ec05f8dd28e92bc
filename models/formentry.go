package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormEntry holds the structure for the formEntries collection in mongo.
// Score is nil until an admin grades the entry; only scored entries appear
// on the public leaderboard.
type FormEntry struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FormID      string             `json:"form_id" bson:"form_id"`
	UserID      string             `json:"user_id" bson:"user_id"`
	UserEmail   string             `json:"user_email" bson:"user_email"`
	UserName    string             `json:"user_name,omitempty" bson:"user_name,omitempty"`
	Responses   map[string]string  `json:"responses" bson:"responses"`
	SubmittedAt time.Time          `json:"submitted_at" bson:"submitted_at"`
	Score       *float64           `json:"score,omitempty" bson:"score,omitempty"`
}
