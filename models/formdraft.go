package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormDraft holds the structure for the formDrafts collection in mongo.
// One draft per (form, user); submitting the form deletes the draft.
type FormDraft struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FormID    string             `json:"form_id" bson:"form_id"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Responses map[string]string  `json:"responses" bson:"responses"`
	LastSaved time.Time          `json:"last_saved" bson:"last_saved"`
}
