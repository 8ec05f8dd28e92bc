package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Form types as stored in the forms collection.
const (
	FormTypeSolo = "solo"
	FormTypeTeam = "team"
)

// Question types supported by the dynamic form renderer.
const (
	QuestionTypeShort = "short"
	QuestionTypeLong  = "long"
	QuestionTypeRadio = "radio"
)

// Question holds a single question definition inside a form document.
type Question struct {
	QuestionKey  string   `json:"question_key" bson:"question_key"`
	QuestionText string   `json:"question_text" bson:"question_text"`
	QuestionType string   `json:"question_type" bson:"question_type"`
	Options      []string `json:"options,omitempty" bson:"options,omitempty"`
}

// Form holds the structure for the forms collection in mongo. FormID is the
// human-readable identifier used in URLs ("id" in the document), distinct
// from the mongo _id.
type Form struct {
	ID          primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	FormID      string             `json:"id" bson:"id"`
	Name        string             `json:"name" bson:"name"`
	Type        string             `json:"type" bson:"type"`
	OpeningTime time.Time          `json:"opening_time" bson:"opening_time"`
	ClosingTime time.Time          `json:"closing_time" bson:"closing_time"`
	Questions   []Question         `json:"questions" bson:"questions"`
	RedirectTo  string             `json:"redirect_to,omitempty" bson:"redirect_to,omitempty"`
	Leaderboard bool               `json:"leaderboard" bson:"leaderboard"`
}
