package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/aerogenv/aero-club-api/api"
	"github.com/aerogenv/aero-club-api/config"
	"github.com/aerogenv/aero-club-api/databases"
	"github.com/aerogenv/aero-club-api/models"
)

// team forms carry response keys "team_member_2_*".."team_member_4_*";
// member 1 is the submitting user
const (
	teamMemberPrefix = "team_member_"
	teamMemberMin    = 2
	teamMemberMax    = 4
)

// extra response fields collected per optional team member
var teamMemberFields = []string{"name", "roll", "phone"}

// FormSheet is the slice of the sheets service the form handlers use,
// exported for testing purposes
type FormSheet interface {
	AppendFormSubmission(ctx context.Context, formName, userName, userEmail string, questions []models.Question, responses map[string]string, submittedAt time.Time) error
}

// Form exported for testing purposes
type Form struct {
	FDB    databases.FormDatabase
	EDB    databases.FormEntryDatabase
	DDB    databases.FormDraftDatabase
	UDB    databases.UserDatabase
	Sheets FormSheet

	// Now is overridable in tests
	Now func() time.Time
}

func (f Form) now() time.Time {
	if f.Now != nil {
		return f.Now().UTC()
	}
	return time.Now().UTC()
}

type submitFormRequest struct {
	Responses map[string]string `json:"responses"`
}

type saveDraftRequest struct {
	Responses map[string]string `json:"responses"`
}

// FormHandler returns a form definition given its public id
func (f Form) FormHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	form, err := f.FDB.FindOne(ctx, bson.M{"id": formID})
	if err != nil {
		config.ErrorStatus("form not found", http.StatusNotFound, w, err)
		return
	}

	writeJSON(w, http.StatusOK, form)
}

// CheckSubmissionHandler reports whether the authenticated user has already
// submitted the form
func (f Form) CheckSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]
	authUser, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	entry, err := f.EDB.FindOne(ctx, bson.M{"form_id": formID, "user_id": authUser.ID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"has_submitted": false,
				"submission":    nil,
			})
			return
		}
		config.ErrorStatus("failed to check submission", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"has_submitted": true,
		"submission": map[string]string{
			"id":           entry.ID.Hex(),
			"submitted_at": entry.SubmittedAt.UTC().Format(time.RFC3339),
		},
	})
}

// SubmitFormHandler validates and stores a form submission, then pushes it
// to the forms spreadsheet and clears any saved draft
func (f Form) SubmitFormHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]
	authUser, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	var req submitFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Responses == nil {
		req.Responses = map[string]string{}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	form, err := f.FDB.FindOne(ctx, bson.M{"id": formID})
	if err != nil {
		config.ErrorStatus("form not found", http.StatusNotFound, w, err)
		return
	}

	now := f.now()
	if now.Before(form.OpeningTime) {
		writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: "form is not yet open"})
		return
	}
	if now.After(form.ClosingTime) {
		writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: "form is closed"})
		return
	}

	_, err = f.EDB.FindOne(ctx, bson.M{"form_id": formID, "user_id": authUser.ID})
	if err == nil {
		writeJSON(w, http.StatusConflict, messageResponse{Success: false, Message: "you have already submitted this form"})
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to check submission", http.StatusInternalServerError, w, err)
		return
	}

	if missing := missingRequiredResponses(form, req.Responses); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: fmt.Sprintf("missing required questions: %s", strings.Join(missing, ", "))})
		return
	}

	userName := authUser.Email
	if f.UDB != nil {
		if uid, err := primitive.ObjectIDFromHex(authUser.ID); err == nil {
			if user, err := f.UDB.FindOne(ctx, bson.M{"_id": uid}); err == nil && user.FullName != "" {
				userName = user.FullName
			}
		}
	}

	entry := models.FormEntry{
		ID:          primitive.NewObjectID(),
		FormID:      formID,
		UserID:      authUser.ID,
		UserEmail:   authUser.Email,
		UserName:    userName,
		Responses:   req.Responses,
		SubmittedAt: now,
	}
	if _, err := f.EDB.InsertOne(ctx, entry); err != nil {
		config.ErrorStatus("failed to store submission", http.StatusInternalServerError, w, err)
		return
	}

	// the spreadsheet copy gets the compacted team member numbering; the
	// stored entry keeps the responses as submitted
	sheetResponses := entry.Responses
	sheetQuestions := form.Questions
	if form.Type == models.FormTypeTeam {
		sheetResponses = renumberTeamMembers(entry.Responses)
		sheetQuestions = append(append([]models.Question{}, form.Questions...), teamMemberQuestions()...)
	}

	// spreadsheet push is best effort, a sheets outage must not fail the
	// submission
	if f.Sheets != nil {
		go func(form models.Form, entry models.FormEntry, questions []models.Question, responses map[string]string) {
			defer func() {
				if r := recover(); r != nil {
					zap.S().Errorw("recovered from panic in sheets push", "panic", r)
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := f.Sheets.AppendFormSubmission(ctx, form.Name, entry.UserName, entry.UserEmail, questions, responses, entry.SubmittedAt); err != nil {
				zap.S().Warnw("sheets push degraded", "form", form.FormID, "error", err)
			}
		}(*form, entry, sheetQuestions, sheetResponses)
	}

	if _, err := f.DDB.DeleteOne(ctx, bson.M{"form_id": formID, "user_id": authUser.ID}); err != nil {
		zap.S().Warnw("failed to delete draft after submission", "form", formID, "error", err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":       "form submitted successfully",
		"submission_id": entry.ID.Hex(),
		"submitted_at":  entry.SubmittedAt.Format(time.RFC3339),
		"redirect_to":   form.RedirectTo,
	})
}

// GetDraftHandler returns the user's saved draft for a form
func (f Form) GetDraftHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]
	authUser, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := f.FDB.FindOne(ctx, bson.M{"id": formID}); err != nil {
		config.ErrorStatus("form not found", http.StatusNotFound, w, err)
		return
	}

	draft, err := f.DDB.FindOne(ctx, bson.M{"form_id": formID, "user_id": authUser.ID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"has_draft": false,
				"draft":     nil,
			})
			return
		}
		config.ErrorStatus("failed to get draft", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"has_draft": true,
		"draft": map[string]interface{}{
			"id":         draft.ID.Hex(),
			"form_id":    draft.FormID,
			"responses":  draft.Responses,
			"last_saved": draft.LastSaved.UTC().Format(time.RFC3339),
		},
	})
}

// SaveDraftHandler upserts the user's draft responses for a form
func (f Form) SaveDraftHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]
	authUser, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	var req saveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Responses == nil {
		req.Responses = map[string]string{}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := f.FDB.FindOne(ctx, bson.M{"id": formID}); err != nil {
		config.ErrorStatus("form not found", http.StatusNotFound, w, err)
		return
	}

	_, err := f.EDB.FindOne(ctx, bson.M{"form_id": formID, "user_id": authUser.ID})
	if err == nil {
		writeJSON(w, http.StatusConflict, messageResponse{Success: false, Message: "form already submitted, cannot save draft"})
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to check submission", http.StatusInternalServerError, w, err)
		return
	}

	lastSaved := f.now()
	upsert := true
	_, err = f.DDB.UpdateOne(ctx,
		bson.M{"form_id": formID, "user_id": authUser.ID},
		bson.M{"$set": bson.M{
			"form_id":    formID,
			"user_id":    authUser.ID,
			"responses":  req.Responses,
			"last_saved": lastSaved,
		}},
		&options.UpdateOptions{Upsert: &upsert},
	)
	if err != nil {
		config.ErrorStatus("failed to save draft", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "draft saved successfully",
		"last_saved": lastSaved.Format(time.RFC3339),
	})
}

// DeleteDraftHandler removes the user's draft for a form
func (f Form) DeleteDraftHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]
	authUser, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	deleted, err := f.DDB.DeleteOne(ctx, bson.M{"form_id": formID, "user_id": authUser.ID})
	if err != nil {
		config.ErrorStatus("failed to delete draft", http.StatusInternalServerError, w, err)
		return
	}
	if deleted == 0 {
		config.ErrorStatus("no draft found", http.StatusNotFound, w, errors.New("nothing deleted"))
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "draft deleted successfully"})
}

// renumberTeamMembers compacts the team_member_2..team_member_4 response
// groups so the remaining members are numbered consecutively from 2. A
// member counts as present when any of its fields is non-empty.
func renumberTeamMembers(responses map[string]string) map[string]string {
	renumbered := make(map[string]string, len(responses))
	for key, value := range responses {
		if !strings.HasPrefix(key, teamMemberPrefix) {
			renumbered[key] = value
		}
	}

	next := teamMemberMin
	for i := teamMemberMin; i <= teamMemberMax; i++ {
		present := false
		for _, field := range teamMemberFields {
			if responses[fmt.Sprintf("%s%d_%s", teamMemberPrefix, i, field)] != "" {
				present = true
				break
			}
		}
		if !present {
			continue
		}
		for _, field := range teamMemberFields {
			oldKey := fmt.Sprintf("%s%d_%s", teamMemberPrefix, i, field)
			if value, ok := responses[oldKey]; ok {
				renumbered[fmt.Sprintf("%s%d_%s", teamMemberPrefix, next, field)] = value
			}
		}
		next++
	}
	return renumbered
}

// teamMemberQuestions returns the spreadsheet columns for the optional team
// member slots. They are not part of the stored form definition.
func teamMemberQuestions() []models.Question {
	var questions []models.Question
	for i := teamMemberMin; i <= teamMemberMax; i++ {
		questions = append(questions,
			models.Question{QuestionKey: fmt.Sprintf("%s%d_name", teamMemberPrefix, i), QuestionText: fmt.Sprintf("Team member %d name", i), QuestionType: models.QuestionTypeShort},
			models.Question{QuestionKey: fmt.Sprintf("%s%d_roll", teamMemberPrefix, i), QuestionText: fmt.Sprintf("Team member %d roll number", i), QuestionType: models.QuestionTypeShort},
			models.Question{QuestionKey: fmt.Sprintf("%s%d_phone", teamMemberPrefix, i), QuestionText: fmt.Sprintf("Team member %d phone", i), QuestionType: models.QuestionTypeShort},
		)
	}
	return questions
}

// missingRequiredResponses lists the form questions with no response key at
// all. Every defined question is required; the optional team member fields
// are not part of the definition.
func missingRequiredResponses(form *models.Form, responses map[string]string) []string {
	var missing []string
	for _, q := range form.Questions {
		if _, ok := responses[q.QuestionKey]; !ok {
			missing = append(missing, q.QuestionKey)
		}
	}
	return missing
}
