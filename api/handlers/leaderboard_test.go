package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aerogenv/aero-club-api/api/handlers"
	"github.com/aerogenv/aero-club-api/config"
	"github.com/aerogenv/aero-club-api/databases"
	"github.com/aerogenv/aero-club-api/databases/mocks"
	"github.com/aerogenv/aero-club-api/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestLeaderboardHandlerRanksScoredEntries(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	formConn := &mocks.CollectionHelper{}
	formResult := &mocks.SingleResultHelper{}
	entryConn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	formResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		form := args.Get(0).(*models.Form)
		form.FormID = "summer-build"
		form.Name = "Summer Build Challenge"
		form.Leaderboard = true
	})
	formConn.On("FindOne", mock.Anything, mock.Anything).Return(formResult)
	db.On("Collection", databases.FormCollection).Return(formConn)

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		entries := args.Get(0).(*[]models.FormEntry)
		*entries = []models.FormEntry{
			{UserName: "Alice", Score: floatPtr(72.5)},
			{UserName: "Bob", Score: floatPtr(91)},
			{UserName: "Cara", Score: floatPtr(84)},
		}
	})
	entryConn.On("Find", mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", databases.FormEntryCollection).Return(entryConn)

	l := handlers.Leaderboard{
		FDB:  databases.NewFormDatabase(db),
		EDB:  databases.NewFormEntryDatabase(db),
		Conf: &config.Config{},
	}

	req := withFormVars(httptest.NewRequest("GET", "/api/v1/leaderboard/summer-build", nil), "summer-build")
	rr := httptest.NewRecorder()

	http.HandlerFunc(l.LeaderboardHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Entries []struct {
			Rank     int     `json:"rank"`
			UserName string  `json:"user_name"`
			Score    float64 `json:"score"`
		} `json:"entries"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Entries, 3)
	assert.Equal(t, "Bob", resp.Entries[0].UserName)
	assert.Equal(t, 1, resp.Entries[0].Rank)
	assert.Equal(t, "Cara", resp.Entries[1].UserName)
	assert.Equal(t, "Alice", resp.Entries[2].UserName)
	assert.Equal(t, 3, resp.Entries[2].Rank)
}

func TestLeaderboardHandlerNoLeaderboardForm(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	formConn := &mocks.CollectionHelper{}
	formResult := &mocks.SingleResultHelper{}

	formResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		form := args.Get(0).(*models.Form)
		form.FormID = "summer-build"
		form.Leaderboard = false
	})
	formConn.On("FindOne", mock.Anything, mock.Anything).Return(formResult)
	db.On("Collection", databases.FormCollection).Return(formConn)

	l := handlers.Leaderboard{
		FDB:  databases.NewFormDatabase(db),
		Conf: &config.Config{},
	}

	req := withFormVars(httptest.NewRequest("GET", "/api/v1/leaderboard/summer-build", nil), "summer-build")
	rr := httptest.NewRecorder()

	http.HandlerFunc(l.LeaderboardHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "leaderboard not enabled")
}

func TestAdminLeaderboardHandlerRequiresAdmin(t *testing.T) {
	l := handlers.Leaderboard{
		Conf: &config.Config{AdminEmails: []string{"admin@example.com"}},
	}

	req := authedRequest(withFormVars(httptest.NewRequest("GET", "/api/v1/leaderboard/summer-build/admin", nil), "summer-build"))
	rr := httptest.NewRecorder()

	http.HandlerFunc(l.AdminLeaderboardHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdateScoreHandlerRequiresAdmin(t *testing.T) {
	l := handlers.Leaderboard{
		Conf: &config.Config{AdminEmails: []string{"admin@example.com"}},
	}

	req := authedRequest(withFormVars(httptest.NewRequest("PUT", "/api/v1/leaderboard/summer-build/entries/x/score", nil), "summer-build"))
	rr := httptest.NewRecorder()

	http.HandlerFunc(l.UpdateScoreHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
