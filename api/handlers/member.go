package handlers

import (
	"context"
	"net/http"

	"github.com/aerogenv/aero-club-api/api"
	"github.com/aerogenv/aero-club-api/config"
	"github.com/aerogenv/aero-club-api/models"
	"github.com/aerogenv/aero-club-api/sheets"
)

// membersSheetName is the tab in the members spreadsheet holding the roster
const membersSheetName = "Form Responses 1"

// MemberSheet is the slice of the sheets service the member handlers use,
// exported for testing purposes
type MemberSheet interface {
	FetchTeamMembers(ctx context.Context, sheetName string) ([]models.Member, error)
}

// Member exported for testing purposes
type Member struct {
	Sheets MemberSheet
}

// MembersHandler returns the club roster from the members spreadsheet,
// optionally filtered by team
func (m Member) MembersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	members, err := m.Sheets.FetchTeamMembers(ctx, membersSheetName)
	if err != nil {
		config.ErrorStatus("failed to fetch members", http.StatusBadGateway, w, err)
		return
	}

	if team := r.URL.Query().Get("team"); team != "" {
		members = sheets.FilterMembersByTeam(members, team)
	}
	if members == nil {
		members = []models.Member{}
	}

	writeJSON(w, http.StatusOK, members)
}

// MembersCountHandler returns the roster size, optionally filtered by team
func (m Member) MembersCountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	members, err := m.Sheets.FetchTeamMembers(ctx, membersSheetName)
	if err != nil {
		config.ErrorStatus("failed to fetch members", http.StatusBadGateway, w, err)
		return
	}

	if team := r.URL.Query().Get("team"); team != "" {
		members = sheets.FilterMembersByTeam(members, team)
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": len(members)})
}
