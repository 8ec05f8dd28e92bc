package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aerogenv/aero-club-api/models"
)

func TestFetchTeamMembers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "members-sheet-id/values/")
		_ = json.NewEncoder(w).Encode(valueRange{Values: [][]string{
			{"Timestamp", "Email", "Name", "Roll", "Branch", "Batch", "Role", "SubDomain", "Image"},
			{"1/1/2026", "alice@example.com", "Alice", "42", "ME", "2027", "RC Planes", "Design", "https://drive.google.com/open?id=file123"},
			{"1/1/2026", "ghost@example.com", "", "", "", "", "", "", ""},
			{"1/2/2026", "bob@example.com", "Bob"},
		}})
	}))
	defer server.Close()

	svc := New("", "members-sheet-id", "forms-sheet-id")
	svc.baseURL = server.URL

	members, err := svc.FetchTeamMembers(context.Background(), "Form Responses 1")
	assert.NoError(t, err)
	assert.Len(t, members, 2)

	assert.Equal(t, "Alice", members[0].Name)
	assert.Equal(t, "RC Planes", members[0].Role)
	assert.Equal(t, "https://drive.usercontent.google.com/download?id=file123", members[0].Image)

	// short row is padded
	assert.Equal(t, "Bob", members[1].Name)
	assert.Equal(t, "", members[1].Image)
}

func TestFetchTeamMembersEmptySheet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange{})
	}))
	defer server.Close()

	svc := New("", "members-sheet-id", "forms-sheet-id")
	svc.baseURL = server.URL

	members, err := svc.FetchTeamMembers(context.Background(), "Form Responses 1")
	assert.NoError(t, err)
	assert.Empty(t, members)
}

func TestFetchTeamMembersServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	svc := New("", "members-sheet-id", "forms-sheet-id")
	svc.baseURL = server.URL

	_, err := svc.FetchTeamMembers(context.Background(), "Form Responses 1")
	assert.Error(t, err)
}

func TestAppendFormSubmission(t *testing.T) {
	var got valueRange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "forms-sheet-id/values/")
		assert.True(t, strings.HasSuffix(r.URL.Path, ":append"))
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	svc := New("", "members-sheet-id", "forms-sheet-id")
	svc.baseURL = server.URL

	questions := []models.Question{
		{QuestionKey: "q1"},
		{QuestionKey: "q2"},
	}
	responses := map[string]string{"q1": "first", "q2": "second"}
	submittedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	err := svc.AppendFormSubmission(context.Background(), "Summer Build", "Alice", "alice@example.com", questions, responses, submittedAt)
	assert.NoError(t, err)

	assert.Len(t, got.Values, 1)
	assert.Equal(t, []string{"2026-06-01T12:00:00Z", "Alice", "alice@example.com", "first", "second"}, got.Values[0])
}

func TestDriveImageURLPassthrough(t *testing.T) {
	assert.Equal(t, "", driveImageURL(""))
	assert.Equal(t, "https://example.com/pic.png", driveImageURL("https://example.com/pic.png"))
	assert.Equal(t,
		"https://drive.usercontent.google.com/download?id=abc",
		driveImageURL("https://drive.google.com/open?id=abc"))
}

func TestFilterMembersByTeam(t *testing.T) {
	members := []models.Member{
		{Name: "Alice", Role: "RC Planes"},
		{Name: "Bob", Role: "Drones"},
	}

	rc := FilterMembersByTeam(members, "rc")
	assert.Len(t, rc, 1)
	assert.Equal(t, "Alice", rc[0].Name)

	drones := FilterMembersByTeam(members, "drones")
	assert.Len(t, drones, 1)
	assert.Equal(t, "Bob", drones[0].Name)

	all := FilterMembersByTeam(members, "")
	assert.Len(t, all, 2)
}
