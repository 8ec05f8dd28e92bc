// Package sheets integrates with the Google Sheets v4 API: the member
// directory is read out of a spreadsheet maintained by the recruitment form,
// and form submissions are appended to a per-form tab for the organizers.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/aerogenv/aero-club-api/models"
)

const (
	sheetsBaseURL  = "https://sheets.googleapis.com/v4/spreadsheets"
	readOnlyScope  = "https://www.googleapis.com/auth/spreadsheets.readonly"
	readWriteScope = "https://www.googleapis.com/auth/spreadsheets"
)

// Service reads and appends spreadsheet values using a service-account
// credential. The OAuth client is created once on first use and reused.
type Service struct {
	CredentialsFile      string
	MembersSpreadsheetID string
	FormsSpreadsheetID   string

	// baseURL overrides the Sheets endpoint in tests.
	baseURL string

	mu     sync.Mutex
	client *http.Client
}

// New creates a sheets service for the given credential file and
// spreadsheets.
func New(credentialsFile, membersSpreadsheetID, formsSpreadsheetID string) *Service {
	return &Service{
		CredentialsFile:      credentialsFile,
		MembersSpreadsheetID: membersSpreadsheetID,
		FormsSpreadsheetID:   formsSpreadsheetID,
	}
}

// valueRange mirrors the Sheets API values resource.
type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

// FetchTeamMembers reads the member directory from the members spreadsheet.
// The first row is the header; rows without a name are skipped.
func (s *Service) FetchTeamMembers(ctx context.Context, sheetName string) ([]models.Member, error) {
	client, err := s.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	readRange := fmt.Sprintf("%s!A:I", sheetName)
	endpoint := fmt.Sprintf("%s/%s/values/%s", s.base(), s.MembersSpreadsheetID, url.PathEscape(readRange))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets values.get returned status %d", resp.StatusCode)
	}

	var vr valueRange
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, err
	}
	if len(vr.Values) < 2 {
		return []models.Member{}, nil
	}

	members := make([]models.Member, 0, len(vr.Values)-1)
	for _, row := range vr.Values[1:] {
		m := parseMemberRow(row)
		if m.Name == "" {
			continue
		}
		members = append(members, m)
	}
	return members, nil
}

// AppendFormSubmission appends one row to the form's tab in the forms
// spreadsheet: timestamp, name, email, then answers in question order.
func (s *Service) AppendFormSubmission(ctx context.Context, formName, userName, userEmail string, questions []models.Question, responses map[string]string, submittedAt time.Time) error {
	client, err := s.httpClient(ctx)
	if err != nil {
		return err
	}

	row := []string{
		submittedAt.UTC().Format(time.RFC3339),
		userName,
		userEmail,
	}
	for _, q := range questions {
		row = append(row, responses[q.QuestionKey])
	}

	body, err := json.Marshal(valueRange{Values: [][]string{row}})
	if err != nil {
		return err
	}

	appendRange := fmt.Sprintf("%s!A:Z", formName)
	endpoint := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS",
		s.base(), s.FormsSpreadsheetID, url.PathEscape(appendRange))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets values.append returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *Service) base() string {
	if s.baseURL != "" {
		return s.baseURL
	}
	return sheetsBaseURL
}

// httpClient builds the service-account OAuth client on first use.
func (s *Service) httpClient(ctx context.Context) (*http.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	if s.baseURL != "" {
		// Test mode talks to a local server without credentials.
		s.client = http.DefaultClient
		return s.client, nil
	}

	data, err := os.ReadFile(s.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading sheets credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, readOnlyScope, readWriteScope)
	if err != nil {
		return nil, fmt.Errorf("parsing sheets credentials: %w", err)
	}
	s.client = conf.Client(ctx)
	return s.client, nil
}

// parseMemberRow maps a padded spreadsheet row onto a Member. Column I holds
// a Drive share link; it is rewritten to a direct download URL for the
// frontend.
func parseMemberRow(row []string) models.Member {
	for len(row) < 9 {
		row = append(row, "")
	}
	return models.Member{
		Timestamp: row[0],
		Email:     row[1],
		Name:      row[2],
		RollNo:    row[3],
		Branch:    row[4],
		Batch:     row[5],
		Role:      row[6],
		SubDomain: row[7],
		Image:     driveImageURL(row[8]),
	}
}

// driveImageURL extracts the file ID from a Drive share link and returns a
// direct download URL. Links without an id query parameter pass through
// unchanged.
func driveImageURL(link string) string {
	if link == "" {
		return ""
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	id := parsed.Query().Get("id")
	if id == "" {
		return link
	}
	return "https://drive.usercontent.google.com/download?id=" + id
}

// FilterMembersByTeam narrows the directory by team keyword: "rc" matches
// the RC planes domain, "drones" the drones domain. An empty team returns
// everything.
func FilterMembersByTeam(members []models.Member, team string) []models.Member {
	var want string
	switch team {
	case "rc":
		want = "rc planes"
	case "drones":
		want = "drones"
	default:
		return members
	}

	filtered := make([]models.Member, 0, len(members))
	for _, m := range members {
		if strings.ToLower(m.Role) == want {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
