package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL             string
	DatabaseName    string
	BaseURL         string
	Port            string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	GoogleClientID  string
	SendGridAPIKey  string
	FromEmail       string
	FromName        string
	AdminEmails     []string

	// Google Sheets export
	SheetsCredentialsFile string
	MembersSpreadsheetID  string
	FormsSpreadsheetID    string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                   os.Getenv("DB_URI"),
		DatabaseName:          os.Getenv("DB_NAME"),
		BaseURL:               os.Getenv("BASE_URL"),
		Port:                  os.Getenv("PORT"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		AccessTokenTTL:        30 * time.Minute,
		RefreshTokenTTL:       7 * 24 * time.Hour,
		GoogleClientID:        os.Getenv("GOOGLE_CLIENT_ID"),
		SendGridAPIKey:        os.Getenv("SENDGRID_API_KEY"),
		FromEmail:             os.Getenv("FROM_EMAIL"),
		FromName:              os.Getenv("FROM_NAME"),
		AdminEmails:           splitEmails(os.Getenv("ADMIN_EMAILS")),
		SheetsCredentialsFile: os.Getenv("SHEETS_CREDENTIALS_FILE"),
		MembersSpreadsheetID:  os.Getenv("MEMBERS_SPREADSHEET_ID"),
		FormsSpreadsheetID:    os.Getenv("FORMS_SPREADSHEET_ID"),
	}

}

// setLogger picks the zap preset for the given environment: "production"
// gets the JSON production logger, "development" the console development
// logger, anything else the example logger used in tests and local runs.
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}

// IsAdmin reports whether the given email is on the admin allowlist.
func (c *Config) IsAdmin(email string) bool {
	for _, admin := range c.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}

func splitEmails(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
