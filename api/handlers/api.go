package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/aerogenv/aero-club-api/api"
	"github.com/aerogenv/aero-club-api/api/scheduler"
	"github.com/aerogenv/aero-club-api/auth"
	"github.com/aerogenv/aero-club-api/config"
	"github.com/aerogenv/aero-club-api/databases"
	"github.com/aerogenv/aero-club-api/email"
	"github.com/aerogenv/aero-club-api/models"
	"github.com/aerogenv/aero-club-api/sheets"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	dbHelper  databases.DatabaseHelper
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() (*mux.Router, error) {
	tokens, err := auth.NewTokenService(a.Config.JWTSecret, a.Config.AccessTokenTTL, a.Config.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	service := auth.NewService(
		databases.NewUserDatabase(a.dbHelper),
		databases.NewPendingUserDatabase(a.dbHelper),
		databases.NewPasscodeDatabase(a.dbHelper),
		email.New(a.Config.SendGridAPIKey, a.Config.FromEmail, a.Config.FromName),
		tokens,
		auth.NewGoogleVerifier(a.Config.GoogleClientID),
	)

	// setup go-guardian for middleware
	m := api.MiddlewareAuth{Tokens: tokens}
	m.SetupGoGuardian()

	sheetSvc := sheets.New(a.Config.SheetsCredentialsFile, a.Config.MembersSpreadsheetID, a.Config.FormsSpreadsheetID)

	authHandler := Auth{Service: service}
	form := Form{
		FDB:    databases.NewFormDatabase(a.dbHelper),
		EDB:    databases.NewFormEntryDatabase(a.dbHelper),
		DDB:    databases.NewFormDraftDatabase(a.dbHelper),
		UDB:    databases.NewUserDatabase(a.dbHelper),
		Sheets: sheetSvc,
	}
	board := Leaderboard{
		FDB:  databases.NewFormDatabase(a.dbHelper),
		EDB:  databases.NewFormEntryDatabase(a.dbHelper),
		Conf: &a.Config,
		Hub:  NewScoreHub(),
	}
	member := Member{Sheets: sheetSvc}
	uploadHandler := UploadHandler{}

	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/signup/initiate", http.HandlerFunc(authHandler.SignupInitiateHandler)).Methods("POST")
	apiCreate.Handle("/auth/signup/verify", http.HandlerFunc(authHandler.SignupVerifyHandler)).Methods("POST")
	apiCreate.Handle("/auth/signup/resend-otp", http.HandlerFunc(authHandler.ResendOTPHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(authHandler.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/refresh", http.HandlerFunc(authHandler.RefreshHandler)).Methods("POST")
	apiCreate.Handle("/auth/google", http.HandlerFunc(authHandler.GoogleAuthHandler)).Methods("POST")
	apiCreate.Handle("/auth/me", api.Middleware(http.HandlerFunc(authHandler.MeHandler))).Methods("GET")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(authHandler.LogoutHandler))).Methods("POST")
	apiCreate.Handle("/auth/forgot-password/initiate", http.HandlerFunc(authHandler.ForgotPasswordInitiateHandler)).Methods("POST")
	apiCreate.Handle("/auth/forgot-password/verify", http.HandlerFunc(authHandler.ForgotPasswordVerifyHandler)).Methods("POST")
	apiCreate.Handle("/auth/forgot-password/resend-otp", http.HandlerFunc(authHandler.ForgotPasswordResendHandler)).Methods("POST")

	apiCreate.Handle("/forms/{form_id}", http.HandlerFunc(form.FormHandler)).Methods("GET")
	apiCreate.Handle("/forms/{form_id}/check-submission", api.Middleware(http.HandlerFunc(form.CheckSubmissionHandler))).Methods("GET")
	apiCreate.Handle("/forms/{form_id}/submit", api.Middleware(http.HandlerFunc(form.SubmitFormHandler))).Methods("POST")
	apiCreate.Handle("/forms/{form_id}/draft", api.Middleware(http.HandlerFunc(form.GetDraftHandler))).Methods("GET")
	apiCreate.Handle("/forms/{form_id}/draft", api.Middleware(http.HandlerFunc(form.SaveDraftHandler))).Methods("POST")
	apiCreate.Handle("/forms/{form_id}/draft", api.Middleware(http.HandlerFunc(form.DeleteDraftHandler))).Methods("DELETE")

	apiCreate.Handle("/leaderboard/{form_id}", http.HandlerFunc(board.LeaderboardHandler)).Methods("GET")
	apiCreate.Handle("/leaderboard/{form_id}/admin", api.Middleware(http.HandlerFunc(board.AdminLeaderboardHandler))).Methods("GET")
	apiCreate.Handle("/leaderboard/{form_id}/entries/{entry_id}/score", api.Middleware(http.HandlerFunc(board.UpdateScoreHandler))).Methods("PUT")
	apiCreate.Handle("/forms-with-leaderboard", http.HandlerFunc(board.FormsWithLeaderboardHandler)).Methods("GET")

	apiCreate.Handle("/members", http.HandlerFunc(member.MembersHandler)).Methods("GET")
	apiCreate.Handle("/members/count", http.HandlerFunc(member.MembersCountHandler)).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(uploadHandler.GenerateSignature))).Methods("POST")

	r.HandleFunc("/ws/leaderboard/{form_id}", board.ScoreFeedHandler)

	return r, nil
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("aero-club-api has connected to the database")

	ctx, cancel := api.WithQueryTimeout(nil)
	defer cancel()
	if err := a.dbHelper.EnsureIndexes(ctx); err != nil {
		zap.S().With(err).Error("failed to ensure database indexes")
		return err
	}

	// initialize api router
	a.Router, err = a.New()
	if err != nil {
		return err
	}

	// background sweeps for expired passcodes and stale pending signups
	a.scheduler = scheduler.NewScheduler(
		databases.NewPasscodeDatabase(a.dbHelper),
		databases.NewPendingUserDatabase(a.dbHelper),
	)
	a.scheduler.Start()

	return nil

}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

// writeJSON marshals v and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}

// writeAuthError maps a classified auth error onto its HTTP status and a
// stable JSON message.
func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var authErr *auth.Error
	if errors.As(err, &authErr) {
		message = authErr.Message
		switch {
		case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, auth.ErrInvalidOrExpired):
			status = http.StatusBadRequest
		case errors.Is(err, auth.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, auth.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, auth.ErrUnauthorized):
			status = http.StatusUnauthorized
		}
	} else {
		zap.S().With(err).Error("internal error")
	}

	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
