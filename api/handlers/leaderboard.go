package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/aerogenv/aero-club-api/api"
	"github.com/aerogenv/aero-club-api/config"
	"github.com/aerogenv/aero-club-api/databases"
	"github.com/aerogenv/aero-club-api/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ScoreHub tracks websocket subscribers per form so score updates can be
// pushed to open leaderboard pages
type ScoreHub struct {
	clients map[string]map[*websocket.Conn]bool
	mutex   sync.Mutex
}

// NewScoreHub creates an empty hub
func NewScoreHub() *ScoreHub {
	return &ScoreHub{clients: make(map[string]map[*websocket.Conn]bool)}
}

func (h *ScoreHub) register(formID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.clients[formID] == nil {
		h.clients[formID] = make(map[*websocket.Conn]bool)
	}
	h.clients[formID][conn] = true
}

func (h *ScoreHub) unregister(formID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients[formID], conn)
}

// Broadcast pushes a score event to every subscriber of the form
func (h *ScoreHub) Broadcast(formID string, event string, data interface{}) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients[formID] {
		err := conn.WriteJSON(map[string]interface{}{
			"event": event,
			"data":  data,
		})
		if err != nil {
			zap.S().Warnw("failed to push score event", "form", formID, "error", err)
			delete(h.clients[formID], conn)
			conn.Close()
		}
	}
}

// Leaderboard exported for testing purposes
type Leaderboard struct {
	FDB  databases.FormDatabase
	EDB  databases.FormEntryDatabase
	Conf *config.Config
	Hub  *ScoreHub
}

type leaderboardRow struct {
	ID          string            `json:"id"`
	UserName    string            `json:"user_name"`
	UserEmail   string            `json:"user_email"`
	Responses   map[string]string `json:"responses"`
	SubmittedAt string            `json:"submitted_at"`
	Score       *float64          `json:"score"`
	Rank        int               `json:"rank,omitempty"`
}

func entryRow(e models.FormEntry) leaderboardRow {
	return leaderboardRow{
		ID:          e.ID.Hex(),
		UserName:    e.UserName,
		UserEmail:   e.UserEmail,
		Responses:   e.Responses,
		SubmittedAt: e.SubmittedAt.UTC().Format(time.RFC3339),
		Score:       e.Score,
	}
}

type updateScoreRequest struct {
	Score float64 `json:"score"`
}

// LeaderboardHandler returns the public leaderboard for a form: scored
// entries only, ranked by score descending
func (l Leaderboard) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	form, err := l.FDB.FindOne(ctx, bson.M{"id": formID})
	if err != nil {
		config.ErrorStatus("leaderboard not found", http.StatusNotFound, w, err)
		return
	}
	if !form.Leaderboard {
		config.ErrorStatus("leaderboard not enabled for this form", http.StatusBadRequest, w, errors.New("form does not publish a leaderboard"))
		return
	}

	entries, err := l.EDB.Find(ctx, bson.M{"form_id": formID, "score": bson.M{"$ne": nil}})
	if err != nil {
		config.ErrorStatus("failed to get leaderboard entries", http.StatusInternalServerError, w, err)
		return
	}

	rows := make([]leaderboardRow, 0, len(entries))
	for _, e := range entries {
		if e.Score == nil {
			continue
		}
		rows = append(rows, entryRow(e))
	}
	sort.SliceStable(rows, func(i, j int) bool { return *rows[i].Score > *rows[j].Score })
	for i := range rows {
		rows[i].Rank = i + 1
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"form_id":     formID,
		"form_name":   form.Name,
		"entries":     rows,
		"total_count": len(rows),
	})
}

// AdminLeaderboardHandler returns every entry for a form, scored or not.
// Restricted to configured admin emails.
func (l Leaderboard) AdminLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]

	authUser, ok := api.UserFromContext(r.Context())
	if !ok || !l.Conf.IsAdmin(authUser.Email) {
		config.ErrorStatus("admin access required", http.StatusForbidden, w, errors.New("not an admin"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	form, err := l.FDB.FindOne(ctx, bson.M{"id": formID})
	if err != nil {
		config.ErrorStatus("form not found", http.StatusNotFound, w, err)
		return
	}
	if !form.Leaderboard {
		config.ErrorStatus("leaderboard not enabled for this form", http.StatusBadRequest, w, errors.New("form does not publish a leaderboard"))
		return
	}

	entries, err := l.EDB.Find(ctx, bson.M{"form_id": formID})
	if err != nil {
		config.ErrorStatus("failed to get leaderboard entries", http.StatusInternalServerError, w, err)
		return
	}

	// newest submissions first, unscored included
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
	})
	rows := make([]leaderboardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, entryRow(e))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"form_id":     formID,
		"form_name":   form.Name,
		"questions":   form.Questions,
		"entries":     rows,
		"total_count": len(rows),
	})
}

// UpdateScoreHandler sets the score on an entry and pushes the update to
// websocket subscribers. Restricted to configured admin emails.
func (l Leaderboard) UpdateScoreHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]
	entryID := mux.Vars(r)["entry_id"]

	authUser, ok := api.UserFromContext(r.Context())
	if !ok || !l.Conf.IsAdmin(authUser.Email) {
		config.ErrorStatus("admin access required", http.StatusForbidden, w, errors.New("not an admin"))
		return
	}

	var req updateScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	eID, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := l.EDB.UpdateOne(ctx,
		bson.M{"_id": eID, "form_id": formID},
		bson.M{"$set": bson.M{"score": req.Score}},
	)
	if err != nil {
		config.ErrorStatus("failed to update score", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("entry not found", http.StatusNotFound, w, errors.New("no entry matched"))
		return
	}

	if l.Hub != nil {
		l.Hub.Broadcast(formID, "score_updated", map[string]interface{}{
			"entry_id": entryID,
			"score":    req.Score,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "score updated successfully",
		"entry_id": entryID,
		"score":    req.Score,
	})
}

// FormsWithLeaderboardHandler lists the forms that publish a leaderboard
func (l Leaderboard) FormsWithLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	forms, err := l.FDB.Find(ctx, bson.M{"leaderboard": true})
	if err != nil {
		config.ErrorStatus("failed to get forms", http.StatusInternalServerError, w, err)
		return
	}

	type formSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
	summaries := make([]formSummary, 0, len(forms))
	for _, f := range forms {
		summaries = append(summaries, formSummary{ID: f.FormID, Name: f.Name, Type: f.Type})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"forms": summaries,
		"count": len(summaries),
	})
}

// ScoreFeedHandler subscribes a websocket client to live score updates for
// a form
func (l Leaderboard) ScoreFeedHandler(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["form_id"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "error", err)
		return
	}

	l.Hub.register(formID, conn)
	zap.S().Debugw("client subscribed to score feed", "form", formID)

	conn.SetCloseHandler(func(code int, text string) error {
		l.Hub.unregister(formID, conn)
		return nil
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			l.Hub.unregister(formID, conn)
			conn.Close()
			break
		}
	}
}
