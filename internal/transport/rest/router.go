package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/entwine-app/entwine/internal/transport/rest/middleware"
)

// Deps carries the handlers the router mounts.
type Deps struct {
	Sessions *SessionHandler
	TTL      *TTLHandler
	WWYD     *WWYDHandler
	Board    *BoardHandler
	Compat   *CompatHandler

	WS http.Handler

	JWTSecret string
}

// NewRouter mounts the full HTTP surface: /health, /ws, and the
// authenticated /v1 API.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if d.WS != nil {
		r.Handle("/ws", d.WS)
	}

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(middleware.Auth(d.JWTSecret))

	// Shared session lifecycle, one surface for all six games.
	api.HandleFunc("/games/{gameType}/invite", d.Sessions.Invite).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameType}/sessions", d.Sessions.History).Methods(http.MethodGet)
	api.HandleFunc("/games/{gameType}/sessions/{sessionId}", d.Sessions.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{gameType}/sessions/{sessionId}/results", d.Sessions.Results).Methods(http.MethodGet)
	api.HandleFunc("/games/{gameType}/sessions/{sessionId}/accept", d.Sessions.Accept).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameType}/sessions/{sessionId}/decline", d.Sessions.Decline).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameType}/sessions/{sessionId}/abandon", d.Sessions.Abandon).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameType}/sessions/{sessionId}/voice-notes", d.Sessions.AddVoiceNote).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameType}/sessions/{sessionId}/voice-notes/{noteIndex}/listened", d.Sessions.MarkListened).Methods(http.MethodPost)

	// Two-Truths-&-A-Lie
	api.HandleFunc("/ttl/sessions/{sessionId}/statements", d.TTL.SubmitStatements).Methods(http.MethodPost)
	api.HandleFunc("/ttl/sessions/{sessionId}/guess", d.TTL.SubmitGuess).Methods(http.MethodPost)
	api.HandleFunc("/ttl/sessions/{sessionId}/view", d.TTL.View).Methods(http.MethodGet)

	// What-Would-You-Do
	api.HandleFunc("/wwyd/sessions/{sessionId}/responses", d.WWYD.SubmitResponse).Methods(http.MethodPost)
	api.HandleFunc("/wwyd/sessions/{sessionId}/retry-transcription", d.WWYD.RetryTranscription).Methods(http.MethodPost)
	api.HandleFunc("/wwyd/sessions/{sessionId}/view", d.WWYD.View).Methods(http.MethodGet)

	// Dream-Board
	api.HandleFunc("/board/sessions/{sessionId}/selections", d.Board.SubmitSelection).Methods(http.MethodPost)
	api.HandleFunc("/board/sessions/{sessionId}/elaborations", d.Board.AddElaboration).Methods(http.MethodPost)
	api.HandleFunc("/board/sessions/{sessionId}/elaborations/{categoryNumber}", d.Board.DeleteElaboration).Methods(http.MethodDelete)
	api.HandleFunc("/board/sessions/{sessionId}/retry-transcription", d.Board.RetryTranscription).Methods(http.MethodPost)
	api.HandleFunc("/board/sessions/{sessionId}/view", d.Board.View).Methods(http.MethodGet)

	// Compatibility aggregator
	api.HandleFunc("/matches/{matchId}/compatibility", d.Compat.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/matches/{matchId}/compatibility/generate", d.Compat.Generate).Methods(http.MethodPost)
	api.HandleFunc("/matches/{matchId}/compatibility/status", d.Compat.QuickStatus).Methods(http.MethodGet)
	api.HandleFunc("/matches/{matchId}/games", d.Compat.GameHistory).Methods(http.MethodGet)
	api.HandleFunc("/matches/{matchId}/games/{gameType}", d.Compat.GameDetails).Methods(http.MethodGet)
	api.HandleFunc("/matches/{matchId}/presence", d.Sessions.PartnerPresence).Methods(http.MethodGet)

	return r
}
