package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/service"
	"github.com/entwine-app/entwine/internal/transport/rest/middleware"
)

// TTLHandler serves the Two-Truths-&-A-Lie gameplay endpoints.
type TTLHandler struct {
	svc *service.TTLService
}

func NewTTLHandler(svc *service.TTLService) *TTLHandler {
	return &TTLHandler{svc: svc}
}

func (h *TTLHandler) SubmitStatements(w http.ResponseWriter, r *http.Request) {
	const op = "TTLHandler.SubmitStatements"

	var body struct {
		Round      int      `json:"round"`
		Statements []string `json:"statements"`
		LieIndex   int      `json:"lieIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, op, "malformed body"))
		return
	}

	sess, err := h.svc.SubmitStatements(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()),
		body.Round, body.Statements, body.LieIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"sessionId": sess.ID,
		"status":    sess.Status,
		"round":     body.Round,
	})
}

func (h *TTLHandler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	const op = "TTLHandler.SubmitGuess"

	var body struct {
		Round      int `json:"round"`
		GuessIndex int `json:"guessIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, op, "malformed body"))
		return
	}

	sess, err := h.svc.SubmitGuess(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()),
		body.Round, body.GuessIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"sessionId": sess.ID,
		"status":    sess.Status,
		"round":     body.Round,
	})
}

func (h *TTLHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, view)
}
