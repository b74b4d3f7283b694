package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/service"
	"github.com/entwine-app/entwine/internal/storage"
	"github.com/entwine-app/entwine/internal/transport/rest/middleware"
)

// BoardHandler serves the Dream-Board gameplay endpoints.
type BoardHandler struct {
	svc *service.BoardService
}

func NewBoardHandler(svc *service.BoardService) *BoardHandler {
	return &BoardHandler{svc: svc}
}

func (h *BoardHandler) SubmitSelection(w http.ResponseWriter, r *http.Request) {
	const op = "BoardHandler.SubmitSelection"

	var body struct {
		CategoryNumber int    `json:"categoryNumber"`
		CardID         string `json:"cardId"`
		Priority       string `json:"priority"`
		Timeline       string `json:"timeline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, op, "malformed body"))
		return
	}

	sess, err := h.svc.SubmitSelection(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()),
		body.CategoryNumber, body.CardID, model.Priority(body.Priority), model.Timeline(body.Timeline))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"sessionId":      sess.ID,
		"status":         sess.Status,
		"categoryNumber": body.CategoryNumber,
	})
}

// AddElaboration accepts a multipart upload: "audio" part plus
// categoryNumber and durationSec fields.
func (h *BoardHandler) AddElaboration(w http.ResponseWriter, r *http.Request) {
	const op = "BoardHandler.AddElaboration"

	if err := r.ParseMultipartForm(storage.MaxUploadBytes); err != nil {
		writeError(w, apperr.New(apperr.CodeOversize, op, "upload too large or malformed"))
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, op, "audio part is required"))
		return
	}
	defer file.Close()

	categoryNumber, err := strconv.Atoi(r.FormValue("categoryNumber"))
	if err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, op, "categoryNumber is required"))
		return
	}
	durationSec, _ := strconv.Atoi(r.FormValue("durationSec"))

	sess, err := h.svc.AddElaboration(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()),
		categoryNumber, header.Header.Get("Content-Type"), file, durationSec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"sessionId":      sess.ID,
		"categoryNumber": categoryNumber,
	})
}

func (h *BoardHandler) DeleteElaboration(w http.ResponseWriter, r *http.Request) {
	const op = "BoardHandler.DeleteElaboration"

	categoryNumber, err := strconv.Atoi(mux.Vars(r)["categoryNumber"])
	if err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, op, "invalid category number"))
		return
	}
	if err := h.svc.DeleteElaboration(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()), categoryNumber); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *BoardHandler) RetryTranscription(w http.ResponseWriter, r *http.Request) {
	const op = "BoardHandler.RetryTranscription"

	var body struct {
		Slot           int `json:"slot"`
		CategoryNumber int `json:"categoryNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, op, "malformed body"))
		return
	}

	if err := h.svc.RetryTranscription(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()),
		body.Slot, body.CategoryNumber); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusAccepted, map[string]bool{"queued": true})
}

func (h *BoardHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, view)
}
