package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/service"
	"github.com/entwine-app/entwine/internal/storage"
	"github.com/entwine-app/entwine/internal/transport/rest/middleware"
)

// WWYDHandler serves the What-Would-You-Do gameplay endpoints.
type WWYDHandler struct {
	svc *service.WWYDService
}

func NewWWYDHandler(svc *service.WWYDService) *WWYDHandler {
	return &WWYDHandler{svc: svc}
}

// SubmitResponse accepts a multipart upload: "audio" part plus index and
// durationSec fields.
func (h *WWYDHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	const op = "WWYDHandler.SubmitResponse"

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

	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, op, "index is required"))
		return
	}
	durationSec, _ := strconv.Atoi(r.FormValue("durationSec"))

	sess, err := h.svc.SubmitResponse(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()),
		index, header.Header.Get("Content-Type"), file, durationSec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"sessionId": sess.ID,
		"status":    sess.Status,
		"index":     index,
	})
}

func (h *WWYDHandler) RetryTranscription(w http.ResponseWriter, r *http.Request) {
	const op = "WWYDHandler.RetryTranscription"

	var body struct {
		Slot  int `json:"slot"`
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, op, "malformed body"))
		return
	}

	if err := h.svc.RetryTranscription(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()),
		body.Slot, body.Index); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusAccepted, map[string]bool{"queued": true})
}

func (h *WWYDHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), mux.Vars(r)["sessionId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, view)
}
