package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/cache"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/service"
	"github.com/entwine-app/entwine/internal/storage"
	"github.com/entwine-app/entwine/internal/transport/rest/middleware"
)

// SessionHandler serves the lifecycle endpoints shared by all six games:
// invitations, accept/decline/abandon, reads, history, and voice notes.
type SessionHandler struct {
	sessions *service.SessionService
	matches  *service.MatchService
	presence cache.PresenceCache
	uploader storage.Uploader
}

func NewSessionHandler(sessions *service.SessionService, matches *service.MatchService, presence cache.PresenceCache, uploader storage.Uploader) *SessionHandler {
	return &SessionHandler{sessions: sessions, matches: matches, presence: presence, uploader: uploader}
}

func pathGameType(r *http.Request) (model.GameType, error) {
	gt, ok := model.ParseGameType(mux.Vars(r)["gameType"])
	if !ok {
		return "", apperr.New(apperr.CodeValidation, "rest.pathGameType", "unknown game type")
	}
	return gt, nil
}

func (h *SessionHandler) Invite(w http.ResponseWriter, r *http.Request) {
	gt, err := pathGameType(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		MatchID string `json:"matchId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.MatchID == "" {
		writeError(w, apperr.New(apperr.CodeValidation, "SessionHandler.Invite", "matchId is required"))
		return
	}

	sess, err := h.sessions.CreateInvitation(r.Context(), gt, middleware.UserID(r.Context()), body.MatchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, sess)
}

func (h *SessionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sessions.Accept)
}

func (h *SessionHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sessions.Decline)
}

func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sessions.Abandon)
}

type transitionFn func(ctx context.Context, gt model.GameType, sessionID, callerID string) (*model.Session, error)

func (h *SessionHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFn) {
	gt, err := pathGameType(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := fn(r.Context(), gt, mux.Vars(r)["sessionId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, sess)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	gt, err := pathGameType(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.sessions.Get(r.Context(), gt, mux.Vars(r)["sessionId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, sess)
}

// Results returns only the scored outcome of a finished session.
func (h *SessionHandler) Results(w http.ResponseWriter, r *http.Request) {
	gt, err := pathGameType(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.sessions.Get(r.Context(), gt, mux.Vars(r)["sessionId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if sess.Results == nil {
		writeError(w, apperr.New(apperr.CodeConflict, "SessionHandler.Results", "session has no results yet"))
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"sessionId":    sess.ID,
		"status":       sess.Status,
		"results":      sess.Results,
		"insightError": sess.InsightError,
	})
}

func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	gt, err := pathGameType(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	sessions, err := h.sessions.History(r.Context(), gt, middleware.UserID(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, sessions)
}

// AddVoiceNote accepts a multipart upload with an "audio" part and an
// optional relatedQuestion field.
func (h *SessionHandler) AddVoiceNote(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.AddVoiceNote"

	gt, err := pathGameType(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sessionID := mux.Vars(r)["sessionId"]
	callerID := middleware.UserID(r.Context())

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

	contentType := header.Header.Get("Content-Type")
	durationSec, _ := strconv.Atoi(r.FormValue("durationSec"))

	var related *int
	if v := r.FormValue("relatedQuestion"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			related = &n
		}
	}

	// Reject over-cap or wrong-state requests before paying for the
	// upload, so a refused note leaves no orphan blob behind.
	if err := h.sessions.PrecheckVoiceNote(r.Context(), gt, sessionID, callerID, durationSec); err != nil {
		writeError(w, err)
		return
	}

	objectName := fmt.Sprintf("notes/%s/%s/%s-%d", gt.Namespace(), sessionID, callerID, time.Now().UnixNano())
	url, err := h.uploader.Upload(r.Context(), objectName, contentType, file)
	if err != nil {
		writeError(w, apperr.E(apperr.CodeDependency, op, "audio upload failed", err))
		return
	}

	sess, err := h.sessions.AppendVoiceNote(r.Context(), gt, sessionID, callerID, url, durationSec, related)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, sess.VoiceNotes)
}

func (h *SessionHandler) MarkListened(w http.ResponseWriter, r *http.Request) {
	gt, err := pathGameType(r)
	if err != nil {
		writeError(w, err)
		return
	}
	noteIndex, err := strconv.Atoi(mux.Vars(r)["noteIndex"])
	if err != nil {
		writeError(w, apperr.New(apperr.CodeValidation, "SessionHandler.MarkListened", "invalid note index"))
		return
	}
	if err := h.sessions.MarkListened(r.Context(), gt, mux.Vars(r)["sessionId"], middleware.UserID(r.Context()), noteIndex); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"listened": true})
}

// PartnerPresence reports whether the caller's partner holds a live
// socket.
func (h *SessionHandler) PartnerPresence(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.PartnerPresence"

	couple, err := h.matches.Resolve(r.Context(), mux.Vars(r)["matchId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	online, err := h.presence.IsOnline(r.Context(), couple.Partner(middleware.UserID(r.Context())))
	if err != nil {
		writeError(w, apperr.E(apperr.CodeDependency, op, "presence lookup failed", err))
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"partnerOnline": online})
}
