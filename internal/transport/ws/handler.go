package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/cache"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/service"
	"github.com/entwine-app/entwine/internal/transport/rest/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inbound is the client→server message envelope. Live gameplay and
// lifecycle actions ride the socket; the same lifecycle operations exist
// over REST for clients without an open connection.
type inbound struct {
	Action      string              `json:"action"`
	GameType    string              `json:"gameType"`
	MatchID     string              `json:"matchId"`
	SessionID   string              `json:"sessionId"`
	Index       int                 `json:"questionIndex"`
	Answer      service.AnswerInput `json:"answer"`
	AudioURL    string              `json:"audioUrl"`
	DurationSec int                 `json:"duration"`
}

// Handler upgrades connections, maintains presence, and dispatches
// inbound messages to the engines and the session service.
type Handler struct {
	hub       *Hub
	secret    string
	engines   map[model.GameType]*service.SyncEngine
	presence  cache.PresenceCache
	sessions  *service.SessionService
	log       *logrus.Logger
	opTimeout time.Duration
}

func NewHandler(hub *Hub, secret string, engines []*service.SyncEngine, presence cache.PresenceCache, sessions *service.SessionService, log *logrus.Logger) *Handler {
	byType := make(map[model.GameType]*service.SyncEngine, len(engines))
	for _, e := range engines {
		byType[e.GameType()] = e
	}
	return &Handler{
		hub:       hub,
		secret:    secret,
		engines:   byType,
		presence:  presence,
		sessions:  sessions,
		log:       log,
		opTimeout: 10 * time.Second,
	}
}

// ServeHTTP authenticates via the token query parameter and hands the
// connection to the hub.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := middleware.ParseToken(h.secret, token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		userID:  userID,
		out:     make(chan []byte, 64),
		handler: h,
	}
	h.hub.register <- client

	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	if err := h.presence.SetOnline(ctx, userID); err != nil {
		h.log.WithError(err).Warn("presence write failed")
	}
	h.sessions.NotifyPresence(ctx, userID, true)
	cancel()

	go client.writePump()
	go client.readPump()
}

func (h *Handler) onDisconnect(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	defer cancel()
	if err := h.presence.SetOffline(ctx, userID); err != nil {
		h.log.WithError(err).Warn("presence clear failed")
	}
	h.sessions.NotifyPresence(ctx, userID, false)
}

func (h *Handler) onHeartbeat(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	defer cancel()
	if err := h.presence.Refresh(ctx, userID); err != nil {
		h.log.WithError(err).Warn("presence refresh failed")
	}
}

func (h *Handler) dispatch(c *Client, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.replyError(c, "", apperr.New(apperr.CodeValidation, "ws.dispatch", "malformed message"))
		return
	}

	gt, ok := model.ParseGameType(msg.GameType)
	if !ok {
		h.replyError(c, msg.SessionID, apperr.New(apperr.CodeValidation, "ws.dispatch", "unknown game type"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	defer cancel()

	switch msg.Action {
	case "invite":
		if _, err := h.sessions.CreateInvitation(ctx, gt, c.userID, msg.MatchID); err != nil {
			h.replyError(c, msg.SessionID, err)
		}
	case "accept":
		if _, err := h.sessions.Accept(ctx, gt, msg.SessionID, c.userID); err != nil {
			h.replyError(c, msg.SessionID, err)
		}
	case "decline":
		if _, err := h.sessions.Decline(ctx, gt, msg.SessionID, c.userID); err != nil {
			h.replyError(c, msg.SessionID, err)
		}
	case "voice_note":
		if _, err := h.sessions.AppendVoiceNote(ctx, gt, msg.SessionID, c.userID, msg.AudioURL, msg.DurationSec, nil); err != nil {
			h.replyError(c, msg.SessionID, err)
		}
	case "answer":
		engine, ok := h.engines[gt]
		if !ok {
			h.replyError(c, msg.SessionID, apperr.New(apperr.CodeValidation, "ws.dispatch", "game type is not played over the socket"))
			return
		}
		if _, err := engine.RecordAnswer(ctx, msg.SessionID, c.userID, msg.Index, msg.Answer); err != nil {
			h.replyError(c, msg.SessionID, err)
		}
	case "reconnect", "resume":
		engine, ok := h.engines[gt]
		if !ok {
			h.replyError(c, msg.SessionID, apperr.New(apperr.CodeValidation, "ws.dispatch", "game type is not played over the socket"))
			return
		}
		state, err := engine.Resume(ctx, msg.SessionID, c.userID)
		if err != nil {
			h.replyError(c, msg.SessionID, err)
			return
		}
		h.hub.EmitToUser(c.userID, gt.Namespace()+":resume", state)
	default:
		h.replyError(c, msg.SessionID, apperr.New(apperr.CodeValidation, "ws.dispatch", "unknown action"))
	}
}

func (h *Handler) replyError(c *Client, sessionID string, err error) {
	h.hub.EmitToUser(c.userID, "error", map[string]interface{}{
		"sessionId": sessionID,
		"code":      apperr.CodeOf(err),
		"message":   apperr.SafeMessage(err),
	})
}
