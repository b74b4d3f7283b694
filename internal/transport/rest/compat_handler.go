package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/service"
	"github.com/entwine-app/entwine/internal/transport/rest/middleware"
)

// CompatHandler serves the cross-game compatibility endpoints.
type CompatHandler struct {
	agg *service.Aggregator
}

func NewCompatHandler(agg *service.Aggregator) *CompatHandler {
	return &CompatHandler{agg: agg}
}

func (h *CompatHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.agg.GetDashboard(r.Context(), mux.Vars(r)["matchId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

func (h *CompatHandler) Generate(w http.ResponseWriter, r *http.Request) {
	profile, err := h.agg.Generate(r.Context(), mux.Vars(r)["matchId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, profile)
}

func (h *CompatHandler) QuickStatus(w http.ResponseWriter, r *http.Request) {
	d, err := h.agg.QuickStatus(r.Context(), mux.Vars(r)["matchId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

func (h *CompatHandler) GameHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.agg.GameHistory(r.Context(), mux.Vars(r)["matchId"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (h *CompatHandler) GameDetails(w http.ResponseWriter, r *http.Request) {
	gt, ok := model.ParseGameType(mux.Vars(r)["gameType"])
	if !ok {
		writeError(w, apperr.New(apperr.CodeValidation, "CompatHandler.GameDetails", "unknown game type"))
		return
	}
	sess, err := h.agg.GameDetails(r.Context(), mux.Vars(r)["matchId"], middleware.UserID(r.Context()), gt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, sess)
}
