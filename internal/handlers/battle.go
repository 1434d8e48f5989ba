package handlers

import (
	"net/http"

	"pokebattle-backend/internal/middleware"
	"pokebattle-backend/internal/models"
	"pokebattle-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// BattleHandler handles battle-related HTTP requests
type BattleHandler struct {
	battleService *services.BattleService
	wsHub         *services.WSHub
}

// NewBattleHandler creates a new battle handler
func NewBattleHandler(battleService *services.BattleService, wsHub *services.WSHub) *BattleHandler {
	return &BattleHandler{
		battleService: battleService,
		wsHub:         wsHub,
	}
}

// JoinBattleRequest represents the body of POST /api/battles/{id}/join
type JoinBattleRequest struct {
	TeamID string `json:"teamId"`
}

// MoveRequest represents the body of POST /api/battles/{id}/move
type MoveRequest struct {
	Move string `json:"move"`
}

// CreateBattle handles POST /api/battles/create
func (h *BattleHandler) CreateBattle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateBattleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	battle, err := h.battleService.CreateBattle(ctx, userID, req.OpponentID, req.MyTeamID)
	if err != nil {
		respondServiceError(w, err, "Failed to create battle")
		return
	}

	h.wsHub.BroadcastBattle(battle)
	respondJSON(w, http.StatusOK, battle)
}

// ListBattles handles GET /api/battles
func (h *BattleHandler) ListBattles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	battles, err := h.battleService.ListActive(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "Failed to list battles")
		return
	}
	respondJSON(w, http.StatusOK, battles)
}

// GetBattle handles GET /api/battles/{id}
func (h *BattleHandler) GetBattle(w http.ResponseWriter, r *http.Request) {
	battle, err := h.battleService.GetBattle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "Failed to get battle")
		return
	}
	if battle == nil {
		respondError(w, services.ErrBattleNotFound.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, battle)
}

// JoinBattle handles POST /api/battles/{id}/join
func (h *BattleHandler) JoinBattle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req JoinBattleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	battle, err := h.battleService.JoinBattle(ctx, chi.URLParam(r, "id"), userID, req.TeamID)
	h.respondBattle(w, battle, err, "Failed to join battle")
}

// Move handles POST /api/battles/{id}/move
func (h *BattleHandler) Move(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req MoveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	battle, err := h.battleService.Move(ctx, chi.URLParam(r, "id"), userID, req.Move)
	h.respondBattle(w, battle, err, "Failed to play move")
}

// Forfeit handles POST /api/battles/{id}/forfeit
func (h *BattleHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	battle, err := h.battleService.Forfeit(ctx, chi.URLParam(r, "id"), middleware.GetUserID(ctx))
	h.respondBattle(w, battle, err, "Failed to forfeit battle")
}

func (h *BattleHandler) respondBattle(w http.ResponseWriter, battle *models.Battle, err error, msg string) {
	if err != nil {
		log.Debug().Err(err).Msg(msg)
		respondServiceError(w, err, msg)
		return
	}
	h.wsHub.BroadcastBattle(battle)
	respondJSON(w, http.StatusOK, battle)
}
