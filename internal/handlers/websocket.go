package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pokebattle-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub           *services.WSHub
	userService   *services.UserService
	battleService *services.BattleService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	battleService *services.BattleService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		userService:   userService,
		battleService: battleService,
	}
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := r.Context()

	battles, err := h.battleService.ListActive(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list active battles")
	} else if err := h.hub.SendToUser(userID, services.WSMessage{Type: "active_battles", Data: battles}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send active_battles message")
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(userID, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	switch msg.Type {
	case "move":
		return h.handleMove(ctx, userID, msg)
	default:
		return errors.New("unknown message type")
	}
}

// handleMove plays a move the same way POST /api/battles/{id}/move does
func (h *WebSocketHandler) handleMove(ctx context.Context, userID string, msg services.WSMessage) error {
	if msg.BattleID == "" {
		return errors.New("battle_id is required")
	}

	battle, err := h.battleService.Move(ctx, msg.BattleID, userID, msg.Move)
	if err != nil {
		return err
	}

	h.hub.BroadcastBattle(battle)
	return nil
}

// sendError sends an error message to a user
func (h *WebSocketHandler) sendError(userID, message string) {
	msg := services.WSMessage{
		Type:    "error",
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send error message")
	}
}
