package handlers

import (
	"errors"
	"net/http"

	"pokebattle-backend/internal/middleware"
	"pokebattle-backend/internal/models"
	"pokebattle-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles account, favorites and team requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CredentialsRequest represents the body of register and login
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register handles POST /api/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(w, err, "Failed to register user")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// Login handles POST /api/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// Unknown email is a bad request, not a missing resource
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondServiceError(w, err, "Failed to log in")
		return
	}

	log.Info().Str("user_id", res.User.ID).Msg("User logged in")

	respondJSON(w, http.StatusOK, res)
}

// Me handles GET /api/auth/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "Failed to get user")
		return
	}
	respondJSON(w, http.StatusOK, user.Profile())
}

// GetFavorites handles GET /api/user/favorites
func (h *UserHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "Failed to get favorites")
		return
	}
	respondJSON(w, http.StatusOK, user.Profile().Favorites)
}

// ToggleFavoriteRequest represents the body of POST /api/user/favorites
type ToggleFavoriteRequest struct {
	PokemonID string `json:"pokemonId"`
}

// ToggleFavorite handles POST /api/user/favorites
func (h *UserHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req ToggleFavoriteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	favorites, err := h.userService.ToggleFavorite(r.Context(), middleware.GetUserID(r.Context()), req.PokemonID)
	if err != nil {
		respondServiceError(w, err, "Failed to toggle favorite")
		return
	}
	respondJSON(w, http.StatusOK, favorites)
}

// GetTeams handles GET /api/user/teams
func (h *UserHandler) GetTeams(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "Failed to get teams")
		return
	}
	respondJSON(w, http.StatusOK, user.TeamsOrEmpty())
}

// SaveTeamRequest represents the body of POST /api/user/teams
type SaveTeamRequest struct {
	Team *models.Team `json:"team"`
}

// SaveTeam handles POST /api/user/teams
func (h *UserHandler) SaveTeam(w http.ResponseWriter, r *http.Request) {
	var req SaveTeamRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Team == nil {
		respondError(w, "team is required", http.StatusBadRequest)
		return
	}

	teams, err := h.userService.SaveTeam(r.Context(), middleware.GetUserID(r.Context()), *req.Team)
	if err != nil {
		respondServiceError(w, err, "Failed to save team")
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

// DeleteTeam handles DELETE /api/user/teams/{teamId}
func (h *UserHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	teams, err := h.userService.DeleteTeam(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "teamId"))
	if err != nil {
		respondServiceError(w, err, "Failed to delete team")
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

// PushTokenRequest represents the body of PUT /api/user/push-token
type PushTokenRequest struct {
	PushToken string `json:"pushToken"`
}

// UpdatePushToken handles PUT /api/user/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	var req PushTokenRequest
	if err := decodeBody(r, &req); err != nil || req.PushToken == "" {
		respondError(w, "pushToken is required", http.StatusBadRequest)
		return
	}

	if err := h.userService.UpdatePushToken(r.Context(), middleware.GetUserID(r.Context()), req.PushToken); err != nil {
		respondServiceError(w, err, "Failed to update push token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
