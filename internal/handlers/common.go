package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pokebattle-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends v as a JSON body
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeBody decodes a JSON request body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// respondServiceError maps a service error to a status code and writes it.
// Unexpected errors are logged and hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, err error, msg string) {
	statusCode := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrBattleNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrInvalidPassword):
		statusCode = http.StatusForbidden
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrSelfFriend),
		errors.Is(err, services.ErrAlreadyFriends),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrOutOfTurn):
		statusCode = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrBattleFinished):
		statusCode = http.StatusConflict
	}

	if statusCode == http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
		respondError(w, "Internal server error", statusCode)
		return
	}
	respondError(w, err.Error(), statusCode)
}
