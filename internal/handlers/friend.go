package handlers

import (
	"net/http"

	"pokebattle-backend/internal/middleware"
	"pokebattle-backend/internal/models"
	"pokebattle-backend/internal/services"
)

// FriendHandler handles friend list requests
type FriendHandler struct {
	friendService *services.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// AddFriendRequest represents the body of POST /api/friends/add
type AddFriendRequest struct {
	FriendCode string `json:"friendCode"`
}

// AddFriendResponse is returned after a friend is added
type AddFriendResponse struct {
	Message string         `json:"message"`
	Friend  *models.Friend `json:"friend"`
}

// AddFriend handles POST /api/friends/add
func (h *FriendHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	var req AddFriendRequest
	if err := decodeBody(r, &req); err != nil || req.FriendCode == "" {
		respondError(w, "friendCode is required", http.StatusBadRequest)
		return
	}

	friend, err := h.friendService.AddFriend(r.Context(), middleware.GetUserID(r.Context()), req.FriendCode)
	if err != nil {
		respondServiceError(w, err, "Failed to add friend")
		return
	}

	respondJSON(w, http.StatusOK, AddFriendResponse{Message: "Friend added", Friend: friend})
}

// ListFriends handles GET /api/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.friendService.ListFriends(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "Failed to list friends")
		return
	}
	respondJSON(w, http.StatusOK, friends)
}
