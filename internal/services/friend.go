package services

import (
	"context"
	"errors"
	"slices"

	"pokebattle-backend/internal/models"
	"pokebattle-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// FriendService manages the symmetric friend lists stored on users
type FriendService struct {
	userRepo *repository.UserRepository
}

// NewFriendService creates a new friend service
func NewFriendService(userRepo *repository.UserRepository) *FriendService {
	return &FriendService{userRepo: userRepo}
}

// AddFriend links userID and the owner of friendCode in both directions
func (s *FriendService) AddFriend(ctx context.Context, userID, friendCode string) (*models.Friend, error) {
	friend, err := s.userRepo.GetByFriendCode(ctx, friendCode)
	if err != nil {
		return nil, err
	}
	if friend == nil {
		return nil, ErrUserNotFound
	}
	if friend.ID == userID {
		return nil, ErrSelfFriend
	}

	err = s.userRepo.UpdatePair(ctx, userID, friend.ID, func(user, other *models.User) error {
		if slices.Contains(user.Friends, other.ID) {
			return ErrAlreadyFriends
		}
		user.Friends = append(user.Friends, other.ID)
		if !slices.Contains(other.Friends, user.ID) {
			other.Friends = append(other.Friends, user.ID)
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("friend_id", friend.ID).
		Msg("Friend added")

	return &models.Friend{ID: friend.ID, Name: friend.Name}, nil
}

// ListFriends returns the public view of every friend that still exists
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	users, err := s.userRepo.GetMany(ctx, user.Friends)
	if err != nil {
		return nil, err
	}

	friends := make([]models.Friend, 0, len(users))
	for _, u := range users {
		friends = append(friends, models.Friend{ID: u.ID, Name: u.Name, FriendCode: u.FriendCode})
	}
	return friends, nil
}
