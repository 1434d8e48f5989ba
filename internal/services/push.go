package services

import (
	"context"
	"fmt"

	"pokebattle-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// apnsClient is the part of *apns2.Client the push service uses
type apnsClient interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// PushService delivers battle notifications to iOS devices through APNs
type PushService struct {
	client   apnsClient
	topic    string
	userRepo *repository.UserRepository
}

// NewPushService creates an APNs client using token-based authentication
func NewPushService(userRepo *repository.UserRepository, keyPath, keyID, teamID, topic string, production bool) (*PushService, error) {
	authKey, err := token.AuthKeyFromFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	})
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &PushService{
		client:   client,
		topic:    topic,
		userRepo: userRepo,
	}, nil
}

// Notify sends message to the user's device. Users without a push token are skipped.
func (s *PushService) Notify(ctx context.Context, userID, battleID, message string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.PushToken == nil || *user.PushToken == "" {
		return nil
	}

	notification := &apns2.Notification{
		DeviceToken: *user.PushToken,
		Topic:       s.topic,
		Payload: payload.NewPayload().
			Alert(message).
			Sound("default").
			Custom("battle_id", battleID),
	}

	res, err := s.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push notification rejected: %d %s", res.StatusCode, res.Reason)
	}

	log.Debug().
		Str("user_id", userID).
		Str("battle_id", battleID).
		Str("apns_id", res.ApnsID).
		Msg("Push notification sent")

	return nil
}
