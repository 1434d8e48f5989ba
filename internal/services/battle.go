package services

import (
	"context"
	"fmt"
	"time"

	"pokebattle-backend/internal/models"
	"pokebattle-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const defaultMove = "Attack"

// Notifier tells a user that a battle is waiting on them.
type Notifier interface {
	Notify(ctx context.Context, userID, battleID, message string) error
}

// BattleService runs the battle lifecycle over the battles collection.
//
// A battle starts in waiting_for_opponent with the creator holding the turn, becomes
// active once the designated opponent joins, and alternates turns on every move.
// Forfeit is the only path to finished.
type BattleService struct {
	battleRepo *repository.BattleRepository
	userRepo   *repository.UserRepository
	notifier   Notifier
	now        func() time.Time
}

// NewBattleService creates a new battle service. notifier may be nil.
func NewBattleService(battleRepo *repository.BattleRepository, userRepo *repository.UserRepository, notifier Notifier) *BattleService {
	return &BattleService{
		battleRepo: battleRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		now:        time.Now,
	}
}

// CreateBattleRequest represents a request to challenge another user
type CreateBattleRequest struct {
	OpponentID string `json:"opponentId"`
	MyTeamID   string `json:"myTeamId"`
}

// CreateBattle opens a battle against opponentID with a snapshot of the requester's team.
// The opponent is not checked, and an unknown team id leaves player1Team empty.
func (s *BattleService) CreateBattle(ctx context.Context, requesterID, opponentID, teamID string) (*models.Battle, error) {
	if opponentID == "" || opponentID == requesterID {
		return nil, fmt.Errorf("%w: opponentId must name another user", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	battle := &models.Battle{
		ID:          NewID(),
		Player1:     requesterID,
		Player2:     opponentID,
		Player1Team: user.FindTeam(teamID),
		Player2Team: nil,
		Status:      models.StatusWaitingForOpponent,
		Turn:        requesterID,
		Logs:        []string{fmt.Sprintf("Battle created by %s", user.Name)},
		LastUpdate:  s.now().UnixMilli(),
	}

	if err := s.battleRepo.Create(ctx, battle); err != nil {
		return nil, err
	}

	log.Info().
		Str("battle_id", battle.ID).
		Str("player1", requesterID).
		Str("player2", opponentID).
		Msg("Battle created")

	s.notify(ctx, opponentID, battle.ID, fmt.Sprintf("%s challenged you to a battle", user.Name))

	return battle, nil
}

// JoinBattle lets the designated opponent accept the battle with one of their teams.
// The turn stays with the creator.
func (s *BattleService) JoinBattle(ctx context.Context, battleID, joinerID, teamID string) (*models.Battle, error) {
	battle, err := s.battleRepo.GetByID(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if battle == nil {
		return nil, ErrBattleNotFound
	}
	if battle.Player2 != joinerID {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, joinerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	team := user.FindTeam(teamID)
	if team == nil {
		return nil, ErrTeamNotFound
	}

	updated, err := s.battleRepo.Update(ctx, battleID, func(b *models.Battle) error {
		if b.Status != models.StatusWaitingForOpponent {
			return ErrInvalidTransition
		}
		b.Player2Team = team
		b.Status = models.StatusActive
		b.Logs = append(b.Logs, fmt.Sprintf("%s joined the battle!", user.Name))
		b.LastUpdate = s.now().UnixMilli()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrBattleNotFound
	}

	log.Info().
		Str("battle_id", battleID).
		Str("user_id", joinerID).
		Msg("Battle joined")

	s.notify(ctx, updated.Turn, battleID, fmt.Sprintf("%s accepted your challenge. Your move!", user.Name))

	return updated, nil
}

// Move records a move by the player holding the turn and passes the turn to the other
// player. Nothing about the move is simulated. Moves are accepted before the opponent
// has joined; only finished battles refuse them.
func (s *BattleService) Move(ctx context.Context, battleID, requesterID, move string) (*models.Battle, error) {
	if move == "" {
		move = defaultMove
	}

	updated, err := s.battleRepo.Update(ctx, battleID, func(b *models.Battle) error {
		if b.Status == models.StatusFinished {
			return ErrBattleFinished
		}
		if b.Turn != requesterID {
			return ErrOutOfTurn
		}
		b.Logs = append(b.Logs, fmt.Sprintf("Player %s used %s!", requesterID, move))
		b.Turn = b.Opponent(requesterID)
		b.LastUpdate = s.now().UnixMilli()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrBattleNotFound
	}

	log.Debug().
		Str("battle_id", battleID).
		Str("user_id", requesterID).
		Str("move", move).
		Msg("Move played")

	s.notify(ctx, updated.Turn, battleID, "It's your turn!")

	return updated, nil
}

// Forfeit ends the battle with the other participant as winner.
func (s *BattleService) Forfeit(ctx context.Context, battleID, userID string) (*models.Battle, error) {
	updated, err := s.battleRepo.Update(ctx, battleID, func(b *models.Battle) error {
		if !b.IsParticipant(userID) {
			return ErrForbidden
		}
		if b.Status == models.StatusFinished {
			return ErrBattleFinished
		}
		b.Status = models.StatusFinished
		b.Winner = b.Opponent(userID)
		b.Logs = append(b.Logs, fmt.Sprintf("Player %s forfeited!", userID))
		b.LastUpdate = s.now().UnixMilli()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrBattleNotFound
	}

	log.Info().
		Str("battle_id", battleID).
		Str("user_id", userID).
		Str("winner", updated.Winner).
		Msg("Battle forfeited")

	s.notify(ctx, updated.Winner, battleID, "Your opponent forfeited. You win!")

	return updated, nil
}

// GetBattle returns the battle, or nil when it does not exist
func (s *BattleService) GetBattle(ctx context.Context, battleID string) (*models.Battle, error) {
	return s.battleRepo.GetByID(ctx, battleID)
}

// ListActive returns unfinished battles userID takes part in
func (s *BattleService) ListActive(ctx context.Context, userID string) ([]*models.Battle, error) {
	return s.battleRepo.ListActiveByUser(ctx, userID)
}

func (s *BattleService) notify(ctx context.Context, userID, battleID, message string) {
	if s.notifier == nil || userID == "" {
		return
	}
	if err := s.notifier.Notify(ctx, userID, battleID, message); err != nil {
		log.Warn().
			Err(err).
			Str("user_id", userID).
			Str("battle_id", battleID).
			Msg("Failed to send battle notification")
	}
}
