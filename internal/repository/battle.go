package repository

import (
	"context"
	"fmt"

	"pokebattle-backend/internal/models"
	"pokebattle-backend/internal/store"
)

// BattleRepository handles persistence for battles
type BattleRepository struct {
	store *store.Store
}

// NewBattleRepository creates a new battle repository
func NewBattleRepository(s *store.Store) *BattleRepository {
	return &BattleRepository{store: s}
}

// Create appends a new battle
func (r *BattleRepository) Create(ctx context.Context, battle *models.Battle) error {
	rec, err := toRecord(battle)
	if err != nil {
		return err
	}
	if _, err := r.store.Add(ctx, battlesCollection, rec); err != nil {
		return fmt.Errorf("failed to create battle: %w", err)
	}
	return nil
}

// GetByID retrieves a battle by ID. Returns nil when absent.
func (r *BattleRepository) GetByID(ctx context.Context, id string) (*models.Battle, error) {
	rec, err := r.store.FindOne(ctx, battlesCollection, store.FieldEquals("id", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}
	return fromRecord[models.Battle](rec)
}

// ListActiveByUser returns unfinished battles the user takes part in, in creation order
func (r *BattleRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.Battle, error) {
	isPlayer1 := store.FieldEquals("player1", userID)
	isPlayer2 := store.FieldEquals("player2", userID)
	finished := store.FieldEquals("status", string(models.StatusFinished))

	recs, err := r.store.Filter(ctx, battlesCollection, func(rec store.Record) bool {
		return (isPlayer1(rec) || isPlayer2(rec)) && !finished(rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}
	return fromRecords[models.Battle](recs)
}

// Update applies fn to the stored battle while the battles collection is locked.
// An error from fn leaves the battle untouched. Returns nil when the battle does not exist.
func (r *BattleRepository) Update(ctx context.Context, id string, fn func(*models.Battle) error) (*models.Battle, error) {
	rec, err := r.store.UpdateFunc(ctx, battlesCollection, store.FieldEquals("id", id), func(cur store.Record) (store.Record, error) {
		battle, err := fromRecord[models.Battle](cur)
		if err != nil {
			return nil, err
		}
		if err := fn(battle); err != nil {
			return nil, err
		}
		return toRecord(battle)
	})
	if err != nil {
		return nil, err
	}
	return fromRecord[models.Battle](rec)
}
