package repository

import (
	"context"
	"errors"
	"fmt"

	"pokebattle-backend/internal/models"
	"pokebattle-backend/internal/store"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository handles persistence for users
type UserRepository struct {
	store *store.Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(s *store.Store) *UserRepository {
	return &UserRepository{store: s}
}

// Create stores a new user, failing if the email is already registered
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	rec, err := toRecord(user)
	if err != nil {
		return err
	}
	_, err = r.store.AddUnique(ctx, usersCollection, rec, store.FieldEquals("email", user.Email))
	if errors.Is(err, store.ErrConflict) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID. Returns nil when absent.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, store.FieldEquals("id", id))
}

// GetByEmail retrieves a user by email. Returns nil when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, store.FieldEquals("email", email))
}

// GetByFriendCode retrieves a user by friend code. Returns nil when absent.
func (r *UserRepository) GetByFriendCode(ctx context.Context, code string) (*models.User, error) {
	return r.findOne(ctx, store.FieldEquals("friendCode", code))
}

// FriendCodeExists checks if a friend code is already taken
func (r *UserRepository) FriendCodeExists(ctx context.Context, code string) (bool, error) {
	user, err := r.GetByFriendCode(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to check friend code: %w", err)
	}
	return user != nil, nil
}

// GetMany retrieves users by ID, keeping the order of ids and skipping unknown ones
func (r *UserRepository) GetMany(ctx context.Context, ids []string) ([]*models.User, error) {
	recs, err := r.store.Read(ctx, usersCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	byID := make(map[string]store.Record, len(recs))
	for _, rec := range recs {
		if id, ok := rec["id"].(string); ok {
			byID[id] = rec
		}
	}

	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			continue
		}
		user, err := fromRecord[models.User](rec)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// Update applies fn to the stored user while the users collection is locked.
// Returns nil when the user does not exist.
func (r *UserRepository) Update(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	rec, err := r.store.UpdateFunc(ctx, usersCollection, store.FieldEquals("id", id), func(cur store.Record) (store.Record, error) {
		user, err := fromRecord[models.User](cur)
		if err != nil {
			return nil, err
		}
		if err := fn(user); err != nil {
			return nil, err
		}
		return toRecord(user)
	})
	if err != nil {
		return nil, err
	}
	return fromRecord[models.User](rec)
}

// UpdatePair applies fn to two distinct users in a single write of the collection.
// Fails with ErrNotFound if either user is missing.
func (r *UserRepository) UpdatePair(ctx context.Context, idA, idB string, fn func(a, b *models.User) error) error {
	return r.store.Mutate(ctx, usersCollection, func(recs []store.Record) ([]store.Record, error) {
		ia, ib := -1, -1
		for i, rec := range recs {
			switch {
			case store.FieldEquals("id", idA)(rec) && ia < 0:
				ia = i
			case store.FieldEquals("id", idB)(rec) && ib < 0:
				ib = i
			}
		}
		if ia < 0 || ib < 0 {
			return nil, ErrNotFound
		}

		a, err := fromRecord[models.User](recs[ia])
		if err != nil {
			return nil, err
		}
		b, err := fromRecord[models.User](recs[ib])
		if err != nil {
			return nil, err
		}
		if err := fn(a, b); err != nil {
			return nil, err
		}

		if recs[ia], err = mergeRecord(recs[ia], a); err != nil {
			return nil, err
		}
		if recs[ib], err = mergeRecord(recs[ib], b); err != nil {
			return nil, err
		}
		return recs, nil
	})
}

func (r *UserRepository) findOne(ctx context.Context, pred store.Predicate) (*models.User, error) {
	rec, err := r.store.FindOne(ctx, usersCollection, pred)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return fromRecord[models.User](rec)
}

// mergeRecord overlays the encoded form of v on cur, keeping fields v does not know about.
func mergeRecord(cur store.Record, v any) (store.Record, error) {
	patch, err := toRecord(v)
	if err != nil {
		return nil, err
	}
	merged := make(store.Record, len(cur)+len(patch))
	for k, val := range cur {
		merged[k] = val
	}
	for k, val := range patch {
		merged[k] = val
	}
	return merged, nil
}
