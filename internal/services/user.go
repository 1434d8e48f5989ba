package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"pokebattle-backend/internal/models"
	"pokebattle-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeLength = 6
	codeChars  = "0123456789ABCDEF"
	jwtExpDays = 365
)

// UserService handles accounts, favorites and teams
type UserService struct {
	userRepo   *repository.UserRepository
	jwtSecret  string
	bcryptCost int
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, jwtSecret string) *UserService {
	return &UserService{
		userRepo:   userRepo,
		jwtSecret:  jwtSecret,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// PublicUser is the subset of a user returned after authentication
type PublicUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	FriendCode string `json:"friendCode"`
}

// NewID returns a unique, time-ordered identifier
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// GenerateUniqueCode generates a friend code not used by any other user
func (s *UserService) GenerateUniqueCode(ctx context.Context) (string, error) {
	maxAttempts := 10
	for i := 0; i < maxAttempts; i++ {
		code := generateCode()
		exists, err := s.userRepo.FriendCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxAttempts)
}

// generateCode generates a random 6-character hex code
func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// Register creates a new account and signs a token for it
func (s *UserService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := s.GenerateUniqueCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	user := &models.User{
		ID:         NewID(),
		Email:      email,
		Password:   string(hash),
		Name:       name,
		FriendCode: code,
		Favorites:  []string{},
		Teams:      []models.Team{},
		Friends:    []string{},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Str("user_id", user.ID).
		Str("friend_code", user.FriendCode).
		Msg("User registered")

	return s.authResult(user)
}

// Login checks credentials and signs a token
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return s.authResult(user)
}

func (s *UserService) authResult(user *models.User) (*AuthResult, error) {
	token, err := s.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{
		Token: token,
		User: PublicUser{
			ID:         user.ID,
			Name:       user.Name,
			Email:      user.Email,
			FriendCode: user.FriendCode,
		},
	}, nil
}

// GetUser returns the user or ErrUserNotFound
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ToggleFavorite adds pokemonID to favorites, or removes it if already present
func (s *UserService) ToggleFavorite(ctx context.Context, userID, pokemonID string) ([]string, error) {
	if pokemonID == "" {
		return nil, fmt.Errorf("%w: pokemonId is required", ErrInvalidInput)
	}
	user, err := s.update(ctx, userID, func(u *models.User) error {
		if i := slices.Index(u.Favorites, pokemonID); i >= 0 {
			u.Favorites = slices.Delete(u.Favorites, i, i+1)
		} else {
			u.Favorites = append(u.Favorites, pokemonID)
		}
		if u.Favorites == nil {
			u.Favorites = []string{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.Favorites, nil
}

// SaveTeam replaces the team with the same id or appends it, assigning an id when missing
func (s *UserService) SaveTeam(ctx context.Context, userID string, team models.Team) ([]models.Team, error) {
	if team.Members == nil {
		team.Members = []any{}
	}
	user, err := s.update(ctx, userID, func(u *models.User) error {
		if team.ID == "" {
			team.ID = NewID()
			u.Teams = append(u.Teams, team)
			return nil
		}
		for i := range u.Teams {
			if u.Teams[i].ID == team.ID {
				u.Teams[i] = team
				return nil
			}
		}
		u.Teams = append(u.Teams, team)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.TeamsOrEmpty(), nil
}

// DeleteTeam removes the team with the given id, if any
func (s *UserService) DeleteTeam(ctx context.Context, userID, teamID string) ([]models.Team, error) {
	user, err := s.update(ctx, userID, func(u *models.User) error {
		u.Teams = slices.DeleteFunc(u.Teams, func(t models.Team) bool { return t.ID == teamID })
		if u.Teams == nil {
			u.Teams = []models.Team{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.TeamsOrEmpty(), nil
}

// UpdatePushToken stores the APNs device token for a user
func (s *UserService) UpdatePushToken(ctx context.Context, userID, pushToken string) error {
	_, err := s.update(ctx, userID, func(u *models.User) error {
		u.PushToken = &pushToken
		return nil
	})
	return err
}

func (s *UserService) update(ctx context.Context, userID string, fn func(*models.User) error) (*models.User, error) {
	user, err := s.userRepo.Update(ctx, userID, fn)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
