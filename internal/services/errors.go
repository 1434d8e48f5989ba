package services

import "errors"

// Domain errors returned to handlers, which translate them into HTTP responses.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUserExists        = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidPassword   = errors.New("incorrect password")
	ErrSelfFriend        = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriends    = errors.New("already in friend list")
	ErrBattleNotFound    = errors.New("battle not found")
	ErrForbidden         = errors.New("not authorized")
	ErrTeamNotFound      = errors.New("team not found")
	ErrOutOfTurn         = errors.New("not your turn")
	ErrBattleFinished    = errors.New("battle is finished")
	ErrInvalidTransition = errors.New("battle is not waiting for an opponent")
)
