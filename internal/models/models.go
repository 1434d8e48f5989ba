package models

// BattleStatus is the lifecycle state of a battle.
type BattleStatus string

const (
	StatusWaitingForOpponent BattleStatus = "waiting_for_opponent"
	StatusActive             BattleStatus = "active"
	StatusFinished           BattleStatus = "finished"
)

// User represents a registered trainer
type User struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Name       string   `json:"name"`
	FriendCode string   `json:"friendCode"`
	Favorites  []string `json:"favorites"`
	Teams      []Team   `json:"teams"`
	Friends    []string `json:"friends"`
	PushToken  *string  `json:"pushToken,omitempty"`
}

// Profile is the user as shown to the user themself, without the password hash
type Profile struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	FriendCode string   `json:"friendCode"`
	Favorites  []string `json:"favorites"`
	Teams      []Team   `json:"teams"`
	Friends    []string `json:"friends"`
}

// Profile strips the password hash and push token.
func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		FriendCode: u.FriendCode,
		Favorites:  nonNil(u.Favorites),
		Teams:      u.TeamsOrEmpty(),
		Friends:    nonNil(u.Friends),
	}
}

// TeamsOrEmpty returns the user's teams, never nil.
func (u *User) TeamsOrEmpty() []Team {
	if u.Teams == nil {
		return []Team{}
	}
	return u.Teams
}

// FindTeam returns a copy of the team with the given id.
func (u *User) FindTeam(id string) *Team {
	for _, t := range u.Teams {
		if t.ID == id {
			team := t.Clone()
			return &team
		}
	}
	return nil
}

// Friend is the public view of another user
type Friend struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FriendCode string `json:"friendCode,omitempty"`
}

// Team represents a named list of Pokémon. Member shape is up to the client.
type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members []any  `json:"members"`
}

// Clone returns a copy whose member slice is not shared with t.
func (t Team) Clone() Team {
	members := make([]any, len(t.Members))
	copy(members, t.Members)
	t.Members = members
	return t
}

// Battle represents a turn-based battle between two users
type Battle struct {
	ID          string       `json:"id"`
	Player1     string       `json:"player1"`
	Player2     string       `json:"player2"`
	Player1Team *Team        `json:"player1Team"`
	Player2Team *Team        `json:"player2Team"`
	Status      BattleStatus `json:"status"`
	Turn        string       `json:"turn"`
	Logs        []string     `json:"logs"`
	LastUpdate  int64        `json:"lastUpdate"`
	Winner      string       `json:"winner,omitempty"`
}

// IsParticipant reports whether userID is one of the two players.
func (b *Battle) IsParticipant(userID string) bool {
	return b.Player1 == userID || b.Player2 == userID
}

// Opponent returns the other participant.
func (b *Battle) Opponent(userID string) string {
	if b.Player1 == userID {
		return b.Player2
	}
	return b.Player1
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
