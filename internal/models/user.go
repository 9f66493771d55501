package models

import (
	"time"

	"github.com/penportal-api/internal/ranking"
)

// User represents a user in the system
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Bio       string    `json:"bio" db:"bio"`
	Interests []string  `json:"interests" db:"interests"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MaxInterests caps the interests list of a profile
const MaxInterests = 50

// UserSignal is the part of a profile the feed composer personalizes on
type UserSignal struct {
	UserID    string   `json:"user_id"`
	Interests []string `json:"interests"`
	Following []string `json:"following"`
}

// Signal converts to the engine type
func (s *UserSignal) Signal() ranking.Signal {
	if s == nil {
		return ranking.Signal{}
	}
	return ranking.Signal{Interests: s.Interests, Following: s.Following}
}

// InterestsRequest is the payload of PUT /v1/users/me/interests
type InterestsRequest struct {
	Interests []string `json:"interests"`
}

// UserSummary is the public face of a profile in follower lists
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// Summary drops the private fields of a user
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Bio: u.Bio}
}

// UserList is returned by the followers and following lists
type UserList struct {
	Users []*UserSummary `json:"users"`
	Count int            `json:"count"`
}

// FollowResponse is returned by the follow toggle
type FollowResponse struct {
	Following bool `json:"following"`
}
