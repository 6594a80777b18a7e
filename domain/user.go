package domain

import (
	"context"
	"time"
)

// DefaultImageURL is the profile image of users that did not provide one.
const DefaultImageURL = "/static/images/default-pic.png"

// User represents a registered user. Username and Email are both unique.
// Password only lives in memory during signup or a profile update; it gets
// hashed into PasswordHash and cleared before anything is stored.
// Email is never rendered along with a user; only the user themselves gets to
// see it, see the http package's account responses.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username" gorm:"notNull;uniqueIndex;size:30"`
	Email        string `json:"-" gorm:"notNull;uniqueIndex"`
	Password     string `json:"-" gorm:"-"`
	PasswordHash string `json:"-" gorm:"notNull"`
	ImageURL     string `json:"image_url"`
	Bio          string `json:"bio" gorm:"size:160"`

	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:UserID"`

	MessageCount   int   `json:"message_count" gorm:"-"`
	FollowerCount  int   `json:"follower_count" gorm:"-"`
	FollowingCount int   `json:"following_count" gorm:"-"`
	AuthFollows    *bool `json:"auth_follows,omitempty" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserService is a set of methods to manipulate and work with the User model.
// It is the identity store: signup and credential verification live here.
type UserService interface {
	Signup(ctx context.Context, username, email, password, imageURL string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	ByID(ctx context.Context, id int) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
	Search(ctx context.Context, term string, limit int) ([]User, error)
	Update(ctx context.Context, user *User) error
	Count(ctx context.Context) (int, error)
}
