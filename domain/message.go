package domain

import (
	"context"
	"time"
)

// MessageMaxLength is the maximum number of characters of a Message's text.
const MessageMaxLength = 140

// Message is a short text post. It always belongs to exactly one User,
// the author, and UserID never changes after creation.
type Message struct {
	ID     int    `json:"id"`
	Text   string `json:"text" gorm:"notNull;size:140"`
	UserID int    `json:"user_id" gorm:"notNull;index"`
	User   *User  `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`

	LikeCount int `json:"like_count" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageService is a set of methods to manipulate and work with the Message model.
// It does not authorize anything; callers go through the session gate first.
type MessageService interface {
	Create(ctx context.Context, authorID int, text string) (*Message, error)
	Edit(ctx context.Context, id int, text string) (*Message, error)
	Delete(ctx context.Context, id int) error
	ByID(ctx context.Context, id int) (*Message, error)
	ByUserID(ctx context.Context, userID, limit int) ([]Message, error)
	CountByUserID(ctx context.Context, userID int) (int, error)
}
