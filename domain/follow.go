package domain

import (
	"context"
	"time"
)

// Follow represents a self-referential many-to-many relationship between two users.
// A Follow is created when one user decides to follow another user.
// The FollowerID is the ID of the user that follows, and the FollowedID is the ID of the
// user that is being followed. The pair is the primary key of the follows-table, so
// a given edge exists at most once and looking it up is a single index hit.
type Follow struct {
	FollowerID int       `json:"follower_id" gorm:"primaryKey;autoIncrement:false"`
	Follower   *User     `json:"follower,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	FollowedID int       `json:"followed_id" gorm:"primaryKey;autoIncrement:false;index"`
	Followed   *User     `json:"followed,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow model.
type FollowService interface {
	Follow(ctx context.Context, followerID, followedID int) error
	Unfollow(ctx context.Context, followerID, followedID int) error
	IsFollowing(ctx context.Context, userID, otherID int) (bool, error)
	IsFollowedBy(ctx context.Context, userID, otherID int) (bool, error)
	Followers(ctx context.Context, userID int) ([]User, error)
	Following(ctx context.Context, userID int) ([]User, error)
	CountFollowers(ctx context.Context, userID int) (int, error)
	CountFollowing(ctx context.Context, userID int) (int, error)
}
