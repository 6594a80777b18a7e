package crud

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"warbler/domain"
	"warbler/errs"
)

// FollowService manages Follows, the directed edges between users.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator checks Follow input before followGorm sees it.
type followValidator struct {
	followGorm
}

// followGorm queries the database.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

var _ domain.FollowService = &FollowService{}

// Follow makes followerID follow followedID. Following someone twice is fine,
// the edge just stays.
func (fv *followValidator) Follow(ctx context.Context, followerID, followedID int) error {
	follow := &domain.Follow{FollowerID: followerID, FollowedID: followedID}
	err := runFollowValFns(follow,
		fv.idsValid,
		fv.followedIsNotFollower,
		fv.followedUserExists(ctx))
	if err != nil {
		return err
	}
	return fv.followGorm.Create(ctx, follow)
}

// Unfollow removes the edge followerID -> followedID. Unfollowing someone you
// don't follow is fine as well.
func (fv *followValidator) Unfollow(ctx context.Context, followerID, followedID int) error {
	follow := &domain.Follow{FollowerID: followerID, FollowedID: followedID}
	if err := runFollowValFns(follow, fv.idsValid); err != nil {
		return err
	}
	return fv.followGorm.Delete(ctx, follow)
}

// runFollowValFns returns the error of the first failing check.
func runFollowValFns(follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(follow); err != nil {
			return err
		}
	}
	return nil
}

type followValFn func(follow *domain.Follow) error

// idsValid makes sure that both ends of the edge are set.
func (fv *followValidator) idsValid(follow *domain.Follow) error {
	if follow.FollowerID <= 0 || follow.FollowedID <= 0 {
		return errs.Errorf(errs.EINVALID, "User ID is invalid.")
	}
	return nil
}

// followedIsNotFollower makes sure that nobody follows themselves.
func (fv *followValidator) followedIsNotFollower(follow *domain.Follow) error {
	if follow.FollowerID == follow.FollowedID {
		return errs.Errorf(errs.EINVALID, "You cannot follow yourself.")
	}
	return nil
}

// followedUserExists makes sure that the user to be followed actually exists.
func (fv *followValidator) followedUserExists(ctx context.Context) followValFn {
	return func(follow *domain.Follow) error {
		err := fv.db.WithContext(ctx).First(&domain.User{}, "id = ?", follow.FollowedID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.Errorf(errs.ENOTFOUND, "The user to be followed does not exist.")
			}
			return err
		}
		return nil
	}
}

// IsFollowing tells whether userID follows otherID.
func (fg *followGorm) IsFollowing(ctx context.Context, userID, otherID int) (bool, error) {
	return fg.exists(ctx, userID, otherID)
}

// IsFollowedBy tells whether userID is followed by otherID.
func (fg *followGorm) IsFollowedBy(ctx context.Context, userID, otherID int) (bool, error) {
	return fg.exists(ctx, otherID, userID)
}

// exists looks up the edge followerID -> followedID by its primary key.
func (fg *followGorm) exists(ctx context.Context, followerID, followedID int) (bool, error) {
	var count int64
	err := fg.db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Followers returns the users following userID, ordered by username.
func (fg *followGorm) Followers(ctx context.Context, userID int) ([]domain.User, error) {
	var users []domain.User
	err := fg.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Following returns the users that userID follows, ordered by username.
func (fg *followGorm) Following(ctx context.Context, userID int) ([]domain.User, error) {
	var users []domain.User
	err := fg.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CountFollowers returns the number of users following userID.
func (fg *followGorm) CountFollowers(ctx context.Context, userID int) (int, error) {
	return fg.count(ctx, "followed_id = ?", userID)
}

// CountFollowing returns the number of users userID follows.
func (fg *followGorm) CountFollowing(ctx context.Context, userID int) (int, error) {
	return fg.count(ctx, "follower_id = ?", userID)
}

func (fg *followGorm) count(ctx context.Context, query string, userID int) (int, error) {
	var count int64
	err := fg.db.WithContext(ctx).Model(&domain.Follow{}).Where(query, userID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Create stores the edge unless it exists already.
func (fg *followGorm) Create(ctx context.Context, follow *domain.Follow) error {
	return fg.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow).Error
}

// Delete permanently deletes the edge, if there is one.
func (fg *followGorm) Delete(ctx context.Context, follow *domain.Follow) error {
	return fg.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", follow.FollowerID, follow.FollowedID).
		Delete(&domain.Follow{}).Error
}
