package crud

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"warbler/domain"
	"warbler/errs"
)

// LikeService records which users like which messages.
type LikeService struct {
	likeValidator
}

// likeValidator checks Like input before likeGorm sees it.
type likeValidator struct {
	likeGorm
}

// likeGorm queries the database.
type likeGorm struct {
	db *gorm.DB
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{
		likeValidator{
			likeGorm{
				db: db,
			},
		},
	}
}

var _ domain.LikeService = &LikeService{}

// Toggle likes the message if the user doesn't like it yet and unlikes it otherwise.
// It returns whether the user likes the message afterwards.
func (lv *likeValidator) Toggle(ctx context.Context, userID, messageID int) (bool, error) {
	like := &domain.Like{UserID: userID, MessageID: messageID}
	err := runLikeValFns(like,
		lv.userIDValid,
		lv.likedMessageExists(ctx))
	if err != nil {
		return false, err
	}
	return lv.likeGorm.Toggle(ctx, like)
}

// runLikeValFns returns the error of the first failing check.
func runLikeValFns(like *domain.Like, fns ...likeValFn) error {
	for _, fn := range fns {
		if err := fn(like); err != nil {
			return err
		}
	}
	return nil
}

type likeValFn func(like *domain.Like) error

// likedMessageExists makes sure that the message to be liked actually exists.
func (lv *likeValidator) likedMessageExists(ctx context.Context) likeValFn {
	return func(like *domain.Like) error {
		err := lv.db.WithContext(ctx).First(&domain.Message{}, "id = ?", like.MessageID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.Errorf(errs.ENOTFOUND, "The liked message does not exist.")
			}
			return err
		}
		return nil
	}
}

// userIDValid ensures that the userID is not empty.
func (lv *likeValidator) userIDValid(like *domain.Like) error {
	if like.UserID <= 0 {
		return errs.Errorf(errs.EINVALID, "User ID is invalid.")
	}
	return nil
}

// Likes tells whether the given user likes the given message.
func (lg *likeGorm) Likes(ctx context.Context, userID, messageID int) (bool, error) {
	var count int64
	err := lg.db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ByUserID retrieves all messages a user likes, most recently liked first,
// along with the author of each message.
func (lg *likeGorm) ByUserID(ctx context.Context, userID int) ([]domain.Message, error) {
	var msgs []domain.Message
	err := lg.db.WithContext(ctx).
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at desc").
		Preload("User").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// CountByMessageID returns how many users like a message.
func (lg *likeGorm) CountByMessageID(ctx context.Context, messageID int) (int, error) {
	var count int64
	err := lg.db.WithContext(ctx).Model(&domain.Like{}).Where("message_id = ?", messageID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Toggle deletes the Like record if there is one and creates it otherwise,
// inside one transaction.
func (lg *likeGorm) Toggle(ctx context.Context, like *domain.Like) (bool, error) {
	liked := false
	err := lg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND message_id = ?", like.UserID, like.MessageID).Delete(&domain.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := (&likeGorm{db: tx}).create(like); err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

// create inserts the Like record. If a concurrent toggle inserted the same
// record first, that one is kept and no error is returned.
func (lg *likeGorm) create(like *domain.Like) error {
	return lg.db.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
}
