package crud

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

// MessageService manages Messages. It does not check who is asking;
// the session gate in the http layer decides that before calling it.
// It implements the domain.MessageService interface.
type MessageService struct {
	messageValidator
}

// messageValidator runs validations on incoming Message data.
// On success, it passes the data on to messageGorm.
// Otherwise, it returns the error of the validation that has failed.
type messageValidator struct {
	messageGorm
}

// messageGorm runs CRUD operations on the database using incoming Message data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type messageGorm struct {
	db *gorm.DB
}

// NewMessageService returns an instance of MessageService.
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{
		messageValidator{
			messageGorm{
				db: db,
			},
		},
	}
}

// Ensure the MessageService struct properly implements the domain.MessageService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.MessageService = &MessageService{}

// Create runs validations needed for creating new Message database records.
func (mv *messageValidator) Create(ctx context.Context, authorID int, text string) (*domain.Message, error) {
	msg := &domain.Message{
		UserID: authorID,
		Text:   text,
	}
	err := runMessageValFns(msg,
		mv.userIDValid,
		mv.textNormalize,
		mv.textMinLength,
		mv.textMaxLength,
		mv.authorExists(ctx))
	if err != nil {
		return nil, err
	}
	if err := mv.messageGorm.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Edit replaces the text of an existing message. The author stays the same.
func (mv *messageValidator) Edit(ctx context.Context, id int, text string) (*domain.Message, error) {
	msg, err := mv.messageGorm.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	msg.Text = text
	err = runMessageValFns(msg,
		mv.textNormalize,
		mv.textMinLength,
		mv.textMaxLength)
	if err != nil {
		return nil, err
	}
	if err := mv.messageGorm.UpdateText(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Delete runs validations needed for deleting existing Message database records.
func (mv *messageValidator) Delete(ctx context.Context, id int) error {
	msg := &domain.Message{ID: id}
	if err := runMessageValFns(msg, mv.idValid); err != nil {
		return err
	}
	return mv.messageGorm.Delete(ctx, msg)
}

// runMessageValFns runs any number of functions of type messageValFn on the passed in Message object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runMessageValFns(msg *domain.Message, fns ...messageValFn) error {
	for _, fn := range fns {
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}

// A messageValFn is any function that takes in a pointer to a domain.Message object and returns an error.
type messageValFn = func(msg *domain.Message) error

// textNormalize trims the message's surrounding whitespace.
func (mv *messageValidator) textNormalize(msg *domain.Message) error {
	msg.Text = strings.TrimSpace(msg.Text)
	return nil
}

// textMinLength makes sure that the message's text is not empty.
func (mv *messageValidator) textMinLength(msg *domain.Message) error {
	if msg.Text == "" {
		return errs.Errorf(errs.EINVALID, "Message text must not be empty.")
	}
	return nil
}

// textMaxLength makes sure that the message's text does not exceed the maximum length.
func (mv *messageValidator) textMaxLength(msg *domain.Message) error {
	if utf8.RuneCountInString(msg.Text) > domain.MessageMaxLength {
		return errs.Errorf(errs.EINVALID, "Message text max length is %d characters.", domain.MessageMaxLength)
	}
	return nil
}

// idValid makes sure that the passed in ID of a Message is greater than 0.
func (mv *messageValidator) idValid(msg *domain.Message) error {
	if msg.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Message ID is invalid.")
	}
	return nil
}

// userIDValid ensures that the message has an author.
func (mv *messageValidator) userIDValid(msg *domain.Message) error {
	if msg.UserID <= 0 {
		return errs.Errorf(errs.EINVALID, "A message needs an author.")
	}
	return nil
}

// authorExists makes sure that the message's author is a registered user.
func (mv *messageValidator) authorExists(ctx context.Context) messageValFn {
	return func(msg *domain.Message) error {
		err := mv.db.WithContext(ctx).First(&domain.User{}, "id = ?", msg.UserID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.Errorf(errs.ENOTFOUND, "The author does not exist.")
			}
			return err
		}
		return nil
	}
}

// ByID retrieves a single Message by ID, along with its author.
func (mg *messageGorm) ByID(ctx context.Context, id int) (*domain.Message, error) {
	var msg domain.Message
	err := mg.db.WithContext(ctx).
		Preload("User").
		First(&msg, "id = ?", id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The message does not exist.")
		}
		return nil, err
	}
	return &msg, nil
}

// ByUserID retrieves up to limit messages of a user, newest first.
func (mg *messageGorm) ByUserID(ctx context.Context, userID, limit int) ([]domain.Message, error) {
	var msgs []domain.Message
	err := mg.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// CountByUserID returns how many messages a user has written.
func (mg *messageGorm) CountByUserID(ctx context.Context, userID int) (int, error) {
	var count int64
	err := mg.db.WithContext(ctx).Model(&domain.Message{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Create stores the data from the Message object in a new database record.
func (mg *messageGorm) Create(ctx context.Context, msg *domain.Message) error {
	if err := mg.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	return mg.db.WithContext(ctx).Preload("User").First(msg, "id = ?", msg.ID).Error
}

// UpdateText stores a message's new text. Only the text column is written.
func (mg *messageGorm) UpdateText(ctx context.Context, msg *domain.Message) error {
	return mg.db.WithContext(ctx).Model(msg).Update("text", msg.Text).Error
}

// Delete removes a Message record from the database along with its likes,
// all in one transaction.
func (mg *messageGorm) Delete(ctx context.Context, msg *domain.Message) error {
	return mg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", msg.ID).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		res := tx.Delete(msg)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Errorf(errs.ENOTFOUND, "The message does not exist.")
		}
		return nil
	})
}
