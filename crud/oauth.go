package crud

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

// OAuthService keeps the links between users and their accounts at OAuth2 providers.
type OAuthService struct {
	oauthValidator
}

type oauthValidator struct {
	oauthGorm
}

type oauthGorm struct {
	db *gorm.DB
}

// NewOAuthService returns an instance of OAuthService.
func NewOAuthService(db *gorm.DB) *OAuthService {
	return &OAuthService{
		oauthValidator{
			oauthGorm{
				db: db,
			},
		},
	}
}

var _ domain.OAuthService = &OAuthService{}

// Create runs validations needed for creating new OAuth database records.
func (ov *oauthValidator) Create(ctx context.Context, oauth *domain.OAuth) error {
	err := runOAuthValFns(oauth,
		ov.userIDRequired,
		ov.providerRequired,
		ov.providerUserIDRequired)
	if err != nil {
		return err
	}
	return ov.oauthGorm.Create(ctx, oauth)
}

// Update runs validations needed for updating existing OAuth database records.
func (ov *oauthValidator) Update(ctx context.Context, oauth *domain.OAuth) error {
	err := runOAuthValFns(oauth,
		ov.idValid,
		ov.userIDRequired,
		ov.providerRequired,
		ov.providerUserIDRequired)
	if err != nil {
		return err
	}
	return ov.oauthGorm.Update(ctx, oauth)
}

// runOAuthValFns returns the error of the first failing check.
func runOAuthValFns(oauth *domain.OAuth, fns ...oauthValFn) error {
	for _, fn := range fns {
		if err := fn(oauth); err != nil {
			return err
		}
	}
	return nil
}

type oauthValFn = func(oauth *domain.OAuth) error

func (ov *oauthValidator) idValid(oauth *domain.OAuth) error {
	if oauth.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "OAuth ID is invalid.")
	}
	return nil
}

func (ov *oauthValidator) providerRequired(oauth *domain.OAuth) error {
	if oauth.Provider == "" {
		return errs.Errorf(errs.EINVALID, "Provider is required.")
	}
	return nil
}

func (ov *oauthValidator) providerUserIDRequired(oauth *domain.OAuth) error {
	if oauth.ProviderUserID == "" {
		return errs.Errorf(errs.EINVALID, "Provider user ID is required.")
	}
	return nil
}

func (ov *oauthValidator) userIDRequired(oauth *domain.OAuth) error {
	if oauth.UserID <= 0 {
		return errs.Errorf(errs.EINVALID, "User ID is required.")
	}
	return nil
}

// Find returns the link of a user to a provider.
func (og *oauthGorm) Find(ctx context.Context, userID int, provider string) (*domain.OAuth, error) {
	return og.first(ctx, "user_id = ? AND provider = ?", userID, provider)
}

// ByProviderUserID returns the link to a provider's account, whichever user holds it.
func (og *oauthGorm) ByProviderUserID(ctx context.Context, provider, providerUserID string) (*domain.OAuth, error) {
	return og.first(ctx, "provider = ? AND provider_user_id = ?", provider, providerUserID)
}

func (og *oauthGorm) first(ctx context.Context, query string, args ...interface{}) (*domain.OAuth, error) {
	var oauth domain.OAuth
	err := og.db.WithContext(ctx).Where(query, args...).First(&oauth).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "No linked account found.")
		}
		return nil, err
	}
	return &oauth, nil
}

func (og *oauthGorm) Create(ctx context.Context, oauth *domain.OAuth) error {
	err := og.db.WithContext(ctx).Create(oauth).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Errorf(errs.ECONFLICT, "That account is already linked to a user.")
	}
	return err
}

func (og *oauthGorm) Update(ctx context.Context, oauth *domain.OAuth) error {
	err := og.db.WithContext(ctx).Omit("User").Save(oauth).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Errorf(errs.ECONFLICT, "That account is already linked to a user.")
	}
	return err
}
