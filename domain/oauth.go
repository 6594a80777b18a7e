package domain

import (
	"context"
	"time"
)

// OAuthProviderGithub is the only provider users can link so far.
const OAuthProviderGithub = "github"

// OAuth links a User to an account at an external OAuth2 provider,
// along with the tokens received from that provider.
type OAuth struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user_id" gorm:"notNull;index"`
	User           *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Provider       string    `json:"provider" gorm:"notNull;uniqueIndex:idx_provider_user"`
	ProviderUserID string    `json:"provider_user_id" gorm:"notNull;uniqueIndex:idx_provider_user"`
	AccessToken    string    `json:"-"`
	RefreshToken   string    `json:"-"`
	Expiry         time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OAuthService is a set of methods to manipulate and work with the OAuth model.
type OAuthService interface {
	Find(ctx context.Context, userID int, provider string) (*OAuth, error)
	ByProviderUserID(ctx context.Context, provider, providerUserID string) (*OAuth, error)
	Create(ctx context.Context, oauth *OAuth) error
	Update(ctx context.Context, oauth *OAuth) error
}
