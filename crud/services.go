package crud

import "gorm.io/gorm"

// ServicesConfig sets up one crud service on a Services container. Passing
// several of them to NewServices picks which stores the app gets.
type ServicesConfig func(*Services) error

// Services holds the crud services of the app. All services built by
// NewServices talk to the same gorm connection.
type Services struct {
	db      *gorm.DB
	User    *UserService
	Message *MessageService
	Follow  *FollowService
	Like    *LikeService
	Image   *ImageService
	OAuth   *OAuthService
}

// NewServices builds a Services container on top of db and applies every
// ServicesConfig in order. The first failing one aborts the setup.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	s := Services{
		db: db,
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// WithUser sets up the identity store. Passwords are peppered and hashed
// with the given bcrypt cost.
func WithUser(pepper string, bcryptCost int) ServicesConfig {
	return func(s *Services) error {
		us, err := NewUserService(s.db, pepper, bcryptCost)
		if err != nil {
			return err
		}
		s.User = us
		return nil
	}
}

// WithMessage sets up the message store.
func WithMessage() ServicesConfig {
	return func(s *Services) error {
		s.Message = NewMessageService(s.db)
		return nil
	}
}

// WithFollow sets up the relationship store.
func WithFollow() ServicesConfig {
	return func(s *Services) error {
		s.Follow = NewFollowService(s.db)
		return nil
	}
}

// WithLike sets up the like store.
func WithLike() ServicesConfig {
	return func(s *Services) error {
		s.Like = NewLikeService(s.db)
		return nil
	}
}

// WithImage sets up the image store, keeping files below baseDir.
func WithImage(baseDir string) ServicesConfig {
	return func(s *Services) error {
		s.Image = NewImageService(baseDir)
		return nil
	}
}

// WithOAuth sets up the store of linked OAuth accounts.
func WithOAuth() ServicesConfig {
	return func(s *Services) error {
		s.OAuth = NewOAuthService(s.db)
		return nil
	}
}
