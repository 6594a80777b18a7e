package crud

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

const (
	usernameMaxLength = 30
	passwordMinLength = 6
	bioMaxLength      = 160
	// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
	bcryptMaxBytes = 72
)

// UserService manages Users. It is the identity store of the app: it signs users up,
// hashes their passwords and verifies credentials on login. Sessions are handled by
// the auth package. It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator normalizes and checks User data, then hands it to userGorm.
type userValidator struct {
	pepper     string
	cost       int
	emailRegex *regexp.Regexp
	// dummyHash is compared against when a username does not exist, so that
	// failed logins take the same time whichever field was wrong.
	dummyHash []byte
	userGorm
}

// userGorm is the users table. It trusts its input.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService. Passwords get the pepper
// appended before they are bcrypted with the given cost.
func NewUserService(db *gorm.DB, pepper string, cost int) (*UserService, error) {
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("dummy-password"+pepper), cost)
	if err != nil {
		return nil, err
	}
	return &UserService{
		userValidator{
			pepper:     pepper,
			cost:       cost,
			emailRegex: regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			dummyHash:  dummyHash,
			userGorm: userGorm{
				db: db,
			},
		},
	}, nil
}

var _ domain.UserService = &UserService{}

var errInvalidCredentials = errs.Errorf(errs.EUNAUTHORIZED, "Invalid credentials.")

// Signup validates the new user's data, hashes the password and stores the user.
// If the username or the email address is already taken, it returns a nil user and
// an ECONFLICT error, and nothing is written.
func (uv *userValidator) Signup(ctx context.Context, username, email, password, imageURL string) (*domain.User, error) {
	user := &domain.User{
		Username: username,
		Email:    email,
		Password: password,
		ImageURL: imageURL,
	}
	err := runUserValFns(user,
		uv.usernameNormalize,
		uv.usernameRequired,
		uv.usernameMaxLength,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.passwordRequired,
		uv.passwordMinLength,
		uv.passwordMaxBytes,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.imageURLDefault)
	if err != nil {
		return nil, err
	}
	err = uv.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ug := &userGorm{db: tx}
		if err := runUserValFns(user, uv.usernameIsAvail(ug), uv.emailIsAvail(ug)); err != nil {
			return err
		}
		return ug.Create(user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a submitted username and password. It returns the user
// only if the password matches the stored hash. An unknown username and a wrong
// password produce the very same error.
func (uv *userValidator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	found, err := uv.userGorm.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			_ = bcrypt.CompareHashAndPassword(uv.dummyHash, []byte(password+uv.pepper))
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	// Append the pepper to the submitted password, hash it, and compare the result to the
	// password hash stored in the user's database record.
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	return found, nil
}

// Update saves a changed profile. The password only gets rehashed if a new one is provided.
func (uv *userValidator) Update(ctx context.Context, user *domain.User) error {
	err := runUserValFns(user,
		uv.idValid,
		uv.usernameNormalize,
		uv.usernameRequired,
		uv.usernameMaxLength,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.passwordMinLength,
		uv.passwordMaxBytes,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.imageURLDefault,
		uv.bioMaxLength)
	if err != nil {
		return err
	}
	return uv.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ug := &userGorm{db: tx}
		if err := runUserValFns(user, uv.usernameIsAvail(ug), uv.emailIsAvail(ug)); err != nil {
			return err
		}
		return ug.Update(user)
	})
}

// runUserValFns applies fns in order and returns the first error.
func runUserValFns(user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(user); err != nil {
			return err
		}
	}
	return nil
}

type userValFn func(user *domain.User) error

// idValid makes sure that the user to be updated has an ID.
func (uv *userValidator) idValid(user *domain.User) error {
	if user.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "User ID is invalid.")
	}
	return nil
}

// usernameNormalize trims the username's whitespaces.
func (uv *userValidator) usernameNormalize(user *domain.User) error {
	user.Username = strings.TrimSpace(user.Username)
	return nil
}

// usernameRequired makes sure that the username is not the empty string.
func (uv *userValidator) usernameRequired(user *domain.User) error {
	if user.Username == "" {
		return errs.Errorf(errs.EINVALID, "A username is required.")
	}
	return nil
}

// usernameMaxLength makes sure that the username fits into its column.
func (uv *userValidator) usernameMaxLength(user *domain.User) error {
	if utf8.RuneCountInString(user.Username) > usernameMaxLength {
		return errs.Errorf(errs.EINVALID, "The username must not have more than %d characters.", usernameMaxLength)
	}
	return nil
}

// usernameIsAvail makes sure that the username is not taken by another user.
func (uv *userValidator) usernameIsAvail(ug *userGorm) userValFn {
	return func(user *domain.User) error {
		existing, err := ug.byField("username", user.Username)
		if err != nil {
			if errs.ErrorCode(err) == errs.ENOTFOUND {
				return nil
			}
			return err
		}
		if existing.ID != user.ID {
			return errs.Errorf(errs.ECONFLICT, "This username is already taken.")
		}
		return nil
	}
}

// emailFormat is a loose sanity check, not RFC 5322.
func (uv *userValidator) emailFormat(user *domain.User) error {
	if !uv.emailRegex.MatchString(user.Email) {
		return errs.Errorf(errs.EINVALID, "The email address is invalid.")
	}
	return nil
}

// emailIsAvail reports ECONFLICT if another user holds the address.
func (uv *userValidator) emailIsAvail(ug *userGorm) userValFn {
	return func(user *domain.User) error {
		existing, err := ug.byField("email", user.Email)
		if err != nil {
			if errs.ErrorCode(err) == errs.ENOTFOUND {
				return nil
			}
			return err
		}
		if existing.ID != user.ID {
			return errs.Errorf(errs.ECONFLICT, "This email address is already taken.")
		}
		return nil
	}
}

func (uv *userValidator) emailNormalize(user *domain.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return nil
}

func (uv *userValidator) emailRequired(user *domain.User) error {
	if user.Email == "" {
		return errs.Errorf(errs.EINVALID, "An email address is required.")
	}
	return nil
}

// passwordBcrypt replaces a plain password, if any, with its peppered bcrypt hash.
func (uv *userValidator) passwordBcrypt(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password+uv.pepper), uv.cost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.Password = ""
	return nil
}

func (uv *userValidator) passwordHashRequired(user *domain.User) error {
	if user.PasswordHash == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// passwordMinLength makes sure that the user's password is long enough.
func (uv *userValidator) passwordMinLength(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	if utf8.RuneCountInString(user.Password) < passwordMinLength {
		return errs.Errorf(errs.EINVALID, "The password must have at least %d characters.", passwordMinLength)
	}
	return nil
}

// passwordMaxBytes makes sure that the peppered password still fits into bcrypt.
func (uv *userValidator) passwordMaxBytes(user *domain.User) error {
	if len(user.Password)+len(uv.pepper) > bcryptMaxBytes {
		return errs.Errorf(errs.EINVALID, "The password is too long.")
	}
	return nil
}

func (uv *userValidator) passwordRequired(user *domain.User) error {
	if user.Password == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// imageURLDefault gives users without a profile image the default one.
func (uv *userValidator) imageURLDefault(user *domain.User) error {
	user.ImageURL = strings.TrimSpace(user.ImageURL)
	if user.ImageURL == "" {
		user.ImageURL = domain.DefaultImageURL
	}
	return nil
}

// bioMaxLength makes sure that the bio fits into its column.
func (uv *userValidator) bioMaxLength(user *domain.User) error {
	if utf8.RuneCountInString(user.Bio) > bioMaxLength {
		return errs.Errorf(errs.EINVALID, "The bio must not have more than %d characters.", bioMaxLength)
	}
	return nil
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(ctx context.Context, id int) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// ByUsername retrieves a User database record by username.
func (ug *userGorm) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	return (&userGorm{db: ug.db.WithContext(ctx)}).byField("username", username)
}

// Search returns up to limit users whose username contains term, ordered by username.
func (ug *userGorm) Search(ctx context.Context, term string, limit int) ([]domain.User, error) {
	var users []domain.User
	db := ug.db.WithContext(ctx).Order("username").Limit(limit)
	if term = strings.TrimSpace(term); term != "" {
		db = db.Where(`username LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(term)+"%")
	}
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// likeEscaper makes LIKE wildcards in search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Count returns the number of registered users.
func (ug *userGorm) Count(ctx context.Context) (int, error) {
	var count int64
	if err := ug.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Create inserts the user. Unique index violations become ECONFLICT.
func (ug *userGorm) Create(user *domain.User) error {
	err := ug.db.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Errorf(errs.ECONFLICT, "This username or email address is already taken.")
	}
	return err
}

func (ug *userGorm) Update(user *domain.User) error {
	err := ug.db.Omit("Messages").Save(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Errorf(errs.ECONFLICT, "This username or email address is already taken.")
	}
	return err
}

// byField retrieves the User database record whose unique column field equals value.
func (ug *userGorm) byField(field, value string) (*domain.User, error) {
	var user domain.User
	err := ug.db.Where(field+" = ?", value).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}
