package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const configFile = ".config.json"

type Config struct {
	Port        int            `json:"port"`
	Env         string         `json:"env"`
	Pepper      string         `json:"pepper"`
	BcryptCost  int            `json:"bcrypt_cost"`
	SessionKey  string         `json:"session_key"`
	CSRFKey     string         `json:"csrf_key"`
	CSRFEnabled bool           `json:"csrf_enabled"`
	ImagesDir   string         `json:"images_dir"`
	LogLevel    string         `json:"log_level"`
	Database    PostgresConfig `json:"database"`
	Github      OAuthConfig    `json:"github"`
}

// IsProd tells whether the config is meant for production.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// Validate checks the values the app cannot start without.
func (c Config) Validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if len(c.SessionKey) < 32 {
		return errors.New("session_key must be at least 32 bytes")
	}
	if c.CSRFEnabled && len(c.CSRFKey) != 32 {
		return errors.New("csrf_key must be exactly 32 bytes")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("invalid bcrypt_cost %d", c.BcryptCost)
	}
	return nil
}

type PostgresConfig struct {
	// URL takes precedence over the other fields when set.
	URL      string `json:"url"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.URL != "" {
		return pc.URL
	}
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

type OAuthConfig struct {
	ID          string `json:"id"`
	Secret      string `json:"secret"`
	RedirectURL string `json:"redirect_url"`
}

// OAuth2 returns the oauth2 config for linking Github accounts.
func (oc OAuthConfig) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     oc.ID,
		ClientSecret: oc.Secret,
		RedirectURL:  oc.RedirectURL,
		Scopes:       []string{"read:user"},
		Endpoint:     github.Endpoint,
	}
}

func DefaultConfig() Config {
	return Config{
		Port:        1111,
		Env:         "dev",
		Pepper:      "secret-random-string",
		BcryptCost:  bcrypt.DefaultCost,
		SessionKey:  "dev-session-key-dev-session-key!",
		CSRFKey:     "32-byte-long-auth-key-for-dev!!!",
		CSRFEnabled: false,
		ImagesDir:   "images",
		LogLevel:    "debug",
		Database:    DefaultPostgresConfig(),
		Github: OAuthConfig{
			RedirectURL: "http://localhost:1111/oauth/github/callback",
		},
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "warbler",
	}
}

// LoadConfig reads .config.json if present, otherwise it uses the default dev
// setup. In production the file is required. Values from the environment, or a
// .env file, override both.
func LoadConfig(prod bool) (Config, error) {
	c, err := loadConfigFile(configFile, prod)
	if err != nil {
		return Config{}, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	if err := applyEnv(&c, os.Getenv); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func loadConfigFile(path string, prod bool) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if prod {
			return Config{}, fmt.Errorf("a %s file is required in production: %w", path, err)
		}
		return DefaultConfig(), nil
	}
	defer f.Close()
	c := DefaultConfig()
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	logrus.WithField("file", path).Info("Successfully loaded config file")
	return c, nil
}

// applyEnv overrides config values with the environment variables that are set.
func applyEnv(c *Config, getenv func(string) string) error {
	strs := map[string]*string{
		"DATABASE_URL":         &c.Database.URL,
		"SESSION_KEY":          &c.SessionKey,
		"CSRF_KEY":             &c.CSRFKey,
		"PEPPER":               &c.Pepper,
		"GITHUB_CLIENT_ID":     &c.Github.ID,
		"GITHUB_CLIENT_SECRET": &c.Github.Secret,
		"LOG_LEVEL":            &c.LogLevel,
		"IMAGES_DIR":           &c.ImagesDir,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	if v := getenv("WARBLER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WARBLER_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	return nil
}
