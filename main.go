package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"warbler/auth"
	"warbler/crud"
	"warbler/database"
	"warbler/domain"
	"warbler/http"
	"warbler/logger"
)

// prod is set by the "--prod" flag. It means that we're running in production,
// so a .config.json file must be provided before the application starts.
var prod bool

var rootCmd = &cobra.Command{
	Use:           "warbler",
	Short:         "Warbler is a small social network API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and serve the API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update all database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(cfg Config, db *database.DB) error {
			return database.AutoMigrate(db)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop all tables and stored images, and create the tables again",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(cfg Config, db *database.DB) error {
			if err := clearUserImages(db.Gorm, crud.NewImageService(cfg.ImagesDir)); err != nil {
				return err
			}
			return database.DestructiveReset(db)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&prod, "prod", false, "Require a .config.json file, as in production")
	rootCmd.AddCommand(serveCmd, migrateCmd, resetCmd)
}

// main is the app's entry point.
func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("warbler failed")
	}
}

// withDB loads the config, sets up logging, and opens a database connection
// for the duration of fn.
func withDB(fn func(cfg Config, db *database.DB) error) error {
	cfg, err := LoadConfig(prod)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.IsProd(), cfg.LogLevel, nil); err != nil {
		return err
	}
	db := database.NewDB(postgres.Open(cfg.Database.ConnectionInfo()))
	if err := database.Open(db, cfg.IsProd()); err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logrus.WithError(err).Error("closing database")
		}
	}()
	return fn(cfg, db)
}

func runServe(cmd *cobra.Command, args []string) error {
	return withDB(func(cfg Config, db *database.DB) error {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}

		// Start the crud services.
		services, err := crud.NewServices(
			db.Gorm,
			crud.WithUser(cfg.Pepper, cfg.BcryptCost),
			crud.WithMessage(),
			crud.WithFollow(),
			crud.WithLike(),
			crud.WithImage(cfg.ImagesDir),
			crud.WithOAuth(),
		)
		if err != nil {
			return err
		}

		sessions := auth.NewSessionManager(cfg.IsProd(), []byte(cfg.SessionKey))
		server := http.NewServer(services, sessions, cfg.Github.OAuth2(), http.Options{
			Prod:        cfg.IsProd(),
			CSRFEnabled: cfg.CSRFEnabled,
			CSRFKey:     []byte(cfg.CSRFKey),
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, cfg.Port)
	})
}

// clearUserImages removes the image files of every user in the database.
func clearUserImages(gdb *gorm.DB, is domain.ImageService) error {
	if !gdb.Migrator().HasTable(&domain.User{}) {
		return nil
	}
	var ids []int
	if err := gdb.Model(&domain.User{}).Pluck("id", &ids).Error; err != nil {
		return err
	}
	for _, id := range ids {
		if err := is.DeleteAll(domain.OwnerTypeUser, id); err != nil {
			return err
		}
	}
	logrus.WithField("users", len(ids)).Info("removed stored images")
	return nil
}
