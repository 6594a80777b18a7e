package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warbler/domain"
)

// DB provides the database connection.
type DB struct {
	// Object-relational mapping.
	Gorm *gorm.DB
	// Dialector knows how to reach the database, e.g. postgres.Open(dsn).
	Dialector gorm.Dialector
}

// NewDB returns a new instance of DB.
func NewDB(dialector gorm.Dialector) *DB {
	return &DB{
		Dialector: dialector,
	}
}

// models lists every table, in the order they have to be created.
func models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Message{},
		&domain.Follow{},
		&domain.Like{},
		&domain.OAuth{},
	}
}

// Open opens a new database connection. It also configures logging
// based on whether we're in development or in production.
func Open(db *DB, isProd bool) (err error) {
	if db.Dialector == nil {
		return fmt.Errorf("dialector required")
	}
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if !isProd {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	db.Gorm, err = gorm.Open(db.Dialector, cfg)
	if err != nil {
		return fmt.Errorf("err opening gorm %s connection: %w", db.Dialector.Name(), err)
	}
	return nil
}

// AutoMigrate runs database migrations for all tables.
func AutoMigrate(db *DB) error {
	return db.Gorm.AutoMigrate(models()...)
}

// DestructiveReset drops all tables and rebuilds them.
func DestructiveReset(db *DB) error {
	m := models()
	// Drop dependent tables first.
	for i := len(m) - 1; i >= 0; i-- {
		if err := db.Gorm.Migrator().DropTable(m[i]); err != nil {
			return err
		}
	}
	return AutoMigrate(db)
}

// Close closes the database connection.
func Close(db *DB) error {
	sqlDb, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}
