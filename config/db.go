package config

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"careerhub-backend/errors"
	"careerhub-backend/logger"
	"careerhub-backend/models/career"
	"careerhub-backend/models/documents"
	"careerhub-backend/models/functions"
	"careerhub-backend/models/interview"
	"careerhub-backend/models/jobs"
	"careerhub-backend/models/users"
)

// PostgresDSN builds the postgres connection string unless one was given verbatim.
func (c DBConfig) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// InitDB opens the configured database.
func InitDB(c DBConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         newDBLogger(logger.ComponentLogger("db")),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch c.Driver {
	case "sqlite":
		dsn := c.DSN
		if dsn == "" {
			dsn = "careerhub.sqlite"
		}
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(c.PostgresDSN())
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", c.Driver)
	}
	if c.Driver == "sqlite" {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, errors.Wrap(err, "enable sqlite foreign keys")
		}
	}
	return db, nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&users.User{},
		&users.Skill{},
		&users.Preferences{},
		&jobs.Job{},
		&jobs.Contact{},
		&documents.Resume{},
		&documents.CoverLetter{},
		&documents.Export{},
		&career.Certification{},
		&career.Employment{},
		&career.PlanCareer{},
		&interview.Prediction{},
		&interview.ResponseEntry{},
		&interview.Challenge{},
		&functions.Invocation{},
	}
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return errors.Wrap(err, "auto-migrate")
	}
	return nil
}

// Ping checks the underlying connection pool.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(errors.ErrServiceUnavailable, err.Error())
	}
	return nil
}
