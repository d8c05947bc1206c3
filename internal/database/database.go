package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"quickpoll/internal/config"
	"quickpoll/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewLogger returns the GORM logger writing to w: warnings and slow queries by
// default, every statement when debug is set. Lookups that find no row are expected
// and are not logged as errors.
func NewLogger(w logger.Writer, debug bool) logger.Interface {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Open connects to the configured database and migrates the schema.
//
// TranslateError is enabled so that unique and foreign key violations surface as
// gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated for both drivers.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         NewLogger(log.New(os.Stdout, "\r\n", log.LstdFlags), cfg.DBDebug),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.DatabaseDSN))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		// one writer at a time; concurrent writers would hit SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Printf("Connected to %s database", cfg.DBDriver)
	return db, nil
}

// Migrate creates or updates the tables. Order matters for foreign keys.
func Migrate(db *gorm.DB) error {
	for _, m := range []interface{}{&models.User{}, &models.Poll{}, &models.Option{}, &models.Vote{}} {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// SQLiteDSN makes sure foreign key enforcement is on, which SQLite disables by
// default. Without it the cascades between polls, options and votes do nothing.
func SQLiteDSN(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.Contains(lower, "_foreign_keys=") || strings.Contains(lower, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// Ping checks that the database answers.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
