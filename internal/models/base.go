package models

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string // "mysql" or "sqlite"
	DSN    string
}

// InitDB opens the database connection for the configured driver and migrates
// the schema. The handle is returned to the caller; nothing is stored in a
// package-level variable.
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch config.Driver {
	case "mysql":
		dialector = mysql.Open(config.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	// TranslateError maps driver unique-violation errors to gorm.ErrDuplicatedKey,
	// which the stores rely on for atomic duplicate detection.
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate the database models
	if err := db.AutoMigrate(&Credential{}, &AnalysisRecord{}); err != nil {
		return nil, err
	}

	return db, nil
}
