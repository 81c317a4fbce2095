package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/config"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New connects to the catalog database. Postgres in deployment; sqlite is
// the local-dev fallback selected by DB_DRIVER=sqlite.
func New(log *logger.Logger, cfg *config.Config) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresName,
		)
		dialector = postgres.Open(dsn)
	}

	serviceLog.Info("connecting to catalog database", "driver", cfg.DBDriver)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to catalog database: %w", err)
	}

	if cfg.DBDriver != "sqlite" {
		if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
		}
	}

	return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("auto migrating catalog tables")
	err := s.db.AutoMigrate(
		&domain.User{},
		&domain.UserToken{},
		&domain.LoginToken{},
		&domain.Project{},
		&domain.Document{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
