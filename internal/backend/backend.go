// Package backend opens the member and activity stores selected by the environment.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/datastore"
	"github.com/caarlos0/env/v11"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	aa "github.com/softwerkskammer/agoraauth"
	"github.com/softwerkskammer/agoraauth/activities"
	"github.com/softwerkskammer/agoraauth/stores"
	"github.com/softwerkskammer/agoraauth/stores/gae"
	gormstore "github.com/softwerkskammer/agoraauth/stores/gorm"
)

const (
	KindFS        = "fs"
	KindPostgres  = "postgres"
	KindDatastore = "datastore"
)

type Config struct {
	Kind        string `env:"STORE_BACKEND" envDefault:"fs"`
	StoragePath string `env:"STORAGE_PATH" envDefault:"./data"`
	DatabaseURL string `env:"DATABASE_URL"`

	DatastoreProject   string `env:"DATASTORE_PROJECT"`
	DatastoreNamespace string `env:"DATASTORE_NAMESPACE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing backend config: %w", err)
	}
	return cfg, nil
}

// Stores are the opened stores plus a function releasing their connections.
type Stores struct {
	Members    aa.MemberStore
	Activities activities.Store
	Close      func() error
}

func Open(ctx context.Context, cfg Config) (*Stores, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", KindFS:
		return &Stores{
			Members:    stores.NewFSMemberStore(cfg.StoragePath),
			Activities: stores.NewFSActivityStore(cfg.StoragePath),
			Close:      func() error { return nil },
		}, nil

	case KindPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL required for backend %q", cfg.Kind)
		}
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err := gormstore.AutoMigrate(db.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &Stores{
			Members:    gormstore.NewMemberStore(db),
			Activities: gormstore.NewActivityStore(db),
			Close:      sqlDB.Close,
		}, nil

	case KindDatastore:
		client, err := datastore.NewClient(ctx, cfg.DatastoreProject)
		if err != nil {
			return nil, fmt.Errorf("opening datastore: %w", err)
		}
		return &Stores{
			Members:    gae.NewMemberStore(client, cfg.DatastoreNamespace),
			Activities: gae.NewActivityStore(client, cfg.DatastoreNamespace),
			Close:      client.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Kind)
}

// NewLogger builds the process logger. Levels are debug, info, warn and error.
func NewLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
