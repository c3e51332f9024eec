// Package store opens the todo repository selected by the DATABASE_URL scheme.
package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/todo/internal/config"
	mongoInfra "github.com/fastygo/todo/internal/infrastructure/mongo"
	pgInfra "github.com/fastygo/todo/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/todo/internal/infrastructure/redis"
	"github.com/fastygo/todo/repository"
	boltRepo "github.com/fastygo/todo/repository/bolt"
	mongoRepo "github.com/fastygo/todo/repository/mongo"
	pgRepo "github.com/fastygo/todo/repository/postgres"
	redisRepo "github.com/fastygo/todo/repository/redis"
	sqliteRepo "github.com/fastygo/todo/repository/sqlite"
)

// Driver names a supported document store backend.
type Driver string

const (
	DriverMongo    Driver = "mongo"
	DriverPostgres Driver = "postgres"
	DriverRedis    Driver = "redis"
	DriverBolt     Driver = "bolt"
	DriverSQLite   Driver = "sqlite"
)

// Store bundles the opened repository with its health probe and closer.
type Store struct {
	Driver Driver
	Todos  repository.TodoRepository
	Pinger repository.Pinger
	close  func(ctx context.Context) error
}

// Close releases the underlying connection or file.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Target is a parsed DATABASE_URL.
type Target struct {
	Driver Driver
	// Location is the full URL for networked drivers and the file path for
	// embedded ones.
	Location string
}

// Parse maps a connection string onto a driver.
func Parse(rawURL string) (Target, error) {
	rawURL = strings.TrimSpace(rawURL)
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return Target{}, fmt.Errorf("store url %q has no scheme", rawURL)
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return Target{Driver: DriverMongo, Location: rawURL}, nil
	case "postgres", "postgresql":
		return Target{Driver: DriverPostgres, Location: rawURL}, nil
	case "redis", "rediss":
		return Target{Driver: DriverRedis, Location: rawURL}, nil
	case "bolt", "bbolt":
		if rest == "" {
			return Target{}, fmt.Errorf("bolt url needs a file path")
		}
		return Target{Driver: DriverBolt, Location: rest}, nil
	case "sqlite", "sqlite3":
		if rest == "" {
			return Target{}, fmt.Errorf("sqlite url needs a file path")
		}
		return Target{Driver: DriverSQLite, Location: rest}, nil
	default:
		return Target{}, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}

// Open connects to the configured store.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	target, err := Parse(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	switch target.Driver {
	case DriverMongo:
		client, db, err := mongoInfra.Connect(ctx, target.Location, logger)
		if err != nil {
			return nil, fmt.Errorf("mongo connection failed: %w", err)
		}
		repo := mongoRepo.NewTodoRepository(db)
		return &Store{
			Driver: target.Driver,
			Todos:  repo,
			Pinger: repo.(repository.Pinger),
			close:  client.Disconnect,
		}, nil

	case DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		repo := pgRepo.NewTodoRepository(pool)
		return &Store{
			Driver: target.Driver,
			Todos:  repo,
			Pinger: repo.(repository.Pinger),
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case DriverRedis:
		client, err := redisInfra.NewClient(ctx, target.Location, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		repo := redisRepo.NewTodoRepository(client)
		return &Store{
			Driver: target.Driver,
			Todos:  repo,
			Pinger: repo.(repository.Pinger),
			close: func(context.Context) error {
				return client.Close()
			},
		}, nil

	case DriverBolt:
		db, err := boltRepo.Open(target.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		logger.Info("opened bolt store", zap.String("path", target.Location))
		return &Store{
			Driver: target.Driver,
			Todos:  db,
			Pinger: db,
			close: func(context.Context) error {
				return db.Close()
			},
		}, nil

	case DriverSQLite:
		db, err := sqliteRepo.Open(ctx, target.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("opened sqlite store", zap.String("path", target.Location))
		return &Store{
			Driver: target.Driver,
			Todos:  db,
			Pinger: db,
			close: func(context.Context) error {
				return db.Close()
			},
		}, nil
	}

	return nil, fmt.Errorf("unsupported store driver %q", target.Driver)
}
