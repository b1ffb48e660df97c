package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Stores bundles the repositories selected by the database driver.
type Stores struct {
	Orders   OrderRepository
	Intents  IntentRepository
	Users    UserRepository
	Products ProductRepository
	// DB is nil for the memory driver.
	DB *sql.DB
}

// OpenStores connects to the configured backend and applies the schema.
func OpenStores(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger) (*Stores, error) {
	switch cfg.Driver {
	case DriverMemory:
		logger.Warn("Using in-memory stores, data is lost on restart")
		return &Stores{
			Orders:   NewMemoryOrderRepository(),
			Intents:  NewMemoryIntentRepository(),
			Users:    NewMemoryUserRepository(),
			Products: NewMemoryProductRepository(),
		}, nil
	case DriverPostgres, "":
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Database connected", logging.Fields{
		"host": cfg.Host,
		"name": cfg.Name,
	})

	return &Stores{
		Orders:   NewPostgresOrderRepository(db, logger),
		Intents:  NewPostgresIntentRepository(db, logger),
		Users:    NewPostgresUserRepository(db, logger),
		Products: NewPostgresProductRepository(db, logger),
		DB:       db,
	}, nil
}

// Ping checks the backing database, if any.
func (s *Stores) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.PingContext(ctx)
}

func (s *Stores) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
