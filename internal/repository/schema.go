package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		cart_data JSON NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		new_price NUMERIC(12, 2) NOT NULL,
		old_price NUMERIC(12, 2) NOT NULL,
		date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		available BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS payment_intents (
		intent_id TEXT PRIMARY KEY,
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL,
		receipt TEXT NOT NULL DEFAULT '',
		notes JSONB,
		status TEXT NOT NULL,
		payment_id TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		intent_id TEXT,
		payment_id TEXT NOT NULL,
		delivery_info JSONB NOT NULL,
		total_cost NUMERIC(12, 2) NOT NULL,
		items JSON NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		order_date TIMESTAMPTZ NOT NULL,
		payment_date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS orders_payment_id_key ON orders (payment_id)`,
	`CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id, order_date DESC)`,
}

// Migrate creates the storefront tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
