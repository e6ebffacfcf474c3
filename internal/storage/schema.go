package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// CreateSchema bootstraps all tables and indexes. The partial unique index
// on customers closes the check-then-act race on session creation: two
// concurrent first orders for one table cannot both insert an active
// customer.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS hotels (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			address VARCHAR(255) NOT NULL DEFAULT '',
			owner_id VARCHAR(64) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			hotel_id VARCHAR(64),
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS dev_keys (
			key VARCHAR(255) PRIMARY KEY,
			is_used BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS tables (
			id VARCHAR(64) PRIMARY KEY,
			hotel_id VARCHAR(64) NOT NULL,
			number INTEGER NOT NULL,
			sequence INTEGER NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'free'
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id VARCHAR(64) PRIMARY KEY,
			hotel_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ingredients (
			id VARCHAR(64) PRIMARY KEY,
			hotel_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS offers (
			id VARCHAR(64) PRIMARY KEY,
			hotel_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			discount_percent DECIMAL(5,2) NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS dishes (
			id VARCHAR(64) PRIMARY KEY,
			hotel_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			category_id VARCHAR(64),
			applied_offer VARCHAR(64),
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS dish_ingredients (
			dish_id VARCHAR(64) NOT NULL REFERENCES dishes(id) ON DELETE CASCADE,
			ingredient_id VARCHAR(64) NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
			PRIMARY KEY (dish_id, ingredient_id)
		)`,
		`CREATE TABLE IF NOT EXISTS bills (
			id VARCHAR(64) PRIMARY KEY,
			hotel_id VARCHAR(64) NOT NULL,
			table_id VARCHAR(64) NOT NULL,
			customer_name VARCHAR(255) NOT NULL DEFAULT '',
			total_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			total_discount DECIMAL(10,2) NOT NULL DEFAULT 0,
			final_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL DEFAULT 'open',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bill_items (
			bill_id VARCHAR(64) NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
			dish_id VARCHAR(64) NOT NULL,
			quantity INTEGER NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			PRIMARY KEY (bill_id, dish_id)
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id VARCHAR(64) PRIMARY KEY,
			hotel_id VARCHAR(64) NOT NULL,
			table_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			bill_id VARCHAR(64) NOT NULL REFERENCES bills(id),
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_active_table
			ON customers(table_id) WHERE active`,
		`CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR(64) PRIMARY KEY,
			customer_id VARCHAR(64) NOT NULL,
			bill_id VARCHAR(64) NOT NULL,
			table_id VARCHAR(64) NOT NULL,
			hotel_id VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'draft',
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id VARCHAR(64) NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			dish_id VARCHAR(64) NOT NULL,
			quantity INTEGER NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (order_id, dish_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dishes_hotel_id ON dishes(hotel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_table_id ON orders(table_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tables_hotel_id ON tables(hotel_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return errors.Wrap(err, "create schema")
		}
	}
	return nil
}

// SeedDevKey registers a super-admin registration key if it is not present.
func SeedDevKey(ctx context.Context, db *sql.DB, key string) error {
	if key == "" {
		return nil
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO dev_keys (key) VALUES ($1) ON CONFLICT (key) DO NOTHING`, key)
	return errors.Wrap(err, "seed dev key")
}
