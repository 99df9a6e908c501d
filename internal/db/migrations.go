package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS roles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(128) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		permissions JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		username VARCHAR(128) NOT NULL UNIQUE,
		full_name VARCHAR(256) NOT NULL DEFAULT '',
		email VARCHAR(256) NOT NULL DEFAULT '',
		password_hash VARCHAR(256) NOT NULL,
		role_id UUID NOT NULL REFERENCES roles(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS clients (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(256) NOT NULL,
		phone VARCHAR(64) NOT NULL DEFAULT '',
		email VARCHAR(256) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS client_objects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		client_id UUID NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		name VARCHAR(256) NOT NULL,
		address TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(256) NOT NULL,
		phone VARCHAR(64) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS warehouses (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(256) NOT NULL,
		address TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS bid_types (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(256) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		planned_reaction_minutes INT NOT NULL DEFAULT 0,
		planned_duration_minutes INT NOT NULL DEFAULT 0,
		statuses JSONB NOT NULL DEFAULT '[]',
		transitions JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS bids (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		client_id UUID NOT NULL REFERENCES clients(id),
		client_object_id UUID REFERENCES client_objects(id),
		bid_type_id UUID NOT NULL REFERENCES bid_types(id),
		status VARCHAR(256) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_by UUID NOT NULL REFERENCES users(id),
		current_responsible_user_id UUID REFERENCES users(id),
		assigned_at TIMESTAMPTZ,
		planned_resolution_date TIMESTAMPTZ,
		planned_duration_minutes INT NOT NULL DEFAULT 0,
		spent_time_hours NUMERIC(10,2) NOT NULL DEFAULT 0,
		parent_id UUID REFERENCES bids(id),
		amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_client_id ON bids (client_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_bid_type_id ON bids (bid_type_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_status ON bids (bid_type_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_responsible ON bids (current_responsible_user_id) WHERE current_responsible_user_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS equipment (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(256) NOT NULL,
		product_code VARCHAR(128) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		selling_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS equipment_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		equipment_id UUID NOT NULL REFERENCES equipment(id),
		imei VARCHAR(64),
		purchase_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		supplier_id UUID NOT NULL REFERENCES suppliers(id),
		warehouse_id UUID NOT NULL REFERENCES warehouses(id),
		bid_id UUID REFERENCES bids(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_equipment_items_equipment_id ON equipment_items (equipment_id);`,
	`CREATE INDEX IF NOT EXISTS idx_equipment_items_bid_id ON equipment_items (bid_id) WHERE bid_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_equipment_items_available ON equipment_items (equipment_id) WHERE bid_id IS NULL;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
