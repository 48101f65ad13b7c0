package storage

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id                  UUID PRIMARY KEY,
	name                TEXT NOT NULL,
	slug                TEXT NOT NULL UNIQUE,
	subscription_plan   TEXT NOT NULL DEFAULT 'free',
	subscription_status TEXT NOT NULL DEFAULT 'trial',
	max_users           INT NOT NULL DEFAULT 5,
	max_properties      INT NOT NULL DEFAULT 100,
	settings            JSONB NOT NULL DEFAULT '{}',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at          TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS identities (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
	id         UUID PRIMARY KEY REFERENCES identities(id),
	tenant_id  UUID NOT NULL REFERENCES tenants(id),
	email      TEXT NOT NULL,
	full_name  TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT 'user',
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS profiles_tenant_idx ON profiles (tenant_id);

CREATE TABLE IF NOT EXISTS leads (
	id              UUID PRIMARY KEY,
	tenant_id       UUID NOT NULL REFERENCES tenants(id),
	name            TEXT NOT NULL,
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	alternate_phone TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'New',
	source          TEXT NOT NULL DEFAULT '',
	priority        TEXT NOT NULL DEFAULT 'medium',
	assigned_to     UUID REFERENCES profiles(id),
	custom_fields   JSONB NOT NULL DEFAULT '{}',
	notes           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at      TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS leads_tenant_idx ON leads (tenant_id) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS properties (
	id            UUID PRIMARY KEY,
	tenant_id     UUID NOT NULL REFERENCES tenants(id),
	name          TEXT NOT NULL,
	address       TEXT NOT NULL DEFAULT '',
	city          TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	zip_code      TEXT NOT NULL DEFAULT '',
	type          TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'available',
	price         NUMERIC(14,2) NOT NULL DEFAULT 0,
	bedrooms      INT NOT NULL DEFAULT 0,
	bathrooms     INT NOT NULL DEFAULT 0,
	area_sqft     NUMERIC(12,2) NOT NULL DEFAULT 0,
	configuration JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS properties_tenant_idx ON properties (tenant_id) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
	id         UUID PRIMARY KEY,
	tenant_id  UUID NOT NULL REFERENCES tenants(id),
	type       TEXT NOT NULL,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INT NOT NULL DEFAULT 0,
	UNIQUE (tenant_id, type, name)
);

CREATE TABLE IF NOT EXISTS activity (
	id         UUID NOT NULL,
	tenant_id  UUID NOT NULL,
	table_name TEXT NOT NULL,
	action     TEXT NOT NULL,
	row_id     UUID,
	actor_id   UUID,
	payload    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
) PARTITION BY LIST (tenant_id);
`

// Migrate creates any missing tables.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
