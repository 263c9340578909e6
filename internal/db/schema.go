package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// Quotes and invoices are two physically distinct tables of identical shape:
// each namespace owns its own id sequence. Line item and extra tables cascade
// on document deletion, so removing a document never needs explicit child
// cleanup.
const schema = `
CREATE TABLE IF NOT EXISTS clients (
    id      INTEGER PRIMARY KEY,
    name    TEXT NOT NULL,
    event   TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    phone   TEXT NOT NULL DEFAULT '',
    email   TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_name_event ON clients(name, event);

CREATE TABLE IF NOT EXISTS items (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    category     TEXT NOT NULL DEFAULT '',
    total        INTEGER NOT NULL DEFAULT 0 CHECK (total >= 0),
    unit_value   REAL NOT NULL DEFAULT 0,
    margin       REAL NOT NULL DEFAULT 0,
    rental_count INTEGER NOT NULL DEFAULT 0,
    profit       REAL NOT NULL DEFAULT 0,
    photo        BLOB,
    photo_mime   TEXT
);

CREATE TABLE IF NOT EXISTS quotes (
    id            INTEGER PRIMARY KEY,
    client_id     INTEGER NOT NULL REFERENCES clients(id),
    name          TEXT NOT NULL DEFAULT '',
    date          TEXT NOT NULL,
    created_date  TEXT NOT NULL,
    duration      INTEGER NOT NULL DEFAULT 1,
    tech_count    INTEGER NOT NULL DEFAULT 0,
    tech_rate     REAL NOT NULL DEFAULT 0,
    distance_km   INTEGER NOT NULL DEFAULT 0,
    distance_rate REAL NOT NULL DEFAULT 0,
    membership    INTEGER NOT NULL DEFAULT 0,
    discount      REAL NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'draft'
        CHECK (status IN ('draft', 'sent', 'validated', 'invoice', 'cancelled'))
);

CREATE TABLE IF NOT EXISTS quote_items (
    id       INTEGER PRIMARY KEY,
    quote_id INTEGER NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
    item_id  INTEGER NOT NULL REFERENCES items(id),
    quantity INTEGER NOT NULL CHECK (quantity >= 0),
    duration INTEGER NOT NULL DEFAULT 1,
    status   TEXT NOT NULL DEFAULT 'draft'
        CHECK (status IN ('draft', 'sent', 'validated', 'invoice', 'cancelled'))
);

CREATE TABLE IF NOT EXISTS quote_extras (
    id       INTEGER PRIMARY KEY,
    quote_id INTEGER NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
    label    TEXT NOT NULL,
    price    REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS invoices (
    id            INTEGER PRIMARY KEY,
    client_id     INTEGER NOT NULL REFERENCES clients(id),
    name          TEXT NOT NULL DEFAULT '',
    date          TEXT NOT NULL,
    created_date  TEXT NOT NULL,
    duration      INTEGER NOT NULL DEFAULT 1,
    tech_count    INTEGER NOT NULL DEFAULT 0,
    tech_rate     REAL NOT NULL DEFAULT 0,
    distance_km   INTEGER NOT NULL DEFAULT 0,
    distance_rate REAL NOT NULL DEFAULT 0,
    membership    INTEGER NOT NULL DEFAULT 0,
    discount      REAL NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'invoice'
        CHECK (status IN ('draft', 'sent', 'validated', 'invoice', 'cancelled'))
);

CREATE TABLE IF NOT EXISTS invoice_items (
    id         INTEGER PRIMARY KEY,
    invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    item_id    INTEGER NOT NULL REFERENCES items(id),
    quantity   INTEGER NOT NULL CHECK (quantity >= 0),
    duration   INTEGER NOT NULL DEFAULT 1,
    status     TEXT NOT NULL DEFAULT 'draft'
        CHECK (status IN ('draft', 'sent', 'validated', 'invoice', 'cancelled'))
);

CREATE TABLE IF NOT EXISTS invoice_extras (
    id         INTEGER PRIMARY KEY,
    invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    label      TEXT NOT NULL,
    price      REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the
// end.
var migrations = []string{
	`CREATE INDEX IF NOT EXISTS idx_quote_items_item ON quote_items(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_items_item ON invoice_items(item_id)`,
}

// Migrate creates the schema if needed and applies migrations.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
