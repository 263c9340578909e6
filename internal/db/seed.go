package db

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminPassword is the admin password stored on first run. The admin
// is expected to change it after logging in.
const DefaultAdminPassword = "admin"

// defaultItemCategories is the bundled item-type taxonomy. The engine treats
// it as an opaque blob; only the UI interprets it.
const defaultItemCategories = `["son", "lumiere", "structure", "cablage", "divers"]`

// defaultPricingFormulas is the bundled pricing configuration, also opaque
// to the engine.
const defaultPricingFormulas = `{"day_rate_multiplier": 1.0, "degressive": [1.0, 0.8, 0.6]}`

// Seed populates a fresh database with the bundled default dataset: the
// admin password hash and the default configuration blobs. Existing rows are
// left untouched, so calling it on an already-seeded database is a no-op.
func Seed(ctx context.Context, db *sql.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing default admin password: %w", err)
	}

	defaults := map[string]string{
		"admin_password_hash": string(hash),
		"item_categories":     defaultItemCategories,
		"pricing_formulas":    defaultPricingFormulas,
	}

	for key, value := range defaults {
		_, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("seeding setting %q: %w", key, err)
		}
	}

	return nil
}
