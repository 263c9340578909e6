package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jblanchet/locmat/internal/model"
)

// UpsertClient finds a client by exact (name, event) match and overwrites
// its contact fields, or inserts a new row when no match exists. Callers do
// not deduplicate clients; identity lives here. Returns the client id.
//
// Runs on whatever handle it is given so document saves can call it inside
// their transaction.
func UpsertClient(ctx context.Context, q querier, c model.Client) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM clients WHERE name = ? AND event = ?`,
		c.Name, c.Event,
	).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		result, err := q.ExecContext(ctx,
			`INSERT INTO clients (name, event, address, phone, email) VALUES (?, ?, ?, ?, ?)`,
			c.Name, c.Event, c.Address, c.Phone, c.Email,
		)
		if err != nil {
			return 0, fmt.Errorf("creating client: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("getting client id: %w", err)
		}
		return id, nil

	case err != nil:
		return 0, fmt.Errorf("finding client: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE clients SET address = ?, phone = ?, email = ? WHERE id = ?`,
		c.Address, c.Phone, c.Email, id,
	)
	if err != nil {
		return 0, fmt.Errorf("updating client: %w", err)
	}
	return id, nil
}

// GetClient returns a client by ID.
func GetClient(ctx context.Context, db *sql.DB, id int64) (*model.Client, error) {
	c := &model.Client{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, event, address, phone, email FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Event, &c.Address, &c.Phone, &c.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting client: %w", err)
	}
	return c, nil
}

// ListClients returns all clients ordered by name.
func ListClients(ctx context.Context, db *sql.DB) ([]model.Client, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, event, address, phone, email FROM clients ORDER BY name, event`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Event, &c.Address, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
