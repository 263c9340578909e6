package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jblanchet/locmat/internal/model"
)

// CreateItem creates a new catalog item.
func CreateItem(ctx context.Context, db *sql.DB, item model.Item) (*model.Item, error) {
	if item.Total < 0 {
		return nil, fmt.Errorf("invalid total %d: must not be negative", item.Total)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, category, total, unit_value, margin) VALUES (?, ?, ?, ?, ?)`,
		item.Name, item.Category, item.Total, item.UnitValue, item.Margin,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns a catalog item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	var photoMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, category, total, unit_value, margin, rental_count, profit, photo_mime
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &item.Category, &item.Total, &item.UnitValue,
		&item.Margin, &item.RentalCount, &item.Profit, &photoMime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.PhotoMime = photoMime.String
	return item, nil
}

// ListItems returns all catalog items, optionally filtered by category.
func ListItems(ctx context.Context, db *sql.DB, category string) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if category != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT id, name, category, total, unit_value, margin, rental_count, profit, photo_mime
			 FROM items WHERE category = ? ORDER BY name`, category,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT id, name, category, total, unit_value, margin, rental_count, profit, photo_mime
			 FROM items ORDER BY name`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var photoMime sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Total, &item.UnitValue,
			&item.Margin, &item.RentalCount, &item.Profit, &photoMime); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.PhotoMime = photoMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem overwrites a catalog item's fields. Returns false when the item
// does not exist.
func UpdateItem(ctx context.Context, db *sql.DB, item model.Item) (bool, error) {
	if item.Total < 0 {
		return false, fmt.Errorf("invalid total %d: must not be negative", item.Total)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, total = ?, unit_value = ?, margin = ?,
		        rental_count = ?, profit = ?
		 WHERE id = ?`,
		item.Name, item.Category, item.Total, item.UnitValue, item.Margin,
		item.RentalCount, item.Profit, item.ID,
	)
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking item update: %w", err)
	}
	return n > 0, nil
}

// DeleteItem removes a catalog item. Returns false when the item does not
// exist. Fails while documents still reference the item.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking item deletion: %w", err)
	}
	return n > 0, nil
}

// RecordItemUsage increments an item's lifetime counters after a rental:
// outings units went out, and profit was earned. Non-positive values leave
// the corresponding counter untouched.
func RecordItemUsage(ctx context.Context, db *sql.DB, id int64, outings int, profit float64) error {
	item, err := GetItem(ctx, db, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %d: %w", id, sql.ErrNoRows)
	}

	if outings > 0 {
		_, err := db.ExecContext(ctx,
			`UPDATE items SET rental_count = rental_count + ? WHERE id = ?`,
			outings, id,
		)
		if err != nil {
			return fmt.Errorf("updating rental count: %w", err)
		}
	}

	if profit > 0 {
		_, err := db.ExecContext(ctx,
			`UPDATE items SET profit = profit + ? WHERE id = ?`,
			profit, id,
		)
		if err != nil {
			return fmt.Errorf("updating profit: %w", err)
		}
	}

	return nil
}

// SetItemPhoto stores an item's photo.
func SetItemPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ? WHERE id = ?`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns an item's photo data and MIME type.
func GetItemPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}

// GetItemInvoiceHistory returns the invoices that reserved an item, newest
// first.
func GetItemInvoiceHistory(ctx context.Context, db *sql.DB, itemID int64) ([]model.ItemInvoiceSummary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT f.id, f.name, f.date, fi.quantity, fi.duration
		 FROM invoices f
		 JOIN invoice_items fi ON fi.invoice_id = f.id
		 WHERE fi.item_id = ?
		 GROUP BY f.id
		 ORDER BY f.date DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item invoice history: %w", err)
	}
	defer rows.Close()

	var history []model.ItemInvoiceSummary
	for rows.Next() {
		var s model.ItemInvoiceSummary
		if err := rows.Scan(&s.InvoiceID, &s.Name, &s.Date, &s.Quantity, &s.Duration); err != nil {
			return nil, fmt.Errorf("scanning invoice history: %w", err)
		}
		history = append(history, s)
	}
	return history, rows.Err()
}
