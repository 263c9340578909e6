package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jblanchet/locmat/internal/model"
)

// dateFormat is the ISO calendar-date layout all stored dates use.
const dateFormat = "2006-01-02"

// ItemAvailability returns how many units of an item remain reservable over
// [date, date+duration days), ignoring the reservations held by
// excludeDocID so that re-checking an existing quote does not count against
// itself. Pass 0 to exclude nothing.
//
// Confirmed quote line items are the only ones that hold units: a line item
// counts when its status maps to a confirmed reservation and its document's
// range [doc date, doc date + line duration) overlaps the proposed range,
// both half-open. The result is floored at zero, never negative.
func ItemAvailability(ctx context.Context, db *sql.DB, itemID, excludeDocID int64, date string, duration int) (int, error) {
	return itemAvailability(ctx, db, itemID, excludeDocID, date, duration)
}

func itemAvailability(ctx context.Context, q querier, itemID, excludeDocID int64, date string, duration int) (int, error) {
	if _, err := time.Parse(dateFormat, date); err != nil {
		return 0, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid duration %d: must be at least 1 day", duration)
	}

	var total int
	err := q.QueryRowContext(ctx,
		`SELECT total FROM items WHERE id = ?`, itemID,
	).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("item %d: %w", itemID, err)
	}
	if err != nil {
		return 0, fmt.Errorf("getting item total: %w", err)
	}

	// Half-open overlap: a reservation holds units on the proposed range
	// when doc_start < proposed_end and doc_end > proposed_start.
	var reserved int
	err = q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(qi.quantity), 0)
		 FROM quote_items qi
		 JOIN quotes q ON q.id = qi.quote_id
		 WHERE qi.item_id = ?1
		   AND qi.status = ?2
		   AND q.id != ?3
		   AND DATE(q.date) < DATE(?4, '+' || ?5 || ' days')
		   AND DATE(q.date, '+' || qi.duration || ' days') > DATE(?4)`,
		itemID, model.StatusValidated, excludeDocID, date, duration,
	).Scan(&reserved)
	if err != nil {
		return 0, fmt.Errorf("summing reservations for item %d: %w", itemID, err)
	}

	available := total - reserved
	if available < 0 {
		available = 0
	}
	return available, nil
}
