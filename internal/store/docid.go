package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jblanchet/locmat/internal/model"
)

// querier is the subset of *sql.DB and *sql.Tx the read helpers need, so
// they can run standalone or inside an open transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// maxMonthlySequence is the highest per-month sequence the YYYYMMSS format
// can encode.
const maxMonthlySequence = 99

// NextDocumentID computes the next document id for a namespace at the given
// time. Ids encode YYYYMMSS: year, zero-padded month, and a two-digit
// per-month sequence starting at 1. The sequence continues from the highest
// existing id when it belongs to the same year and month, and resets to 1
// otherwise.
//
// The id is a pure function of the table's current maximum and now: calling
// it twice without an intervening insert yields the same value. It must run
// on the serialized handle (or inside the transaction that will insert the
// id); there is no database-level uniqueness sequence backing it.
//
// A month that exhausts the two-digit sequence is an error, not a wrap.
func NextDocumentID(ctx context.Context, q querier, ns model.Namespace, now time.Time) (int64, error) {
	t, err := tablesFor(ns)
	if err != nil {
		return 0, err
	}

	var lastID sql.NullInt64
	err = q.QueryRowContext(ctx,
		`SELECT MAX(id) FROM `+t.doc,
	).Scan(&lastID)
	if err != nil {
		return 0, fmt.Errorf("reading last %s id: %w", ns, err)
	}

	year, month := now.Year(), int(now.Month())

	seq := 1
	if lastID.Valid {
		lastYear := lastID.Int64 / 10000
		lastMonth := (lastID.Int64 / 100) % 100
		lastSeq := lastID.Int64 % 100

		if int(lastYear) == year && int(lastMonth) == month {
			seq = int(lastSeq) + 1
		}
	}

	if seq > maxMonthlySequence {
		return 0, fmt.Errorf("%s id sequence exhausted for %04d-%02d: %d documents this month", ns, year, month, maxMonthlySequence)
	}

	return int64(year)*10000 + int64(month)*100 + int64(seq), nil
}
