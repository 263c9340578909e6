package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jblanchet/locmat/internal/model"
)

// ErrInsufficientStock rejects a save whose confirmed reservations would
// exceed an item's catalog total over the requested date range.
var ErrInsufficientStock = errors.New("insufficient availability")

// docTables holds the table family of a document namespace.
type docTables struct {
	doc    string
	items  string
	extras string
	fk     string
}

func tablesFor(ns model.Namespace) (docTables, error) {
	switch ns {
	case model.NamespaceQuote:
		return docTables{doc: "quotes", items: "quote_items", extras: "quote_extras", fk: "quote_id"}, nil
	case model.NamespaceInvoice:
		return docTables{doc: "invoices", items: "invoice_items", extras: "invoice_extras", fk: "invoice_id"}, nil
	}
	return docTables{}, fmt.Errorf("unknown document namespace %q", ns)
}

// SaveDocument persists a full document payload in one transaction: the
// client is upserted by (name, event), the header inserted or updated, and
// the line items and extras fully replaced. When the payload carries no id,
// or an id unknown to the namespace, a fresh id is allocated. Returns the
// (possibly new) document id.
//
// Confirmed quote reservations are checked against item availability before
// anything is written; a line that asks for more units than remain over its
// date range rejects the whole save.
func SaveDocument(ctx context.Context, db *sql.DB, ns model.Namespace, full model.FullDocument) (int64, error) {
	t, err := tablesFor(ns)
	if err != nil {
		return 0, err
	}

	doc := full.Document
	if full.Client.Name == "" {
		return 0, fmt.Errorf("client name required")
	}
	if _, err := time.Parse(dateFormat, doc.Date); err != nil {
		return 0, fmt.Errorf("invalid document date %q: expected YYYY-MM-DD", doc.Date)
	}
	if !model.ValidStatus(doc.Status) {
		return 0, fmt.Errorf("invalid document status %q", doc.Status)
	}
	if doc.Duration < 1 {
		return 0, fmt.Errorf("invalid document duration %d: must be at least 1 day", doc.Duration)
	}
	for _, li := range full.Items {
		if li.Quantity < 0 {
			return 0, fmt.Errorf("invalid quantity %d for item %d: must not be negative", li.Quantity, li.Item.ID)
		}
		if li.Duration < 1 {
			return 0, fmt.Errorf("invalid duration %d for item %d: must be at least 1 day", li.Duration, li.Item.ID)
		}
		if !model.ValidStatus(li.Status) {
			return 0, fmt.Errorf("invalid status %q for item %d", li.Status, li.Item.ID)
		}
	}
	if doc.CreatedDate == "" {
		doc.CreatedDate = time.Now().Format(dateFormat)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+t.doc+` WHERE id = ?)`, doc.ID,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("checking %s existence: %w", ns, err)
	}

	docID := doc.ID
	if docID == 0 || !exists {
		docID, err = NextDocumentID(ctx, tx, ns, time.Now())
		if err != nil {
			return 0, err
		}
	}

	// Confirmed reservations must fit the catalog before anything is
	// written. Excluding the document's own id keeps a re-save from
	// counting against itself.
	if ns == model.NamespaceQuote {
		for _, li := range full.Items {
			if !model.CountsTowardAvailability(li.Status) || li.Quantity == 0 {
				continue
			}
			available, err := itemAvailability(ctx, tx, li.Item.ID, docID, doc.Date, li.Duration)
			if err != nil {
				return 0, err
			}
			if li.Quantity > available {
				return 0, fmt.Errorf("item %d: requested %d units but only %d available from %s for %d days: %w",
					li.Item.ID, li.Quantity, available, doc.Date, li.Duration, ErrInsufficientStock)
			}
		}
	}

	clientID, err := UpsertClient(ctx, tx, full.Client)
	if err != nil {
		return 0, err
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE `+t.doc+` SET client_id = ?, name = ?, date = ?, created_date = ?, duration = ?,
			        tech_count = ?, tech_rate = ?, distance_km = ?, distance_rate = ?,
			        membership = ?, discount = ?, status = ?
			 WHERE id = ?`,
			clientID, doc.Name, doc.Date, doc.CreatedDate, doc.Duration,
			doc.TechCount, doc.TechRate, doc.DistanceKm, doc.DistanceRate,
			doc.Membership, doc.Discount, doc.Status, docID,
		)
		if err != nil {
			return 0, fmt.Errorf("updating %s %d: %w", ns, docID, err)
		}

		// Replace children wholesale: a line item removed from the payload
		// must not survive the update.
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t.items+` WHERE `+t.fk+` = ?`, docID); err != nil {
			return 0, fmt.Errorf("clearing %s line items: %w", ns, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t.extras+` WHERE `+t.fk+` = ?`, docID); err != nil {
			return 0, fmt.Errorf("clearing %s extras: %w", ns, err)
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO `+t.doc+` (id, client_id, name, date, created_date, duration,
			        tech_count, tech_rate, distance_km, distance_rate, membership, discount, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			docID, clientID, doc.Name, doc.Date, doc.CreatedDate, doc.Duration,
			doc.TechCount, doc.TechRate, doc.DistanceKm, doc.DistanceRate,
			doc.Membership, doc.Discount, doc.Status,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting %s %d: %w", ns, docID, err)
		}
	}

	for _, li := range full.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO `+t.items+` (`+t.fk+`, item_id, quantity, duration, status) VALUES (?, ?, ?, ?, ?)`,
			docID, li.Item.ID, li.Quantity, li.Duration, li.Status,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting line item for item %d: %w", li.Item.ID, err)
		}
	}

	for _, extra := range full.Extras {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO `+t.extras+` (`+t.fk+`, label, price) VALUES (?, ?, ?)`,
			docID, extra.Label, extra.Price,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting extra %q: %w", extra.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing %s save: %w", ns, err)
	}

	return docID, nil
}

// LoadDocument fetches a document with its client, line items joined against
// the live catalog, and extras. Returns nil when the id is unknown.
func LoadDocument(ctx context.Context, db *sql.DB, ns model.Namespace, id int64) (*model.FullDocument, error) {
	t, err := tablesFor(ns)
	if err != nil {
		return nil, err
	}

	doc := model.Document{}
	err = db.QueryRowContext(ctx,
		`SELECT id, client_id, name, date, created_date, duration, tech_count, tech_rate,
		        distance_km, distance_rate, membership, discount, status
		 FROM `+t.doc+` WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.ClientID, &doc.Name, &doc.Date, &doc.CreatedDate, &doc.Duration,
		&doc.TechCount, &doc.TechRate, &doc.DistanceKm, &doc.DistanceRate,
		&doc.Membership, &doc.Discount, &doc.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s %d: %w", ns, id, err)
	}

	client, err := GetClient(ctx, db, doc.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%s %d references missing client %d", ns, id, doc.ClientID)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT m.id, m.name, m.category, m.total, m.unit_value, m.margin, m.rental_count, m.profit,
		        li.quantity, li.duration, li.status
		 FROM `+t.items+` li
		 JOIN items m ON m.id = li.item_id
		 WHERE li.`+t.fk+` = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading %s line items: %w", ns, err)
	}
	defer rows.Close()

	var items []model.LineItem
	for rows.Next() {
		var li model.LineItem
		if err := rows.Scan(&li.Item.ID, &li.Item.Name, &li.Item.Category, &li.Item.Total,
			&li.Item.UnitValue, &li.Item.Margin, &li.Item.RentalCount, &li.Item.Profit,
			&li.Quantity, &li.Duration, &li.Status); err != nil {
			return nil, fmt.Errorf("scanning line item: %w", err)
		}
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading line items: %w", err)
	}

	extraRows, err := db.QueryContext(ctx,
		`SELECT id, `+t.fk+`, label, price FROM `+t.extras+` WHERE `+t.fk+` = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading %s extras: %w", ns, err)
	}
	defer extraRows.Close()

	var extras []model.Extra
	for extraRows.Next() {
		var e model.Extra
		if err := extraRows.Scan(&e.ID, &e.DocumentID, &e.Label, &e.Price); err != nil {
			return nil, fmt.Errorf("scanning extra: %w", err)
		}
		extras = append(extras, e)
	}
	if err := extraRows.Err(); err != nil {
		return nil, fmt.Errorf("reading extras: %w", err)
	}

	return &model.FullDocument{
		Client:   *client,
		Document: doc,
		Items:    items,
		Extras:   extras,
	}, nil
}

// DuplicateDocument clones a document under a fresh id in the same
// namespace, appending a copy marker to the display name. Line items and
// extras are copied verbatim; the source is untouched. Returns 0 when the
// source id is unknown.
func DuplicateDocument(ctx context.Context, db *sql.DB, ns model.Namespace, sourceID int64) (int64, error) {
	t, err := tablesFor(ns)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+t.doc+` WHERE id = ?)`, sourceID,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("checking %s existence: %w", ns, err)
	}
	if !exists {
		return 0, nil
	}

	newID, err := NextDocumentID(ctx, tx, ns, time.Now())
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+t.doc+` (id, client_id, name, date, created_date, duration,
		        tech_count, tech_rate, distance_km, distance_rate, membership, discount, status)
		 SELECT ?, client_id, name || ' (copie)', date, created_date, duration,
		        tech_count, tech_rate, distance_km, distance_rate, membership, discount, status
		 FROM `+t.doc+` WHERE id = ?`,
		newID, sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("duplicating %s header: %w", ns, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+t.items+` (`+t.fk+`, item_id, quantity, duration, status)
		 SELECT ?, item_id, quantity, duration, status FROM `+t.items+` WHERE `+t.fk+` = ?`,
		newID, sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("duplicating %s line items: %w", ns, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+t.extras+` (`+t.fk+`, label, price)
		 SELECT ?, label, price FROM `+t.extras+` WHERE `+t.fk+` = ?`,
		newID, sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("duplicating %s extras: %w", ns, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing %s duplication: %w", ns, err)
	}

	return newID, nil
}

// ConvertToInvoice copies a quote into the invoice namespace under a fresh
// invoice id, forcing the header status to the invoice marker. Line items
// and extras are copied verbatim and the source quote is retained. Returns 0
// when the quote id is unknown.
func ConvertToInvoice(ctx context.Context, db *sql.DB, quoteID int64) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM quotes WHERE id = ?)`, quoteID,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("checking quote existence: %w", err)
	}
	if !exists {
		return 0, nil
	}

	invoiceID, err := NextDocumentID(ctx, tx, model.NamespaceInvoice, time.Now())
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoices (id, client_id, name, date, created_date, duration,
		        tech_count, tech_rate, distance_km, distance_rate, membership, discount, status)
		 SELECT ?1, client_id, name, date, created_date, duration,
		        tech_count, tech_rate, distance_km, distance_rate, membership, discount, ?2
		 FROM quotes WHERE id = ?3`,
		invoiceID, model.StatusInvoice, quoteID,
	)
	if err != nil {
		return 0, fmt.Errorf("converting quote header: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoice_items (invoice_id, item_id, quantity, duration, status)
		 SELECT ?, item_id, quantity, duration, status FROM quote_items WHERE quote_id = ?`,
		invoiceID, quoteID,
	)
	if err != nil {
		return 0, fmt.Errorf("converting quote line items: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoice_extras (invoice_id, label, price)
		 SELECT ?, label, price FROM quote_extras WHERE quote_id = ?`,
		invoiceID, quoteID,
	)
	if err != nil {
		return 0, fmt.Errorf("converting quote extras: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing conversion: %w", err)
	}

	return invoiceID, nil
}

// DeleteDocument removes a document header; line items and extras go with it
// through the cascading foreign keys. Returns false when the id is unknown.
func DeleteDocument(ctx context.Context, db *sql.DB, ns model.Namespace, id int64) (bool, error) {
	t, err := tablesFor(ns)
	if err != nil {
		return false, err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM `+t.doc+` WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting %s %d: %w", ns, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking %s deletion: %w", ns, err)
	}
	return n > 0, nil
}

// ListDocumentSummaries returns the listing-view projection of every
// document in a namespace, newest id first.
func ListDocumentSummaries(ctx context.Context, db *sql.DB, ns model.Namespace) ([]model.DocumentSummary, error) {
	t, err := tablesFor(ns)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT d.id, d.name, d.date, c.name, c.event, d.status
		 FROM `+t.doc+` d
		 JOIN clients c ON d.client_id = c.id
		 ORDER BY d.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s summaries: %w", ns, err)
	}
	defer rows.Close()

	var summaries []model.DocumentSummary
	for rows.Next() {
		var s model.DocumentSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Date, &s.ClientName, &s.Event, &s.Status); err != nil {
			return nil, fmt.Errorf("scanning %s summary: %w", ns, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
