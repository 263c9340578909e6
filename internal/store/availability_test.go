package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jblanchet/locmat/internal/db"
	"github.com/jblanchet/locmat/internal/model"
)

func testItem(t *testing.T, database *sql.DB, total int) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, model.Item{Name: "Enceinte", Category: "son", Total: total})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func saveTestQuote(t *testing.T, database *sql.DB, item *model.Item, quantity, duration int, date, status string) int64 {
	t.Helper()
	id, err := SaveDocument(context.Background(), database, model.NamespaceQuote, model.FullDocument{
		Client:   model.Client{Name: "Client", Event: "Concert"},
		Document: model.Document{Name: "Devis", Date: date, Duration: duration, Status: status},
		Items: []model.LineItem{
			{Item: *item, Quantity: quantity, Duration: duration, Status: status},
		},
	})
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	return id
}

func TestAvailabilityNoReservations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	available, err := ItemAvailability(ctx, database, item.ID, 0, "2024-06-01", 3)
	if err != nil {
		t.Fatalf("ItemAvailability: %v", err)
	}
	if available != 10 {
		t.Errorf("expected 10, got %d", available)
	}
}

func TestAvailabilityCountsConfirmedOverlap(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	// 5 units reserved over [2024-06-01, 2024-06-04).
	saveTestQuote(t, database, item, 5, 3, "2024-06-01", model.StatusValidated)

	available, err := ItemAvailability(ctx, database, item.ID, 0, "2024-06-02", 1)
	if err != nil {
		t.Fatalf("ItemAvailability: %v", err)
	}
	if available != 5 {
		t.Errorf("expected 5, got %d", available)
	}
}

func TestAvailabilityIgnoresDrafts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	saveTestQuote(t, database, item, 5, 3, "2024-06-01", model.StatusDraft)

	available, _ := ItemAvailability(ctx, database, item.ID, 0, "2024-06-02", 1)
	if available != 10 {
		t.Errorf("expected drafts not to hold units, got %d", available)
	}
}

func TestAvailabilityHalfOpenRanges(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	// Occupies [2024-06-01, 2024-06-04).
	saveTestQuote(t, database, item, 4, 3, "2024-06-01", model.StatusValidated)

	cases := []struct {
		date     string
		duration int
		want     int
	}{
		{"2024-06-04", 2, 10}, // starts exactly at doc end: no overlap
		{"2024-05-30", 2, 10}, // ends exactly at doc start: no overlap
		{"2024-05-30", 3, 6},  // last day overlaps the first reserved day
		{"2024-06-03", 1, 6},  // first day is the last reserved day
	}

	for _, tc := range cases {
		available, err := ItemAvailability(ctx, database, item.ID, 0, tc.date, tc.duration)
		if err != nil {
			t.Fatalf("ItemAvailability(%s, %d): %v", tc.date, tc.duration, err)
		}
		if available != tc.want {
			t.Errorf("ItemAvailability(%s, %d): expected %d, got %d", tc.date, tc.duration, tc.want, available)
		}
	}
}

func TestAvailabilityExcludesOwnDocument(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	id := saveTestQuote(t, database, item, 5, 3, "2024-06-01", model.StatusValidated)

	available, _ := ItemAvailability(ctx, database, item.ID, id, "2024-06-01", 3)
	if available != 10 {
		t.Errorf("expected own reservation to be excluded, got %d", available)
	}
}

func TestAvailabilityResaveWithZeroUnitsFrees(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	id := saveTestQuote(t, database, item, 5, 3, "2024-06-01", model.StatusValidated)

	available, _ := ItemAvailability(ctx, database, item.ID, 0, "2024-06-02", 1)
	if available != 5 {
		t.Fatalf("expected 5 before re-save, got %d", available)
	}

	_, err := SaveDocument(ctx, database, model.NamespaceQuote, model.FullDocument{
		Client:   model.Client{Name: "Client", Event: "Concert"},
		Document: model.Document{ID: id, Name: "Devis", Date: "2024-06-01", Duration: 3, Status: model.StatusValidated},
		Items: []model.LineItem{
			{Item: *item, Quantity: 0, Duration: 3, Status: model.StatusValidated},
		},
	})
	if err != nil {
		t.Fatalf("re-saving with zero units: %v", err)
	}

	available, _ = ItemAvailability(ctx, database, item.ID, 0, "2024-06-02", 1)
	if available != 10 {
		t.Errorf("expected 10 after freeing the reservation, got %d", available)
	}
}

func TestAvailabilityFlooredAtZero(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	saveTestQuote(t, database, item, 8, 3, "2024-06-01", model.StatusValidated)

	// Overcommit can only come from legacy data; force it directly.
	clientID := testClientID(t, database)
	insertQuote(t, database, 20190605, clientID)
	_, err := database.Exec(
		`INSERT INTO quote_items (quote_id, item_id, quantity, duration, status) VALUES (?, ?, 7, 30, 'validated')`,
		20190605, item.ID,
	)
	if err != nil {
		t.Fatalf("inserting legacy reservation: %v", err)
	}
	if _, err := database.Exec(`UPDATE quotes SET date = '2024-06-01' WHERE id = 20190605`); err != nil {
		t.Fatalf("backdating legacy quote: %v", err)
	}

	available, err := ItemAvailability(ctx, database, item.ID, 0, "2024-06-02", 1)
	if err != nil {
		t.Fatalf("ItemAvailability: %v", err)
	}
	if available != 0 {
		t.Errorf("expected floor at zero, got %d", available)
	}
}

func TestAvailabilityIgnoresInvoices(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	quoteID := saveTestQuote(t, database, item, 5, 3, "2024-06-01", model.StatusValidated)
	if _, err := ConvertToInvoice(ctx, database, quoteID); err != nil {
		t.Fatalf("ConvertToInvoice: %v", err)
	}

	// The quote still reserves; the invoice copy adds nothing on top.
	available, _ := ItemAvailability(ctx, database, item.ID, 0, "2024-06-02", 1)
	if available != 5 {
		t.Errorf("expected 5 (quote only), got %d", available)
	}
}

func TestAvailabilityRejectsMalformedDate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	if _, err := ItemAvailability(ctx, database, item.ID, 0, "01/06/2024", 3); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := ItemAvailability(ctx, database, item.ID, 0, "2024-06-01", 0); err == nil {
		t.Error("expected error for non-positive duration")
	}
}

func TestAvailabilityUnknownItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := ItemAvailability(ctx, database, 404, 0, "2024-06-01", 3); err == nil {
		t.Error("expected error for unknown item")
	}
}
