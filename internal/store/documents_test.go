package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jblanchet/locmat/internal/db"
	"github.com/jblanchet/locmat/internal/model"
)

func fullTestDocument(item *model.Item) model.FullDocument {
	return model.FullDocument{
		Client: model.Client{Name: "Dupont", Event: "Mariage", Address: "1 rue du Port", Phone: "0600000000", Email: "dupont@example.com"},
		Document: model.Document{
			Name:     "Devis mariage",
			Date:     "2024-06-01",
			Duration: 3,
			TechCount: 2, TechRate: 150,
			DistanceKm: 40, DistanceRate: 0.5,
			Membership: true,
			Discount:   10,
			Status:     model.StatusValidated,
		},
		Items: []model.LineItem{
			{Item: *item, Quantity: 5, Duration: 3, Status: model.StatusValidated},
		},
		Extras: []model.Extra{
			{Label: "Livraison", Price: 80},
		},
	}
}

func TestSaveDocumentAllocatesID(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	id, err := SaveDocument(ctx, database, model.NamespaceQuote, fullTestDocument(item))
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	now := time.Now()
	if id/10000 != int64(now.Year()) {
		t.Errorf("id %d does not encode the current year", id)
	}
	if (id/100)%100 != int64(now.Month()) {
		t.Errorf("id %d does not encode the current month", id)
	}
	if id%100 < 1 {
		t.Errorf("id %d has no sequence component", id)
	}
}

func TestSaveDocumentUnknownIDAllocatesFresh(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	full := fullTestDocument(item)
	full.Document.ID = 19990101

	id, err := SaveDocument(ctx, database, model.NamespaceQuote, full)
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if id == 19990101 {
		t.Error("expected a fresh id for an unknown payload id")
	}
}

func TestSaveDocumentRoundtrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	id, err := SaveDocument(ctx, database, model.NamespaceQuote, fullTestDocument(item))
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	loaded, err := LoadDocument(ctx, database, model.NamespaceQuote, id)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected document, got nil")
	}

	if loaded.Document.Name != "Devis mariage" || loaded.Document.Date != "2024-06-01" {
		t.Errorf("unexpected header: %+v", loaded.Document)
	}
	if !loaded.Document.Membership || loaded.Document.TechCount != 2 {
		t.Errorf("unexpected header details: %+v", loaded.Document)
	}
	if loaded.Client.Name != "Dupont" || loaded.Client.Event != "Mariage" {
		t.Errorf("unexpected client: %+v", loaded.Client)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Quantity != 5 || loaded.Items[0].Item.ID != item.ID {
		t.Errorf("unexpected line items: %+v", loaded.Items)
	}
	if len(loaded.Extras) != 1 || loaded.Extras[0].Label != "Livraison" || loaded.Extras[0].Price != 80 {
		t.Errorf("unexpected extras: %+v", loaded.Extras)
	}
}

func TestSaveDocumentUpdateReplacesChildren(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)
	other := testItem(t, database, 4)

	full := fullTestDocument(item)
	full.Items = append(full.Items, model.LineItem{Item: *other, Quantity: 2, Duration: 3, Status: model.StatusValidated})
	full.Extras = append(full.Extras, model.Extra{Label: "Montage", Price: 120})

	id, err := SaveDocument(ctx, database, model.NamespaceQuote, full)
	if err != nil {
		t.Fatalf("first SaveDocument: %v", err)
	}

	// Re-save with one line item and one extra removed: no stale rows may
	// survive.
	updated := fullTestDocument(item)
	updated.Document.ID = id
	if _, err := SaveDocument(ctx, database, model.NamespaceQuote, updated); err != nil {
		t.Fatalf("second SaveDocument: %v", err)
	}

	loaded, err := LoadDocument(ctx, database, model.NamespaceQuote, id)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("expected 1 line item after update, got %d", len(loaded.Items))
	}
	if loaded.Items[0].Item.ID != item.ID {
		t.Errorf("expected remaining line item to reference item %d, got %d", item.ID, loaded.Items[0].Item.ID)
	}
	if len(loaded.Extras) != 1 {
		t.Fatalf("expected 1 extra after update, got %d", len(loaded.Extras))
	}
}

func TestSaveDocumentUpsertsClient(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	first := fullTestDocument(item)
	if _, err := SaveDocument(ctx, database, model.NamespaceQuote, first); err != nil {
		t.Fatalf("first SaveDocument: %v", err)
	}

	second := fullTestDocument(item)
	second.Client.Phone = "0711111111"
	if _, err := SaveDocument(ctx, database, model.NamespaceQuote, second); err != nil {
		t.Fatalf("second SaveDocument: %v", err)
	}

	clients, err := ListClients(ctx, database)
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(clients) != 1 {
		t.Fatalf("expected one client after two saves of the same (name, event), got %d", len(clients))
	}
	if clients[0].Phone != "0711111111" {
		t.Errorf("expected contact fields overwritten, got %q", clients[0].Phone)
	}
}

func TestSaveDocumentInsufficientStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 3)

	full := fullTestDocument(item) // asks for 5 units
	_, err := SaveDocument(ctx, database, model.NamespaceQuote, full)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}

	// Nothing of the rejected save may persist.
	summaries, _ := ListDocumentSummaries(ctx, database, model.NamespaceQuote)
	if len(summaries) != 0 {
		t.Errorf("expected no documents after rejected save, got %d", len(summaries))
	}
	clients, _ := ListClients(ctx, database)
	if len(clients) != 0 {
		t.Errorf("expected no clients after rejected save, got %d", len(clients))
	}
}

func TestSaveDocumentValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	bad := fullTestDocument(item)
	bad.Document.Date = "June 1st"
	if _, err := SaveDocument(ctx, database, model.NamespaceQuote, bad); err == nil {
		t.Error("expected error for malformed date")
	}

	bad = fullTestDocument(item)
	bad.Items[0].Quantity = -1
	if _, err := SaveDocument(ctx, database, model.NamespaceQuote, bad); err == nil {
		t.Error("expected error for negative quantity")
	}

	bad = fullTestDocument(item)
	bad.Document.Status = "whatever"
	if _, err := SaveDocument(ctx, database, model.NamespaceQuote, bad); err == nil {
		t.Error("expected error for unknown status")
	}

	bad = fullTestDocument(item)
	bad.Client.Name = ""
	if _, err := SaveDocument(ctx, database, model.NamespaceQuote, bad); err == nil {
		t.Error("expected error for missing client name")
	}
}

func TestLoadDocumentNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	doc, err := LoadDocument(context.Background(), database, model.NamespaceQuote, 20240601)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc != nil {
		t.Error("expected nil for unknown document")
	}
}

func TestLoadDocumentJoinsLiveCatalog(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	id, err := SaveDocument(ctx, database, model.NamespaceQuote, fullTestDocument(item))
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	// Catalog changes after the save must be visible on load.
	item.Total = 25
	if _, err := UpdateItem(ctx, database, *item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	loaded, err := LoadDocument(ctx, database, model.NamespaceQuote, id)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if loaded.Items[0].Item.Total != 25 {
		t.Errorf("expected live catalog total 25, got %d", loaded.Items[0].Item.Total)
	}
}

func TestDuplicateDocument(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	sourceID, err := SaveDocument(ctx, database, model.NamespaceQuote, fullTestDocument(item))
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	newID, err := DuplicateDocument(ctx, database, model.NamespaceQuote, sourceID)
	if err != nil {
		t.Fatalf("DuplicateDocument: %v", err)
	}
	if newID == 0 || newID == sourceID {
		t.Fatalf("expected a fresh id, got %d (source %d)", newID, sourceID)
	}

	source, _ := LoadDocument(ctx, database, model.NamespaceQuote, sourceID)
	clone, _ := LoadDocument(ctx, database, model.NamespaceQuote, newID)
	if source == nil || clone == nil {
		t.Fatal("expected both documents to exist")
	}

	if source.Document.Name != "Devis mariage" {
		t.Errorf("source renamed: %q", source.Document.Name)
	}
	if !strings.HasSuffix(clone.Document.Name, " (copie)") {
		t.Errorf("expected copy marker on clone name, got %q", clone.Document.Name)
	}

	if len(clone.Items) != len(source.Items) {
		t.Fatalf("expected %d line items, got %d", len(source.Items), len(clone.Items))
	}
	for i := range source.Items {
		s, c := source.Items[i], clone.Items[i]
		if s.Item.ID != c.Item.ID || s.Quantity != c.Quantity || s.Duration != c.Duration || s.Status != c.Status {
			t.Errorf("line item %d differs: %+v vs %+v", i, s, c)
		}
	}
	if len(clone.Extras) != len(source.Extras) || clone.Extras[0].Label != source.Extras[0].Label {
		t.Errorf("extras differ: %+v vs %+v", source.Extras, clone.Extras)
	}
}

func TestDuplicateDocumentNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	id, err := DuplicateDocument(context.Background(), database, model.NamespaceQuote, 20240601)
	if err != nil {
		t.Fatalf("DuplicateDocument: %v", err)
	}
	if id != 0 {
		t.Errorf("expected 0 for unknown source, got %d", id)
	}
}

func TestConvertToInvoice(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	quoteID, err := SaveDocument(ctx, database, model.NamespaceQuote, fullTestDocument(item))
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	invoiceID, err := ConvertToInvoice(ctx, database, quoteID)
	if err != nil {
		t.Fatalf("ConvertToInvoice: %v", err)
	}
	if invoiceID == 0 {
		t.Fatal("expected an invoice id")
	}

	invoice, err := LoadDocument(ctx, database, model.NamespaceInvoice, invoiceID)
	if err != nil {
		t.Fatalf("LoadDocument(invoice): %v", err)
	}
	if invoice == nil {
		t.Fatal("expected invoice to exist")
	}
	if invoice.Document.Status != model.StatusInvoice {
		t.Errorf("expected status forced to %q, got %q", model.StatusInvoice, invoice.Document.Status)
	}
	if len(invoice.Items) != 1 || invoice.Items[0].Quantity != 5 {
		t.Errorf("unexpected invoice line items: %+v", invoice.Items)
	}
	if len(invoice.Extras) != 1 {
		t.Errorf("unexpected invoice extras: %+v", invoice.Extras)
	}

	// The source quote survives with its own status.
	quote, _ := LoadDocument(ctx, database, model.NamespaceQuote, quoteID)
	if quote == nil {
		t.Fatal("expected source quote to survive conversion")
	}
	if quote.Document.Status != model.StatusValidated {
		t.Errorf("source quote status changed: %q", quote.Document.Status)
	}
}

func TestConvertToInvoiceNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	id, err := ConvertToInvoice(context.Background(), database, 20240601)
	if err != nil {
		t.Fatalf("ConvertToInvoice: %v", err)
	}
	if id != 0 {
		t.Errorf("expected 0 for unknown quote, got %d", id)
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	id, err := SaveDocument(ctx, database, model.NamespaceQuote, fullTestDocument(item))
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	found, err := DeleteDocument(ctx, database, model.NamespaceQuote, id)
	if err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if !found {
		t.Fatal("expected delete to report the document found")
	}

	var lineItems, extras int
	database.QueryRow(`SELECT COUNT(*) FROM quote_items WHERE quote_id = ?`, id).Scan(&lineItems)
	database.QueryRow(`SELECT COUNT(*) FROM quote_extras WHERE quote_id = ?`, id).Scan(&extras)
	if lineItems != 0 || extras != 0 {
		t.Errorf("expected cascading delete, found %d line items and %d extras", lineItems, extras)
	}

	found, err = DeleteDocument(ctx, database, model.NamespaceQuote, id)
	if err != nil {
		t.Fatalf("second DeleteDocument: %v", err)
	}
	if found {
		t.Error("expected second delete to report not found")
	}
}

func TestListDocumentSummaries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := testItem(t, database, 10)

	id, err := SaveDocument(ctx, database, model.NamespaceQuote, fullTestDocument(item))
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	summaries, err := ListDocumentSummaries(ctx, database, model.NamespaceQuote)
	if err != nil {
		t.Fatalf("ListDocumentSummaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	s := summaries[0]
	if s.ID != id || s.Name != "Devis mariage" || s.ClientName != "Dupont" || s.Event != "Mariage" || s.Status != model.StatusValidated {
		t.Errorf("unexpected summary: %+v", s)
	}

	invoiceSummaries, _ := ListDocumentSummaries(ctx, database, model.NamespaceInvoice)
	if len(invoiceSummaries) != 0 {
		t.Errorf("expected empty invoice namespace, got %d", len(invoiceSummaries))
	}
}
