package store

import (
	"context"
	"testing"

	"github.com/jblanchet/locmat/internal/db"
	"github.com/jblanchet/locmat/internal/model"
)

func TestUpsertClientInsertsAndUpdates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, err := UpsertClient(ctx, database, model.Client{
		Name: "Martin", Event: "Anniversaire", Phone: "0600000000",
	})
	if err != nil {
		t.Fatalf("UpsertClient: %v", err)
	}

	// Same (name, event): contact fields overwritten, same row.
	again, err := UpsertClient(ctx, database, model.Client{
		Name: "Martin", Event: "Anniversaire", Phone: "0711111111", Email: "martin@example.com",
	})
	if err != nil {
		t.Fatalf("second UpsertClient: %v", err)
	}
	if again != id {
		t.Errorf("expected the same client id, got %d and %d", id, again)
	}

	c, err := GetClient(ctx, database, id)
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	if c.Phone != "0711111111" || c.Email != "martin@example.com" {
		t.Errorf("contact fields not overwritten: %+v", c)
	}

	// Same name but a different event is a distinct client.
	other, err := UpsertClient(ctx, database, model.Client{Name: "Martin", Event: "Mariage"})
	if err != nil {
		t.Fatalf("third UpsertClient: %v", err)
	}
	if other == id {
		t.Error("expected a distinct client for a different event")
	}
}

func TestGetClientNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	c, err := GetClient(context.Background(), database, 404)
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	if c != nil {
		t.Error("expected nil for unknown client")
	}
}

func TestListClientsOrdered(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, c := range []model.Client{
		{Name: "Zidane", Event: "Gala"},
		{Name: "Albert", Event: "Concert"},
		{Name: "Albert", Event: "Bal"},
	} {
		if _, err := UpsertClient(ctx, database, c); err != nil {
			t.Fatalf("UpsertClient(%s): %v", c.Name, err)
		}
	}

	clients, err := ListClients(ctx, database)
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(clients) != 3 {
		t.Fatalf("expected 3 clients, got %d", len(clients))
	}
	if clients[0].Name != "Albert" || clients[0].Event != "Bal" {
		t.Errorf("expected (name, event) ordering, got %+v first", clients[0])
	}
	if clients[2].Name != "Zidane" {
		t.Errorf("expected Zidane last, got %+v", clients[2])
	}
}
