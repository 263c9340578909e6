package model

// Client is a customer. Clients are identified by the (name, event) pair:
// saving a document for an already-known pair overwrites the contact fields
// instead of creating a second row. Rows accumulate; there is no client
// deletion.
type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Event   string `json:"event"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}
