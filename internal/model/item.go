package model

// Item is a rentable catalog unit. Total is the number of physical units
// owned; every reservation is checked against it. RentalCount and Profit are
// lifetime counters maintained by the usage endpoint, not derived from
// documents.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Total       int     `json:"total"`
	UnitValue   float64 `json:"unit_value"`
	Margin      float64 `json:"margin"`
	RentalCount int     `json:"rental_count"`
	Profit      float64 `json:"profit"`
	PhotoMime   string  `json:"photo_mime,omitempty"`
}

// ItemInvoiceSummary is one invoice that reserved a given item.
type ItemInvoiceSummary struct {
	InvoiceID int64  `json:"invoice_id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Quantity  int    `json:"quantity"`
	Duration  int    `json:"duration"`
}
