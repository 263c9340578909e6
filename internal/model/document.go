package model

import "strings"

// Namespace selects the document table family. Quotes and invoices share a
// shape but live in separate tables with independent id sequences.
type Namespace string

// Namespaces.
const (
	NamespaceQuote   Namespace = "quote"
	NamespaceInvoice Namespace = "invoice"
)

// Valid reports whether the namespace is one of the two known families.
func (ns Namespace) Valid() bool {
	return ns == NamespaceQuote || ns == NamespaceInvoice
}

// Document statuses. The status is an advisory workflow tag: the engine
// never forbids a transition, it only maps statuses onto availability.
const (
	StatusDraft     = "draft"
	StatusSent      = "sent"
	StatusValidated = "validated"
	StatusInvoice   = "invoice"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is a known status value.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSent, StatusValidated, StatusInvoice, StatusCancelled:
		return true
	}
	return false
}

// CountsTowardAvailability reports whether a line item with this status
// holds units against the catalog. Only confirmed reservations count; drafts
// and cancelled documents do not block availability.
func CountsTowardAvailability(s string) bool {
	return s == StatusValidated
}

// NormalizeStatus maps a status value, including legacy free-text forms from
// older databases ("validée", "facture", ...), onto the enumerated set.
// Returns the empty string when the value is unrecognizable.
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if ValidStatus(s) {
		return s
	}
	switch {
	case s == "":
		return StatusDraft
	case strings.Contains(s, "valide"), strings.Contains(s, "validé"):
		return StatusValidated
	case strings.Contains(s, "facture"):
		return StatusInvoice
	case strings.Contains(s, "brouillon"):
		return StatusDraft
	case strings.Contains(s, "annul"):
		return StatusCancelled
	}
	return ""
}

// Document is a quote or invoice header. Date and CreatedDate are ISO
// calendar dates (YYYY-MM-DD); the id encodes year, month and a per-month
// sequence (YYYYMMSS).
type Document struct {
	ID           int64   `json:"id"`
	ClientID     int64   `json:"client_id"`
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	CreatedDate  string  `json:"created_date"`
	Duration     int     `json:"duration"`
	TechCount    int     `json:"tech_count"`
	TechRate     float64 `json:"tech_rate"`
	DistanceKm   int     `json:"distance_km"`
	DistanceRate float64 `json:"distance_rate"`
	Membership   bool    `json:"membership"`
	Discount     float64 `json:"discount"`
	Status       string  `json:"status"`
}

// LineItem associates a document with a reserved catalog item. Item carries
// the live catalog row when loading; Status mirrors the parent document's
// workflow state at reservation time and drives the availability filter.
type LineItem struct {
	Item     Item   `json:"item"`
	Quantity int    `json:"quantity"`
	Duration int    `json:"duration"`
	Status   string `json:"status"`
}

// Extra is an ad-hoc named charge attached to a document, outside the
// catalog.
type Extra struct {
	ID         int64   `json:"id"`
	DocumentID int64   `json:"document_id"`
	Label      string  `json:"label"`
	Price      float64 `json:"price"`
}

// FullDocument is the complete payload of a save or load: client, header,
// line items and extras.
type FullDocument struct {
	Client   Client     `json:"client"`
	Document Document   `json:"document"`
	Items    []LineItem `json:"items"`
	Extras   []Extra    `json:"extras"`
}

// DocumentSummary is the listing-view projection of a document.
type DocumentSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	ClientName string `json:"client_name"`
	Event      string `json:"event"`
	Status     string `json:"status"`
}
