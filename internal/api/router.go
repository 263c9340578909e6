package api

import (
	"database/sql"
	"net/http"

	"github.com/jblanchet/locmat/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
//
// Gating follows the back office's rules: catalog mutation, usage counters,
// settings writes and document deletion require the admin session
// capability; everything else, document saves included, is open to the UI
// without a session.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: db}
	clientsHandler := &ClientsHandler{DB: db}
	settingsHandler := &SettingsHandler{DB: db}
	quotesHandler := &DocumentsHandler{DB: db, NS: model.NamespaceQuote}
	invoicesHandler := &DocumentsHandler{DB: db, NS: model.NamespaceInvoice}

	admin := AdminMiddleware(jwtSecret, db)

	// Admin session.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", admin(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", admin(http.HandlerFunc(authHandler.ChangePassword)))

	// Catalog: reads open, mutations admin.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{id}/availability", itemsHandler.Availability)
	mux.HandleFunc("GET /api/items/{id}/invoices", itemsHandler.InvoiceHistory)
	mux.HandleFunc("GET /api/items/{id}/photo", itemsHandler.GetPhoto)
	mux.Handle("POST /api/items", admin(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("PUT /api/items/{id}", admin(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", admin(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/usage", admin(http.HandlerFunc(itemsHandler.RecordUsage)))
	mux.Handle("PUT /api/items/{id}/photo", admin(http.HandlerFunc(itemsHandler.UploadPhoto)))

	// Clients.
	mux.HandleFunc("GET /api/clients", clientsHandler.List)

	// Quotes.
	mux.HandleFunc("GET /api/quotes", quotesHandler.List)
	mux.HandleFunc("POST /api/quotes", quotesHandler.Save)
	mux.HandleFunc("GET /api/quotes/{id}", quotesHandler.Get)
	mux.HandleFunc("POST /api/quotes/{id}/duplicate", quotesHandler.Duplicate)
	mux.HandleFunc("POST /api/quotes/{id}/invoice", quotesHandler.Convert)
	mux.Handle("DELETE /api/quotes/{id}", admin(http.HandlerFunc(quotesHandler.Delete)))

	// Invoices.
	mux.HandleFunc("GET /api/invoices", invoicesHandler.List)
	mux.HandleFunc("POST /api/invoices", invoicesHandler.Save)
	mux.HandleFunc("GET /api/invoices/{id}", invoicesHandler.Get)
	mux.HandleFunc("POST /api/invoices/{id}/duplicate", invoicesHandler.Duplicate)
	mux.Handle("DELETE /api/invoices/{id}", admin(http.HandlerFunc(invoicesHandler.Delete)))

	// Settings blobs.
	mux.HandleFunc("GET /api/settings/{key}", settingsHandler.Get)
	mux.Handle("PUT /api/settings/{key}", admin(http.HandlerFunc(settingsHandler.Put)))

	return mux
}
