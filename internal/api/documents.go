package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jblanchet/locmat/internal/model"
	"github.com/jblanchet/locmat/internal/store"
)

// DocumentsHandler handles document endpoints for one namespace. The router
// registers it twice, once for quotes and once for invoices.
type DocumentsHandler struct {
	DB *sql.DB
	NS model.Namespace
}

// List handles GET /api/{namespace}s.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := store.ListDocumentSummaries(r.Context(), h.DB, h.NS)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if summaries == nil {
		summaries = []model.DocumentSummary{}
	}
	jsonResponse(w, http.StatusOK, summaries)
}

// Get handles GET /api/{namespace}s/{id}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := store.LoadDocument(r.Context(), h.DB, h.NS, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load document")
		return
	}
	if doc == nil {
		jsonError(w, http.StatusNotFound, "document not found")
		return
	}

	jsonResponse(w, http.StatusOK, doc)
}

// Save handles POST /api/{namespace}s. A payload without an id (or with an
// id unknown to the namespace) creates a document; otherwise it updates in
// place, replacing line items and extras wholesale.
func (h *DocumentsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var full model.FullDocument
	if err := decodeJSON(r, &full); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if full.Client.Name == "" {
		jsonError(w, http.StatusBadRequest, "client name required")
		return
	}
	if _, err := time.Parse("2006-01-02", full.Document.Date); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid document date: expected YYYY-MM-DD")
		return
	}

	// Legacy status values from older databases are normalized here, at the
	// boundary; the storage layer only ever sees the enumerated set.
	if full.Document.Status = model.NormalizeStatus(full.Document.Status); full.Document.Status == "" {
		jsonError(w, http.StatusBadRequest, "unrecognized document status")
		return
	}
	for i := range full.Items {
		if full.Items[i].Status = model.NormalizeStatus(full.Items[i].Status); full.Items[i].Status == "" {
			jsonError(w, http.StatusBadRequest, "unrecognized line item status")
			return
		}
	}
	if full.Document.Duration < 1 {
		full.Document.Duration = 1
	}

	id, err := store.SaveDocument(r.Context(), h.DB, h.NS, full)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			jsonError(w, http.StatusConflict, err.Error())
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int64{"id": id})
}

// Duplicate handles POST /api/{namespace}s/{id}/duplicate.
func (h *DocumentsHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	newID, err := store.DuplicateDocument(r.Context(), h.DB, h.NS, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to duplicate document")
		return
	}
	if newID == 0 {
		jsonError(w, http.StatusNotFound, "document not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int64{"id": newID})
}

// Convert handles POST /api/quotes/{id}/invoice. Registered only for the
// quote namespace.
func (h *DocumentsHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	invoiceID, err := store.ConvertToInvoice(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to convert quote")
		return
	}
	if invoiceID == 0 {
		jsonError(w, http.StatusNotFound, "quote not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int64{"id": invoiceID})
}

// Delete handles DELETE /api/{namespace}s/{id}. Admin only.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	found, err := store.DeleteDocument(r.Context(), h.DB, h.NS, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "document not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "document deleted"})
}
