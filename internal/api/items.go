package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/jblanchet/locmat/internal/imaging"
	"github.com/jblanchet/locmat/internal/model"
	"github.com/jblanchet/locmat/internal/store"
)

// ItemsHandler handles catalog endpoints. Reads are open; every mutation
// sits behind the admin session middleware.
type ItemsHandler struct {
	DB *sql.DB
}

type itemRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Total       int     `json:"total"`
	UnitValue   float64 `json:"unit_value"`
	Margin      float64 `json:"margin"`
	RentalCount int     `json:"rental_count"`
	Profit      float64 `json:"profit"`
}

type usageRequest struct {
	Outings int     `json:"outings"`
	Profit  float64 `json:"profit"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	items, err := store.ListItems(r.Context(), h.DB, category)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Total < 0 {
		jsonError(w, http.StatusBadRequest, "total must not be negative")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, model.Item{
		Name:      req.Name,
		Category:  req.Category,
		Total:     req.Total,
		UnitValue: req.UnitValue,
		Margin:    req.Margin,
	})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Total < 0 {
		jsonError(w, http.StatusBadRequest, "total must not be negative")
		return
	}

	found, err := store.UpdateItem(r.Context(), h.DB, model.Item{
		ID:          id,
		Name:        req.Name,
		Category:    req.Category,
		Total:       req.Total,
		UnitValue:   req.UnitValue,
		Margin:      req.Margin,
		RentalCount: req.RentalCount,
		Profit:      req.Profit,
	})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	found, err := store.DeleteItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusConflict, "item is still referenced by documents")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// RecordUsage handles POST /api/items/{id}/usage.
func (h *ItemsHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req usageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.RecordItemUsage(r.Context(), h.DB, id, req.Outings, req.Profit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to record usage")
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// Availability handles GET /api/items/{id}/availability.
func (h *ItemsHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	date := r.URL.Query().Get("date")
	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid duration")
		return
	}

	var exclude int64
	if v := r.URL.Query().Get("exclude"); v != "" {
		exclude, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid exclude id")
			return
		}
	}

	available, err := store.ItemAvailability(r.Context(), h.DB, id, exclude, date, duration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int{"available": available})
}

// InvoiceHistory handles GET /api/items/{id}/invoices.
func (h *ItemsHandler) InvoiceHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	history, err := store.GetItemInvoiceHistory(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get invoice history")
		return
	}
	if history == nil {
		history = []model.ItemInvoiceSummary{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// UploadPhoto handles PUT /api/items/{id}/photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	result, err := imaging.Process(r.Body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, id, result.Data, result.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemPhoto(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
