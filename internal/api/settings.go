package api

import (
	"database/sql"
	"net/http"

	"github.com/jblanchet/locmat/internal/store"
)

// SettingsHandler serves the opaque configuration blobs (item taxonomy,
// pricing formulas). The engine never interprets them.
type SettingsHandler struct {
	DB *sql.DB
}

// settableKeys lists the keys exposed over the API. Internal keys (password
// hash, token secret) are not reachable here.
var settableKeys = map[string]bool{
	store.SettingItemCategories:  true,
	store.SettingPricingFormulas: true,
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Get handles GET /api/settings/{key}.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !settableKeys[key] {
		jsonError(w, http.StatusNotFound, "unknown setting")
		return
	}

	value, err := store.GetSetting(r.Context(), h.DB, key)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get setting")
		return
	}

	jsonResponse(w, http.StatusOK, settingResponse{Key: key, Value: value})
}

// Put handles PUT /api/settings/{key}. Admin only.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !settableKeys[key] {
		jsonError(w, http.StatusNotFound, "unknown setting")
		return
	}

	var req settingResponse
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.SetSetting(r.Context(), h.DB, key, req.Value); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update setting")
		return
	}

	jsonResponse(w, http.StatusOK, settingResponse{Key: key, Value: req.Value})
}
