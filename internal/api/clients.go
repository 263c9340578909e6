package api

import (
	"database/sql"
	"net/http"

	"github.com/jblanchet/locmat/internal/model"
	"github.com/jblanchet/locmat/internal/store"
)

// ClientsHandler handles client read endpoints. Clients are created and
// updated only through document saves.
type ClientsHandler struct {
	DB *sql.DB
}

// List handles GET /api/clients.
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := store.ListClients(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list clients")
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	jsonResponse(w, http.StatusOK, clients)
}
