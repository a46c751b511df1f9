// Package api serves the JSON endpoints of the availability engine: the
// common-slot search, slot confirmation, and the redacted calendar read
// paths. Handlers are thin; policy and computation live in the access,
// redact, and scheduling packages.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/access"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/scheduling"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/store"
)

// Handler serves the JSON API.
type Handler struct {
	store    *store.Store
	resolver *access.Resolver
	engine   *scheduling.Engine
}

func NewHandler(st *store.Store) *Handler {
	resolver := access.NewResolver(st.Friendships, st.Users)
	engine := scheduling.NewEngine(resolver, st.Friendships, st.Events, st.Events, st.Notifications)
	return &Handler{store: st, resolver: resolver, engine: engine}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
