package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/access"
	httperrors "github.com/SilasSpencer1/koda-social-calendar-sub001/internal/http/errors"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/identity"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/redact"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/store"
)

// ListUserEvents is the bulk calendar read path: the owner's events in a
// window, redacted per the viewer's resolved permission. A blocked or
// nonexistent owner is indistinguishable from one who denied access.
func (h *Handler) ListUserEvents(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := identity.UserIDFromContext(r.Context())

	ownerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httperrors.BadRequestError(w, r, err, "invalid user id")
		return
	}
	from, to, err := parseWindow(r)
	if err != nil {
		httperrors.BadRequestError(w, r, err, "invalid window: from must precede to, RFC 3339")
		return
	}

	perm, err := h.resolver.Resolve(r.Context(), ownerID, viewerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		httperrors.InternalError(w, r, err, "failed to resolve permission")
		return
	}
	if !perm.Allowed {
		h.denyCalendarAccess(w, ownerID)
		return
	}

	events, err := h.store.Events.ListForOwner(r.Context(), ownerID, from, to)
	if err != nil {
		httperrors.InternalError(w, r, err, "failed to load events")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"events": redact.Events(events, viewerID, perm),
	})
}

type eventDetailResponse struct {
	Event     redact.EventView      `json:"event"`
	Attendees []redact.AttendeeView `json:"attendees"`
}

// GetEvent is the single-event read path. The event's own cover mode forces
// busy-only to every non-owner; anonymous attendees are hidden from everyone
// but the owner and themselves. An unknown event id answers exactly like a
// permission denial.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := identity.UserIDFromContext(r.Context())

	eventID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httperrors.BadRequestError(w, r, err, "invalid event id")
		return
	}

	event, err := h.store.Events.GetByID(r.Context(), eventID)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.JSONError(w, http.StatusForbidden, "calendar access denied", nil)
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "failed to load event")
		return
	}

	perm, err := h.viewPermission(r, event, viewerID)
	if err != nil {
		httperrors.InternalError(w, r, err, "failed to resolve permission")
		return
	}
	if !perm.Allowed {
		httperrors.JSONError(w, http.StatusForbidden, "calendar access denied", nil)
		return
	}

	attendees, err := h.store.Attendees.ListForEvent(r.Context(), eventID)
	if err != nil {
		httperrors.InternalError(w, r, err, "failed to load attendees")
		return
	}

	h.writeJSON(w, http.StatusOK, eventDetailResponse{
		Event:     redact.EventDetail(*event, viewerID, perm),
		Attendees: redact.Attendees(attendees, event.OwnerID, viewerID),
	})
}

// viewPermission resolves the viewer's permission for one event. A PUBLIC
// event is readable in full by any signed-in user; everything else goes
// through the friendship resolver.
func (h *Handler) viewPermission(r *http.Request, event *store.Event, viewerID int64) (access.Permission, error) {
	if event.Visibility == store.VisibilityPublic && viewerID != event.OwnerID {
		return access.Permission{Allowed: true, Detail: access.DetailFull}, nil
	}
	perm, err := h.resolver.Resolve(r.Context(), event.OwnerID, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return access.Permission{}, nil
	}
	return perm, err
}

// denyCalendarAccess answers every unreachable-owner case identically so the
// response does not reveal whether the owner exists, blocked the viewer, or
// turned sharing off.
func (h *Handler) denyCalendarAccess(w http.ResponseWriter, ownerID int64) {
	httperrors.JSONError(w, http.StatusForbidden, "calendar access denied",
		map[string]any{"participantIds": []int64{ownerID}})
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("window end must be after start")
	}
	return from, to, nil
}
