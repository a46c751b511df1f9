package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	httperrors "github.com/SilasSpencer1/koda-social-calendar-sub001/internal/http/errors"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/identity"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/interval"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/metrics"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/scheduling"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/store"
)

type searchRequest struct {
	ParticipantIDs  []int64   `json:"participantIds"`
	WindowStart     time.Time `json:"windowStart"`
	WindowEnd       time.Time `json:"windowEnd"`
	DurationMinutes int       `json:"durationMinutes"`
}

type searchResponse struct {
	Slots []interval.Interval `json:"slots"`
}

// SearchAvailability computes common free slots for the requester and the
// given participants.
func (h *Handler) SearchAvailability(w http.ResponseWriter, r *http.Request) {
	requesterID, _ := identity.UserIDFromContext(r.Context())

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}

	window := interval.Interval{Start: req.WindowStart, End: req.WindowEnd}
	duration := time.Duration(req.DurationMinutes) * time.Minute

	slots, err := h.engine.FindCommonSlots(r.Context(), requesterID, req.ParticipantIDs, window, duration)
	if err != nil {
		h.writeSchedulingError(w, r, err, len(req.ParticipantIDs))
		return
	}

	metrics.ObserveAvailabilityQuery("ok", len(req.ParticipantIDs))
	if slots == nil {
		slots = []interval.Interval{}
	}
	h.writeJSON(w, http.StatusOK, searchResponse{Slots: slots})
}

type confirmRequest struct {
	Slot         interval.Interval `json:"slot"`
	InviteeIDs   []int64           `json:"inviteeIds"`
	Title        string            `json:"title"`
	Description  *string           `json:"description,omitempty"`
	LocationName *string           `json:"locationName,omitempty"`
	Visibility   store.Visibility  `json:"visibility,omitempty"`
	CoverMode    store.CoverMode   `json:"coverMode,omitempty"`
}

// ConfirmSlot turns a chosen slot into an event with invites.
func (h *Handler) ConfirmSlot(w http.ResponseWriter, r *http.Request) {
	requesterID, _ := identity.UserIDFromContext(r.Context())

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}

	result, err := h.engine.ConfirmSlot(r.Context(), requesterID, req.Slot, req.InviteeIDs, scheduling.EventFields{
		Title:        req.Title,
		Description:  req.Description,
		LocationName: req.LocationName,
		Visibility:   req.Visibility,
		CoverMode:    req.CoverMode,
	})
	if err != nil {
		h.writeSchedulingError(w, r, err, len(req.InviteeIDs))
		return
	}

	h.writeJSON(w, http.StatusCreated, result)
}

// writeSchedulingError maps engine errors onto HTTP statuses. Permission
// responses name the unreachable participants but never the reason.
func (h *Handler) writeSchedulingError(w http.ResponseWriter, r *http.Request, err error, participants int) {
	var validationErr *scheduling.ValidationError
	var permErr *scheduling.PermissionError
	var txErr *scheduling.TransactionError

	switch {
	case errors.As(err, &validationErr):
		metrics.ObserveAvailabilityQuery("invalid", participants)
		httperrors.JSONError(w, http.StatusBadRequest, validationErr.Error(), nil)
	case errors.As(err, &permErr):
		metrics.ObserveAvailabilityQuery("denied", participants)
		httperrors.JSONError(w, http.StatusForbidden, "calendar access denied",
			map[string]any{"participantIds": permErr.ParticipantIDs})
	case errors.As(err, &txErr):
		metrics.ObserveAvailabilityQuery("error", participants)
		httperrors.LogError(r, "event creation transaction failed", txErr)
		httperrors.JSONError(w, http.StatusBadGateway, "event creation failed", nil)
	default:
		metrics.ObserveAvailabilityQuery("error", participants)
		httperrors.InternalError(w, r, err, "availability request failed")
	}
}
