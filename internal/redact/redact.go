// Package redact projects stored events and attendee rows into views that
// are safe to return to a given viewer. One rule underlies every entry
// point: once an event's effective detail level for the viewer is busy-only
// (via the resolved permission, the event's own cover mode, or a PRIVATE
// visibility), the viewer receives start, end, and a fixed placeholder
// title, nothing else.
package redact

import (
	"time"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/access"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/store"
)

// PlaceholderTitle replaces the real title of a redacted event.
const PlaceholderTitle = "Busy"

// PlaceholderAttendee replaces the identity of an anonymous attendee.
const PlaceholderAttendee = "Anonymous"

// EventView is the redaction-aware projection of one event.
type EventView struct {
	ID           int64            `json:"id"`
	StartAt      time.Time        `json:"startAt"`
	EndAt        time.Time        `json:"endAt"`
	Title        string           `json:"title"`
	Description  *string          `json:"description,omitempty"`
	LocationName *string          `json:"locationName,omitempty"`
	Visibility   store.Visibility `json:"visibility,omitempty"`
	Redacted     bool             `json:"redacted"`
}

// AttendeeView is the redaction-aware projection of one attendee row.
// Status and role stay visible even when the identity is hidden.
type AttendeeView struct {
	UserID      int64                `json:"userId,omitempty"`
	DisplayName string               `json:"displayName"`
	Role        store.AttendeeRole   `json:"role"`
	Status      store.AttendeeStatus `json:"status"`
}

// Events redacts a bulk calendar read driven by the viewer's resolved
// permission. Visibility is evaluated per event and permission per
// relationship; the stricter of the two wins, so a PRIVATE event redacts
// even under a DETAILS permission.
func Events(events []store.Event, viewerID int64, perm access.Permission) []EventView {
	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, Event(ev, viewerID, perm))
	}
	return views
}

// Event redacts a single event under the viewer's resolved permission.
func Event(ev store.Event, viewerID int64, perm access.Permission) EventView {
	if viewerID == ev.OwnerID {
		return fullView(ev)
	}
	if perm.Detail != access.DetailFull ||
		ev.Visibility == store.VisibilityPrivate ||
		ev.CoverMode == store.CoverBusyOnly {
		return busyView(ev)
	}
	return fullView(ev)
}

// EventDetail redacts the single-event read path. The event's own cover
// mode forces busy-only to every non-owner unconditionally, independent of
// the viewer's general permission level.
func EventDetail(ev store.Event, viewerID int64, perm access.Permission) EventView {
	if viewerID == ev.OwnerID {
		return fullView(ev)
	}
	if ev.CoverMode == store.CoverBusyOnly {
		return busyView(ev)
	}
	return Event(ev, viewerID, perm)
}

// Attendee hides an anonymous attendee's identity from everyone except the
// event owner and the attendee themself.
func Attendee(att store.Attendee, eventOwnerID, viewerID int64) AttendeeView {
	view := AttendeeView{
		UserID:      att.UserID,
		DisplayName: att.DisplayName,
		Role:        att.Role,
		Status:      att.Status,
	}
	if att.Anonymous && viewerID != eventOwnerID && viewerID != att.UserID {
		view.UserID = 0
		view.DisplayName = PlaceholderAttendee
	}
	return view
}

// Attendees redacts a whole attendee list for one viewer.
func Attendees(attendees []store.Attendee, eventOwnerID, viewerID int64) []AttendeeView {
	views := make([]AttendeeView, 0, len(attendees))
	for _, att := range attendees {
		views = append(views, Attendee(att, eventOwnerID, viewerID))
	}
	return views
}

func fullView(ev store.Event) EventView {
	return EventView{
		ID:           ev.ID,
		StartAt:      ev.StartAt,
		EndAt:        ev.EndAt,
		Title:        ev.Title,
		Description:  ev.Description,
		LocationName: ev.LocationName,
		Visibility:   ev.Visibility,
	}
}

func busyView(ev store.Event) EventView {
	return EventView{
		ID:       ev.ID,
		StartAt:  ev.StartAt,
		EndAt:    ev.EndAt,
		Title:    PlaceholderTitle,
		Redacted: true,
	}
}
