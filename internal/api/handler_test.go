package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/access"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/identity"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/interval"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/store"
)

var day = time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

// fakeRepos backs every store repository interface in memory.
type fakeRepos struct {
	users     map[int64]*store.User
	rels      map[[2]int64]*access.Relationship
	events    map[int64]*store.Event
	attendees map[int64][]store.Attendee
	created   []store.Event
	notified  []int64
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		users:     map[int64]*store.User{},
		rels:      map[[2]int64]*access.Relationship{},
		events:    map[int64]*store.Event{},
		attendees: map[int64][]store.Attendee{},
	}
}

type fakeUsers struct{ f *fakeRepos }

func (r fakeUsers) GetByID(_ context.Context, id int64) (*store.User, error) {
	if u, ok := r.f.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (r fakeUsers) DefaultDetailLevel(_ context.Context, userID int64) (access.DetailLevel, error) {
	if u, ok := r.f.users[userID]; ok {
		return u.DefaultDetailLevel, nil
	}
	return "", store.ErrNotFound
}

type fakeFriendships struct{ f *fakeRepos }

func (r fakeFriendships) RelationshipBetween(_ context.Context, first, second int64) (*access.Relationship, error) {
	if rel, ok := r.f.rels[[2]int64{first, second}]; ok {
		return rel, nil
	}
	if rel, ok := r.f.rels[[2]int64{second, first}]; ok {
		return rel, nil
	}
	return nil, nil
}

type fakeEvents struct{ f *fakeRepos }

func (r fakeEvents) GetByID(_ context.Context, id int64) (*store.Event, error) {
	if e, ok := r.f.events[id]; ok {
		return e, nil
	}
	return nil, store.ErrNotFound
}

func (r fakeEvents) ListForOwner(_ context.Context, ownerID int64, from, to time.Time) ([]store.Event, error) {
	var out []store.Event
	for _, e := range r.f.events {
		if e.OwnerID == ownerID && e.StartAt.Before(to) && e.EndAt.After(from) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r fakeEvents) ListBusyIntervals(_ context.Context, participantID int64, from, to time.Time) ([]interval.Interval, error) {
	var busy []interval.Interval
	for _, e := range r.f.events {
		if e.OwnerID == participantID && e.StartAt.Before(to) && e.EndAt.After(from) {
			busy = append(busy, interval.Interval{Start: e.StartAt, End: e.EndAt})
		}
	}
	return busy, nil
}

func (r fakeEvents) CreateWithInvites(_ context.Context, event store.Event, inviteeIDs []int64) (int64, error) {
	r.f.created = append(r.f.created, event)
	return int64(len(r.f.created)), nil
}

type fakeAttendees struct{ f *fakeRepos }

func (r fakeAttendees) ListForEvent(_ context.Context, eventID int64) ([]store.Attendee, error) {
	return r.f.attendees[eventID], nil
}

type fakeNotifications struct{ f *fakeRepos }

func (r fakeNotifications) CreateInvite(_ context.Context, userID, _ int64) error {
	r.f.notified = append(r.f.notified, userID)
	return nil
}

func newTestRouter(f *fakeRepos) http.Handler {
	st := &store.Store{
		Users:         fakeUsers{f},
		Friendships:   fakeFriendships{f},
		Events:        fakeEvents{f},
		Attendees:     fakeAttendees{f},
		Notifications: fakeNotifications{f},
	}
	h := NewHandler(st)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware)
		r.Post("/api/availability/search", h.SearchAvailability)
		r.Post("/api/availability/confirm", h.ConfirmSlot)
		r.Get("/api/users/{id}/events", h.ListUserEvents)
		r.Get("/api/events/{id}", h.GetEvent)
	})
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, target string, viewerID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if viewerID != 0 {
		req.Header.Set(identity.Header, fmt.Sprintf("%d", viewerID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func seedFriends(f *fakeRepos, a, b int64) {
	f.rels[[2]int64{a, b}] = &access.Relationship{
		RequesterID: a, AddresseeID: b,
		Status: access.StatusAccepted, CanViewCalendar: true,
	}
}

func TestSearchAvailabilityEndpoint(t *testing.T) {
	f := newFakeRepos()
	f.users[1] = &store.User{ID: 1, DefaultDetailLevel: access.DetailBusyOnly}
	f.users[2] = &store.User{ID: 2, DefaultDetailLevel: access.DetailBusyOnly}
	seedFriends(f, 2, 1)
	f.events[1] = &store.Event{ID: 1, OwnerID: 1, StartAt: at(9, 0), EndAt: at(10, 0), Title: "a"}
	f.events[2] = &store.Event{ID: 2, OwnerID: 1, StartAt: at(11, 0), EndAt: at(12, 0), Title: "b"}
	f.events[3] = &store.Event{ID: 3, OwnerID: 2, StartAt: at(9, 30), EndAt: at(10, 30), Title: "c"}

	router := newTestRouter(f)
	body := fmt.Sprintf(`{"participantIds":[2],"windowStart":%q,"windowEnd":%q,"durationMinutes":30}`,
		at(9, 0).Format(time.RFC3339), at(13, 0).Format(time.RFC3339))

	rec := doRequest(t, router, http.MethodPost, "/api/availability/search", 1, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Slots []interval.Interval `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp.Slots) == 0 {
		t.Fatal("expected slots")
	}
	if !resp.Slots[0].Start.Equal(at(10, 30)) {
		t.Errorf("first slot starts %v, want 10:30", resp.Slots[0].Start)
	}
}

func TestSearchAvailabilityRequiresIdentity(t *testing.T) {
	router := newTestRouter(newFakeRepos())

	rec := doRequest(t, router, http.MethodPost, "/api/availability/search", 0, `{}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSearchAvailabilityDeniedNamesParticipant(t *testing.T) {
	f := newFakeRepos()
	f.users[1] = &store.User{ID: 1}
	// User 3 never accepted anything.

	router := newTestRouter(f)
	body := fmt.Sprintf(`{"participantIds":[3],"windowStart":%q,"windowEnd":%q,"durationMinutes":30}`,
		at(9, 0).Format(time.RFC3339), at(13, 0).Format(time.RFC3339))

	rec := doRequest(t, router, http.MethodPost, "/api/availability/search", 1, body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	var resp struct {
		Error   string `json:"error"`
		Details struct {
			ParticipantIDs []int64 `json:"participantIds"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp.Details.ParticipantIDs) != 1 || resp.Details.ParticipantIDs[0] != 3 {
		t.Errorf("denied participants = %v, want [3]", resp.Details.ParticipantIDs)
	}
	if strings.Contains(strings.ToLower(resp.Error), "block") {
		t.Errorf("error message leaks denial reason: %q", resp.Error)
	}
}

func TestSearchAvailabilityValidation(t *testing.T) {
	f := newFakeRepos()
	router := newTestRouter(f)

	body := fmt.Sprintf(`{"participantIds":[2],"windowStart":%q,"windowEnd":%q,"durationMinutes":-5}`,
		at(9, 0).Format(time.RFC3339), at(13, 0).Format(time.RFC3339))
	rec := doRequest(t, router, http.MethodPost, "/api/availability/search", 1, body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestConfirmSlotEndpoint(t *testing.T) {
	f := newFakeRepos()
	f.users[1] = &store.User{ID: 1}
	f.users[2] = &store.User{ID: 2}
	seedFriends(f, 2, 1)

	router := newTestRouter(f)
	body := fmt.Sprintf(`{"slot":{"start":%q,"end":%q},"inviteeIds":[2],"title":"Coffee"}`,
		at(10, 30).Format(time.RFC3339), at(11, 0).Format(time.RFC3339))

	rec := doRequest(t, router, http.MethodPost, "/api/availability/confirm", 1, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(f.created) != 1 {
		t.Fatalf("expected one event created, got %d", len(f.created))
	}
	if f.created[0].Title != "Coffee" || f.created[0].OwnerID != 1 {
		t.Errorf("unexpected event: %+v", f.created[0])
	}
	if len(f.notified) != 1 || f.notified[0] != 2 {
		t.Errorf("notified = %v, want [2]", f.notified)
	}
}

func TestListUserEventsRedactsForBusyOnlyFriend(t *testing.T) {
	f := newFakeRepos()
	f.users[1] = &store.User{ID: 1, DefaultDetailLevel: access.DetailBusyOnly}
	f.users[2] = &store.User{ID: 2}
	seedFriends(f, 2, 1)
	desc := "secret"
	f.events[1] = &store.Event{
		ID: 1, OwnerID: 1, StartAt: at(9, 0), EndAt: at(10, 0),
		Title: "Therapy", Description: &desc, Visibility: store.VisibilityFriends,
	}

	router := newTestRouter(f)
	target := fmt.Sprintf("/api/users/1/events?from=%s&to=%s",
		at(0, 0).Format(time.RFC3339), at(23, 0).Format(time.RFC3339))

	rec := doRequest(t, router, http.MethodGet, target, 2, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if strings.Contains(body, "Therapy") || strings.Contains(body, "secret") {
		t.Errorf("response leaks event content: %s", body)
	}
	if !strings.Contains(body, `"redacted":true`) {
		t.Errorf("expected redacted events, got %s", body)
	}
}

func TestListUserEventsDeniedForStranger(t *testing.T) {
	f := newFakeRepos()
	f.users[1] = &store.User{ID: 1}
	f.events[1] = &store.Event{ID: 1, OwnerID: 1, StartAt: at(9, 0), EndAt: at(10, 0), Title: "x"}

	router := newTestRouter(f)
	target := fmt.Sprintf("/api/users/1/events?from=%s&to=%s",
		at(0, 0).Format(time.RFC3339), at(23, 0).Format(time.RFC3339))

	known := doRequest(t, router, http.MethodGet, target, 9, "")
	unknownTarget := fmt.Sprintf("/api/users/404/events?from=%s&to=%s",
		at(0, 0).Format(time.RFC3339), at(23, 0).Format(time.RFC3339))
	unknown := doRequest(t, router, http.MethodGet, unknownTarget, 9, "")

	if known.Code != http.StatusForbidden || unknown.Code != http.StatusForbidden {
		t.Fatalf("statuses = %d/%d, want 403/403", known.Code, unknown.Code)
	}
	// Existing-but-denied and nonexistent owners must look the same.
	if strings.Contains(known.Body.String(), "not found") || strings.Contains(unknown.Body.String(), "not found") {
		t.Error("response distinguishes unknown users from denied ones")
	}
}

func TestGetEventCoverModeAndAnonymousAttendee(t *testing.T) {
	f := newFakeRepos()
	f.users[1] = &store.User{ID: 1, DefaultDetailLevel: access.DetailFull}
	f.users[2] = &store.User{ID: 2}
	seedFriends(f, 2, 1)
	f.events[5] = &store.Event{
		ID: 5, OwnerID: 1, StartAt: at(9, 0), EndAt: at(10, 0),
		Title: "Support group", Visibility: store.VisibilityFriends,
		CoverMode: store.CoverBusyOnly,
	}
	f.attendees[5] = []store.Attendee{
		{EventID: 5, UserID: 1, DisplayName: "Ana", Role: store.RoleHost, Status: store.AttendeeAccepted},
		{EventID: 5, UserID: 3, DisplayName: "Casey", Role: store.RoleInvited, Status: store.AttendeeAccepted, Anonymous: true},
	}

	router := newTestRouter(f)
	rec := doRequest(t, router, http.MethodGet, "/api/events/5", 2, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if strings.Contains(body, "Support group") {
		t.Errorf("cover mode leaked title to non-owner: %s", body)
	}
	if strings.Contains(body, "Casey") {
		t.Errorf("anonymous attendee identity leaked: %s", body)
	}
	if !strings.Contains(body, "Anonymous") {
		t.Errorf("expected placeholder attendee, got %s", body)
	}
}

func TestGetEventUnknownLooksLikeDenied(t *testing.T) {
	f := newFakeRepos()
	f.users[1] = &store.User{ID: 1}

	router := newTestRouter(f)
	rec := doRequest(t, router, http.MethodGet, "/api/events/999", 1, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for unknown event", rec.Code)
	}
}
