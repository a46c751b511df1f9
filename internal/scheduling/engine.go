// Package scheduling orchestrates multi-party availability queries and the
// confirm-slot write path. For each request it resolves calendar permissions
// for every non-requester participant, fetches busy intervals through the
// event store, runs the interval algebra, and ranks candidate slots.
// Permission failures fail the whole request closed: silently dropping a
// participant would understate true unavailability and leak, by omission,
// who is reachable.
package scheduling

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/access"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/interval"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/store"
)

const (
	// maxSlotResults caps the candidate slots returned per query.
	maxSlotResults = 5
	// maxFanOut bounds the per-participant worker pool.
	maxFanOut = 8
)

// PermissionResolver resolves a calendar-view permission for one
// (owner, viewer) pair. Satisfied by *access.Resolver.
type PermissionResolver interface {
	Resolve(ctx context.Context, ownerID, viewerID int64) (access.Permission, error)
}

// BusySource fetches a participant's busy intervals overlapping a window.
type BusySource interface {
	ListBusyIntervals(ctx context.Context, participantID int64, from, to time.Time) ([]interval.Interval, error)
}

// EventCreator atomically creates an event with its host and invitee
// attendee rows.
type EventCreator interface {
	CreateWithInvites(ctx context.Context, event store.Event, inviteeIDs []int64) (int64, error)
}

// InviteNotifier enqueues an invite notification. Failures are logged and
// never roll back the event creation.
type InviteNotifier interface {
	CreateInvite(ctx context.Context, userID, eventID int64) error
}

// Engine is the availability orchestrator. All collaborators are injected;
// the engine holds no mutable state and every computation is request-scoped.
type Engine struct {
	perms  PermissionResolver
	rels   access.RelationshipSource
	busy   BusySource
	events EventCreator
	notify InviteNotifier
}

func NewEngine(perms PermissionResolver, rels access.RelationshipSource, busy BusySource, events EventCreator, notify InviteNotifier) *Engine {
	return &Engine{perms: perms, rels: rels, busy: busy, events: events, notify: notify}
}

// EventFields are the caller-supplied fields of the event created by
// ConfirmSlot.
type EventFields struct {
	Title        string
	Description  *string
	LocationName *string
	Visibility   store.Visibility
	CoverMode    store.CoverMode
}

// ConfirmResult reports the outcome of a confirmed slot. Invitees that
// failed re-validation are listed rather than silently vanishing.
type ConfirmResult struct {
	EventID    int64   `json:"eventId"`
	InvitedIDs []int64 `json:"invitedIds"`
	SkippedIDs []int64 `json:"skippedIds,omitempty"`
}

// FindCommonSlots computes up to five candidate slots of the requested
// duration inside window that every participant is free for.
//
// Permissions are resolved fresh for every non-requester participant, in
// parallel, before any calendar is read; if any participant is not fully
// allowed the request fails closed with a PermissionError naming them and
// no busy intervals are fetched. Busy fetches then fan out with the same
// bounded pool and join before the CPU-only intersection.
func (e *Engine) FindCommonSlots(ctx context.Context, requesterID int64, participantIDs []int64, window interval.Interval, duration time.Duration) ([]interval.Interval, error) {
	if !window.IsValid() {
		return nil, &ValidationError{Reason: "window end must be after window start"}
	}
	if duration <= 0 {
		return nil, &ValidationError{Reason: "duration must be positive"}
	}
	if duration > window.Duration() {
		return nil, &ValidationError{Reason: "duration exceeds query window"}
	}
	if len(participantIDs) == 0 {
		return nil, &ValidationError{Reason: "at least one participant is required"}
	}

	participants := normalizeParticipants(requesterID, participantIDs)

	denied, err := e.resolveAll(ctx, requesterID, participants)
	if err != nil {
		return nil, err
	}
	if len(denied) > 0 {
		return nil, &PermissionError{ParticipantIDs: denied}
	}

	freeLists, err := e.fetchFreeLists(ctx, participants, window)
	if err != nil {
		return nil, err
	}

	common := interval.IntersectFree(freeLists)
	return interval.PickSlots(common, window.Start, duration, maxSlotResults), nil
}

// resolveAll resolves permissions for every non-requester participant and
// returns the IDs that are not fully allowed. Resolutions are independent,
// so they fan out; permissions are never shared across participants.
func (e *Engine) resolveAll(ctx context.Context, requesterID int64, participants []int64) ([]int64, error) {
	results := make([]bool, len(participants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit(len(participants)))
	for i, id := range participants {
		if id == requesterID {
			results[i] = true
			continue
		}
		i, id := i, id
		g.Go(func() error {
			perm, err := e.perms.Resolve(gctx, id, requesterID)
			if err != nil {
				return err
			}
			results[i] = perm.Allowed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var denied []int64
	for i, ok := range results {
		if !ok {
			denied = append(denied, participants[i])
		}
	}
	return denied, nil
}

// fetchFreeLists fetches each participant's busy intervals and inverts them
// into free intervals within the window, one independent task per
// participant.
func (e *Engine) fetchFreeLists(ctx context.Context, participants []int64, window interval.Interval) ([][]interval.Interval, error) {
	freeLists := make([][]interval.Interval, len(participants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit(len(participants)))
	for i, id := range participants {
		i, id := i, id
		g.Go(func() error {
			busy, err := e.busy.ListBusyIntervals(gctx, id, window.Start, window.End)
			if err != nil {
				return err
			}
			freeLists[i] = interval.InvertToFree(interval.Merge(busy), window)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return freeLists, nil
}

// ConfirmSlot turns a chosen slot into an event. Invitees are re-validated
// independently of any earlier availability query: each must be an accepted
// friend of the requester and not blocked in either direction. Invalid
// invitees are skipped; if none remain valid the whole request is rejected
// rather than creating a solo event.
//
// The event, its HOST attendee, and one INVITED attendee per valid invitee
// are created in a single store transaction. Invite notifications are
// enqueued afterwards, fire-and-forget.
func (e *Engine) ConfirmSlot(ctx context.Context, requesterID int64, slot interval.Interval, inviteeIDs []int64, fields EventFields) (*ConfirmResult, error) {
	if !slot.IsValid() {
		return nil, &ValidationError{Reason: "slot end must be after slot start"}
	}
	if fields.Title == "" {
		return nil, &ValidationError{Reason: "title is required"}
	}
	if len(inviteeIDs) == 0 {
		return nil, &ValidationError{Reason: "at least one invitee is required"}
	}

	invitees := normalizeInvitees(requesterID, inviteeIDs)
	if len(invitees) == 0 {
		return nil, &ValidationError{Reason: "at least one invitee other than the requester is required"}
	}

	var valid, skipped []int64
	for _, inviteeID := range invitees {
		ok, err := e.inviteeAllowed(ctx, requesterID, inviteeID)
		if err != nil {
			return nil, err
		}
		if ok {
			valid = append(valid, inviteeID)
		} else {
			skipped = append(skipped, inviteeID)
		}
	}
	if len(valid) == 0 {
		return nil, &PermissionError{ParticipantIDs: skipped}
	}

	visibility := fields.Visibility
	if visibility == "" {
		visibility = store.VisibilityFriends
	}
	coverMode := fields.CoverMode
	if coverMode == "" {
		coverMode = store.CoverNone
	}

	eventID, err := e.events.CreateWithInvites(ctx, store.Event{
		OwnerID:      requesterID,
		StartAt:      slot.Start,
		EndAt:        slot.End,
		Title:        fields.Title,
		Description:  fields.Description,
		LocationName: fields.LocationName,
		Visibility:   visibility,
		CoverMode:    coverMode,
	}, valid)
	if err != nil {
		return nil, &TransactionError{Err: err}
	}

	for _, inviteeID := range valid {
		if err := e.notify.CreateInvite(ctx, inviteeID, eventID); err != nil {
			log.Printf("[WARN] invite notification for user %d on event %d failed: %v", inviteeID, eventID, err)
		}
	}

	return &ConfirmResult{EventID: eventID, InvitedIDs: valid, SkippedIDs: skipped}, nil
}

// inviteeAllowed checks the friend/block rules for one invitee. Unlike
// calendar viewing this does not require the can-view-calendar flag: being
// invitable and being viewable are separate grants.
func (e *Engine) inviteeAllowed(ctx context.Context, requesterID, inviteeID int64) (bool, error) {
	rel, err := e.rels.RelationshipBetween(ctx, requesterID, inviteeID)
	if err != nil {
		return false, err
	}
	if rel == nil {
		return false, nil
	}
	return rel.Status == access.StatusAccepted, nil
}

// normalizeParticipants deduplicates the set and force-includes the
// requester, preserving first-seen order.
func normalizeParticipants(requesterID int64, ids []int64) []int64 {
	seen := map[int64]struct{}{requesterID: {}}
	out := []int64{requesterID}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// normalizeInvitees deduplicates and drops the requester, who becomes the
// HOST attendee rather than an invitee.
func normalizeInvitees(requesterID int64, ids []int64) []int64 {
	seen := map[int64]struct{}{requesterID: {}}
	var out []int64
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func fanOutLimit(n int) int {
	if n < maxFanOut {
		return n
	}
	return maxFanOut
}
