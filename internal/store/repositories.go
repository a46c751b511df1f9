package store

import (
	"context"
	"time"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/access"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/interval"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	DefaultDetailLevel(ctx context.Context, userID int64) (access.DetailLevel, error)
}

// FriendshipRepository answers relationship lookups for the access resolver.
type FriendshipRepository interface {
	// RelationshipBetween returns the single friendship row between two
	// users, trying first-as-requester before the reverse edge. Returns
	// nil when no row exists in either direction.
	RelationshipBetween(ctx context.Context, first, second int64) (*access.Relationship, error)
}

// EventRepository handles event storage and the busy-interval read used by
// availability queries.
type EventRepository interface {
	GetByID(ctx context.Context, id int64) (*Event, error)
	// ListForOwner returns the owner's events overlapping [from, to).
	ListForOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]Event, error)
	// ListBusyIntervals returns the intervals of events the participant
	// owns or attends with a non-declined status, overlapping [from, to).
	ListBusyIntervals(ctx context.Context, participantID int64, from, to time.Time) ([]interval.Interval, error)
	// CreateWithInvites creates the event, a HOST attendee row for the
	// owner, and one INVITED attendee row per invitee in a single
	// transaction. Either all rows are created or none are.
	CreateWithInvites(ctx context.Context, event Event, inviteeIDs []int64) (int64, error)
}

// AttendeeRepository reads attendee rows for event detail views.
type AttendeeRepository interface {
	ListForEvent(ctx context.Context, eventID int64) ([]Attendee, error)
}

// NotificationRepository enqueues notifications. Delivery is out of scope;
// enqueue failures never roll back the write that triggered them.
type NotificationRepository interface {
	CreateInvite(ctx context.Context, userID, eventID int64) error
}
