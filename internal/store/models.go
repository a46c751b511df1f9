package store

import (
	"time"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/access"
)

// User is an account in the social calendar.
type User struct {
	ID          int64
	DisplayName string
	Email       string
	// DefaultDetailLevel applies to accepted friends without a per-friend
	// override. New accounts start at BUSY_ONLY.
	DefaultDetailLevel access.DetailLevel
	CreatedAt          time.Time
}

// Friendship is the single row stored per unordered user pair. The columns
// are directed (requester sent the request) but the row answers queries from
// either direction.
type Friendship struct {
	ID              int64
	RequesterID     int64
	AddresseeID     int64
	Status          access.RelationshipStatus
	CanViewCalendar bool
	DetailOverride  *access.DetailLevel
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Visibility controls who may see an event at all.
type Visibility string

const (
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityFriends Visibility = "FRIENDS"
	VisibilityPublic  Visibility = "PUBLIC"
)

// CoverMode optionally forces busy-only redaction of one event to all
// non-owners, regardless of the viewer's permission.
type CoverMode string

const (
	CoverNone     CoverMode = "NONE"
	CoverBusyOnly CoverMode = "BUSY_ONLY"
)

// Event is a calendar event owned by one user.
type Event struct {
	ID           int64
	OwnerID      int64
	StartAt      time.Time
	EndAt        time.Time
	Title        string
	Description  *string
	LocationName *string
	Visibility   Visibility
	CoverMode    CoverMode
	CreatedAt    time.Time
}

// AttendeeRole distinguishes the event host from invited participants.
type AttendeeRole string

const (
	RoleHost    AttendeeRole = "HOST"
	RoleInvited AttendeeRole = "INVITED"
)

// AttendeeStatus is the attendee's reply state.
type AttendeeStatus string

const (
	AttendeeInvited  AttendeeStatus = "INVITED"
	AttendeeAccepted AttendeeStatus = "ACCEPTED"
	AttendeeDeclined AttendeeStatus = "DECLINED"
)

// Attendee links a user to an event. Anonymous attendees are shown as a
// placeholder identity to everyone except the event owner and themselves.
type Attendee struct {
	ID          int64
	EventID     int64
	UserID      int64
	DisplayName string
	Role        AttendeeRole
	Status      AttendeeStatus
	Anonymous   bool
	CreatedAt   time.Time
}

// Notification is a pending in-app notification row. Delivery happens
// elsewhere; this core only enqueues invite notifications.
type Notification struct {
	ID        int64
	UserID    int64
	EventID   int64
	Kind      string
	CreatedAt time.Time
}
