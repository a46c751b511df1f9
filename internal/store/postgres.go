package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/access"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/interval"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool *pgxpool.Pool
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	defer observeDB(ctx, "db.users.get_by_id")()

	const q = `SELECT id, display_name, email, default_detail_level, created_at
FROM users WHERE id = $1`

	var u User
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.DisplayName, &u.Email, &u.DefaultDetailLevel, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (r *userRepo) DefaultDetailLevel(ctx context.Context, userID int64) (access.DetailLevel, error) {
	defer observeDB(ctx, "db.users.default_detail_level")()

	const q = `SELECT default_detail_level FROM users WHERE id = $1`

	var level access.DetailLevel
	err := r.pool.QueryRow(ctx, q, userID).Scan(&level)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("default detail level for user %d: %w", userID, err)
	}
	return level, nil
}

// friendshipRepo implements FriendshipRepository.
type friendshipRepo struct {
	pool *pgxpool.Pool
}

func (r *friendshipRepo) RelationshipBetween(ctx context.Context, first, second int64) (*access.Relationship, error) {
	defer observeDB(ctx, "db.friendships.between")()

	// One row per unordered pair, queried directionally: the first-as-
	// requester edge carries the per-friend override granted when that
	// request was accepted, so it is preferred over the reverse edge.
	const q = `SELECT requester_id, addressee_id, status, can_view_calendar, detail_override
FROM friendships
WHERE (requester_id = $1 AND addressee_id = $2)
   OR (requester_id = $2 AND addressee_id = $1)
ORDER BY (requester_id = $1) DESC
LIMIT 1`

	var rel access.Relationship
	var override *string
	err := r.pool.QueryRow(ctx, q, first, second).Scan(
		&rel.RequesterID, &rel.AddresseeID, &rel.Status, &rel.CanViewCalendar, &override,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("relationship between %d and %d: %w", first, second, err)
	}
	if override != nil {
		level := access.DetailLevel(*override)
		rel.DetailOverride = &level
	}
	return &rel, nil
}

// eventRepo implements EventRepository.
type eventRepo struct {
	pool *pgxpool.Pool
}

func (r *eventRepo) GetByID(ctx context.Context, id int64) (*Event, error) {
	defer observeDB(ctx, "db.events.get_by_id")()

	const q = `SELECT id, owner_id, start_at, end_at, title, description, location_name,
       visibility, cover_mode, created_at
FROM events WHERE id = $1`

	var e Event
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&e.ID, &e.OwnerID, &e.StartAt, &e.EndAt, &e.Title, &e.Description,
		&e.LocationName, &e.Visibility, &e.CoverMode, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return &e, nil
}

func (r *eventRepo) ListForOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]Event, error) {
	defer observeDB(ctx, "db.events.list_for_owner")()

	const q = `SELECT id, owner_id, start_at, end_at, title, description, location_name,
       visibility, cover_mode, created_at
FROM events
WHERE owner_id = $1 AND start_at < $3 AND end_at > $2
ORDER BY start_at`

	rows, err := r.pool.Query(ctx, q, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.OwnerID, &e.StartAt, &e.EndAt, &e.Title, &e.Description,
			&e.LocationName, &e.Visibility, &e.CoverMode, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepo) ListBusyIntervals(ctx context.Context, participantID int64, from, to time.Time) ([]interval.Interval, error) {
	defer observeDB(ctx, "db.events.list_busy_intervals")()

	// Owned events plus attended events where the participant has not
	// declined, overlapping the half-open window [from, to).
	const q = `SELECT DISTINCT e.start_at, e.end_at
FROM events e
LEFT JOIN event_attendees a ON a.event_id = e.id AND a.user_id = $1
WHERE (e.owner_id = $1 OR (a.user_id = $1 AND a.status <> 'DECLINED'))
  AND e.start_at < $3 AND e.end_at > $2
ORDER BY e.start_at`

	rows, err := r.pool.Query(ctx, q, participantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list busy intervals for user %d: %w", participantID, err)
	}
	defer rows.Close()

	var busy []interval.Interval
	for rows.Next() {
		var iv interval.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("scan busy interval: %w", err)
		}
		busy = append(busy, iv)
	}
	return busy, rows.Err()
}

func (r *eventRepo) CreateWithInvites(ctx context.Context, event Event, inviteeIDs []int64) (int64, error) {
	defer observeDB(ctx, "db.events.create_with_invites")()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin event creation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertEvent = `INSERT INTO events
(owner_id, start_at, end_at, title, description, location_name, visibility, cover_mode)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	var eventID int64
	if err := tx.QueryRow(ctx, insertEvent,
		event.OwnerID, event.StartAt, event.EndAt, event.Title,
		event.Description, event.LocationName, event.Visibility, event.CoverMode,
	).Scan(&eventID); err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	const insertAttendee = `INSERT INTO event_attendees (event_id, user_id, role, status)
VALUES ($1, $2, $3, $4)`

	if _, err := tx.Exec(ctx, insertAttendee, eventID, event.OwnerID, RoleHost, AttendeeAccepted); err != nil {
		return 0, fmt.Errorf("insert host attendee: %w", err)
	}
	for _, inviteeID := range inviteeIDs {
		if _, err := tx.Exec(ctx, insertAttendee, eventID, inviteeID, RoleInvited, AttendeeInvited); err != nil {
			return 0, fmt.Errorf("insert invitee %d: %w", inviteeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit event creation: %w", err)
	}
	return eventID, nil
}

// attendeeRepo implements AttendeeRepository.
type attendeeRepo struct {
	pool *pgxpool.Pool
}

func (r *attendeeRepo) ListForEvent(ctx context.Context, eventID int64) ([]Attendee, error) {
	defer observeDB(ctx, "db.attendees.list_for_event")()

	const q = `SELECT a.id, a.event_id, a.user_id, u.display_name, a.role, a.status, a.anonymous, a.created_at
FROM event_attendees a
JOIN users u ON u.id = a.user_id
WHERE a.event_id = $1
ORDER BY a.id`

	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var attendees []Attendee
	for rows.Next() {
		var a Attendee
		if err := rows.Scan(
			&a.ID, &a.EventID, &a.UserID, &a.DisplayName, &a.Role, &a.Status,
			&a.Anonymous, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// notificationRepo implements NotificationRepository.
type notificationRepo struct {
	pool *pgxpool.Pool
}

func (r *notificationRepo) CreateInvite(ctx context.Context, userID, eventID int64) error {
	defer observeDB(ctx, "db.notifications.create_invite")()

	const q = `INSERT INTO notifications (user_id, event_id, kind) VALUES ($1, $2, 'EVENT_INVITE')`
	if _, err := r.pool.Exec(ctx, q, userID, eventID); err != nil {
		return fmt.Errorf("create invite notification for user %d: %w", userID, err)
	}
	return nil
}
