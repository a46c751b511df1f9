// Package access resolves calendar-view permissions between two users from
// the friendship graph. A permission is an ephemeral, per-request result and
// is never cached: friendships, blocks, and sharing settings can change
// between requests, and serving a stale permission is a privacy defect.
package access

import "context"

// DetailLevel is how much event content a viewer may see.
type DetailLevel string

const (
	// DetailFull exposes title, description, and location.
	DetailFull DetailLevel = "DETAILS"
	// DetailBusyOnly exposes presence only.
	DetailBusyOnly DetailLevel = "BUSY_ONLY"
)

// RelationshipStatus is the lifecycle state of a friendship edge.
type RelationshipStatus string

const (
	StatusPending  RelationshipStatus = "PENDING"
	StatusAccepted RelationshipStatus = "ACCEPTED"
	StatusDeclined RelationshipStatus = "DECLINED"
	StatusBlocked  RelationshipStatus = "BLOCKED"
)

// Relationship is the single row stored per unordered user pair. The row is
// directed (requester -> addressee) but may be queried from either side.
type Relationship struct {
	RequesterID     int64
	AddresseeID     int64
	Status          RelationshipStatus
	CanViewCalendar bool
	// DetailOverride is the per-friend detail level the owner granted when
	// accepting this specific request; nil means fall back to the owner's
	// account default.
	DetailOverride *DetailLevel
}

// Permission is the resolved outcome for one (owner, viewer) pair. Detail is
// empty when Allowed is false.
type Permission struct {
	Allowed bool        `json:"allowed"`
	Detail  DetailLevel `json:"detailLevel,omitempty"`
}

// RelationshipSource looks up the friendship row between two users,
// whichever direction it was stored in. Implementations must prefer the edge
// where first is the requester and fall back to the reverse edge, returning
// nil when neither exists.
type RelationshipSource interface {
	RelationshipBetween(ctx context.Context, first, second int64) (*Relationship, error)
}

// AccountDefaults supplies a user's account-wide default detail level,
// applied when no per-friend override exists.
type AccountDefaults interface {
	DefaultDetailLevel(ctx context.Context, userID int64) (DetailLevel, error)
}

// Resolver computes calendar permissions. Both dependencies are injected so
// the resolver stays a pure function of its explicit inputs.
type Resolver struct {
	rels     RelationshipSource
	defaults AccountDefaults
}

func NewResolver(rels RelationshipSource, defaults AccountDefaults) *Resolver {
	return &Resolver{rels: rels, defaults: defaults}
}

// Resolve computes whether viewer may see owner's calendar and at what
// detail level. Rules, in order:
//
//  1. A user always has full access to their own calendar.
//  2. A BLOCKED relationship in either direction denies access; blocking
//     dominates every other rule.
//  3. Only an ACCEPTED relationship with CanViewCalendar grants access;
//     PENDING and DECLINED behave as "not friends".
//  4. Detail level is the per-edge override if set, else the owner's account
//     default, else BUSY_ONLY.
//
// Permissions are never transitive across participants: callers of
// multi-participant queries invoke Resolve once per owner.
func (r *Resolver) Resolve(ctx context.Context, ownerID, viewerID int64) (Permission, error) {
	if viewerID == ownerID {
		return Permission{Allowed: true, Detail: DetailFull}, nil
	}

	// Viewer-as-requester first: a per-friend override the owner granted
	// when accepting this viewer's request lives on that edge.
	rel, err := r.rels.RelationshipBetween(ctx, viewerID, ownerID)
	if err != nil {
		return Permission{}, err
	}
	if rel == nil {
		return Permission{}, nil
	}
	if rel.Status == StatusBlocked {
		return Permission{}, nil
	}
	if rel.Status != StatusAccepted || !rel.CanViewCalendar {
		return Permission{}, nil
	}

	detail := DetailBusyOnly
	if rel.DetailOverride != nil {
		detail = *rel.DetailOverride
	} else {
		def, err := r.defaults.DefaultDetailLevel(ctx, ownerID)
		if err != nil {
			return Permission{}, err
		}
		if def != "" {
			detail = def
		}
	}
	return Permission{Allowed: true, Detail: detail}, nil
}
