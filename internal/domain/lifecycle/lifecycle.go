// Package lifecycle is the content visibility gate: the finite state machine deciding which
// status changes are legal and which resources are publicly discoverable.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/domain"
)

// Status is a resource lifecycle state.
type Status string

// Lifecycle states.
const (
	Discovered    Status = "DISCOVERED"
	PendingReview Status = "PENDING_REVIEW"
	Approved      Status = "APPROVED"
	Published     Status = "PUBLISHED"
	Archived      Status = "ARCHIVED"
	Rejected      Status = "REJECTED"
)

// DefaultArchivedReason is recorded when an archive transition carries no reason.
const DefaultArchivedReason = "archived"

// All lists every state in declaration order.
func All() []Status {
	return []Status{Discovered, PendingReview, Approved, Published, Archived, Rejected}
}

// IsValid reports whether s is a known state.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// transitions is the single authoritative adjacency table.
// Targets are listed in the order they are reported to callers.
var transitions = map[Status][]Status{
	Discovered:    {PendingReview, Rejected},
	PendingReview: {Approved, Rejected},
	Approved:      {Published, PendingReview},
	Published:     {Archived},
	Archived:      {Published},
	Rejected:      {PendingReview},
}

// IsValidTransition reports whether current -> next is in the table.
func IsValidTransition(current, next Status) bool {
	for _, s := range transitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the allowed targets of current. Unknown states yield an empty slice.
func NextStatuses(current Status) []Status {
	next := transitions[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether s only changes through an explicit further transition.
func IsTerminal(s Status) bool {
	return s == Published || s == Archived
}

// IsPublic reports whether a resource in state s may appear in public search.
func IsPublic(s Status) bool {
	return s == Published
}

// StatusChange is one immutable entry of a resource's status history.
type StatusChange struct {
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
	ChangedBy string    `json:"changedBy"`
	Reason    string    `json:"reason,omitempty"`
}

// Update is the set of field changes a legal transition implies.
// Nil pointers leave the corresponding field untouched.
type Update struct {
	Status         Status
	Change         StatusChange
	PublishedAt    *time.Time
	ArchivedAt     *time.Time
	ArchivedReason *string
	// ClearArchive nulls archivedAt/archivedReason (ARCHIVED -> PUBLISHED only).
	ClearArchive bool
}

// InvalidTransitionError wraps domain.ErrInvalidTransition with the rejected pair
// and the states that would have been accepted.
type InvalidTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *InvalidTransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		names := make([]string, len(e.Allowed))
		for i, s := range e.Allowed {
			names[i] = string(s)
		}
		allowed = strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s: cannot move from %s to %s (allowed: %s)",
		domain.ErrInvalidTransition.Error(), e.From, e.To, allowed)
}

func (e *InvalidTransitionError) Unwrap() error { return domain.ErrInvalidTransition }

// Gate computes transition updates. The zero value is not usable; use NewGate.
type Gate struct {
	now func() time.Time
}

// NewGate creates a gate stamping updates with time.Now.
func NewGate() *Gate {
	return &Gate{now: time.Now}
}

// WithClock replaces the gate's clock (tests).
func (g *Gate) WithClock(now func() time.Time) *Gate {
	if now != nil {
		g.now = now
	}
	return g
}

// PrepareTransition validates current -> next and returns the implied field changes.
func (g *Gate) PrepareTransition(current, next Status, actor, reason string) (Update, error) {
	if !IsValidTransition(current, next) {
		return Update{}, &InvalidTransitionError{From: current, To: next, Allowed: NextStatuses(current)}
	}

	now := g.now().UTC()
	u := Update{
		Status: next,
		Change: StatusChange{Status: next, ChangedAt: now, ChangedBy: actor, Reason: reason},
	}

	switch next {
	case Published:
		u.PublishedAt = &now
		if current == Archived {
			u.ClearArchive = true
		}
	case Archived:
		r := reason
		if r == "" {
			r = DefaultArchivedReason
		}
		u.ArchivedAt = &now
		u.ArchivedReason = &r
	}

	return u, nil
}
