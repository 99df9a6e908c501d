// Package registry resolves and validates bid type status machines.
// A bid type's statuses form the state set, position 1 is the open state,
// position 999 the closed one, and the transition list is the edge set
// keyed by position. Bids reference statuses by name, so names must stay
// unique within a type.
package registry

import (
	"errors"
	"fmt"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

// ErrInvalidDefinition is wrapped by every validation failure of Validate.
var ErrInvalidDefinition = errors.New("invalid bid type definition")

// ResolveStatus finds a status by name in the type's current status list.
func ResolveStatus(bidType *model.BidType, name string) (model.Status, bool) {
	for _, status := range bidType.Statuses {
		if status.Name == name {
			return status, true
		}
	}
	return model.Status{}, false
}

// InitialStatus returns the status at the open position. A validated bid
// type always has exactly one; anything else is a configuration fault.
func InitialStatus(bidType *model.BidType) (model.Status, error) {
	var found *model.Status
	for i := range bidType.Statuses {
		if bidType.Statuses[i].Position == model.PositionOpen {
			if found != nil {
				return model.Status{}, fmt.Errorf("%w: more than one status at position %d", ErrInvalidDefinition, model.PositionOpen)
			}
			found = &bidType.Statuses[i]
		}
	}
	if found == nil {
		return model.Status{}, fmt.Errorf("%w: no status at position %d", ErrInvalidDefinition, model.PositionOpen)
	}
	return *found, nil
}

// IsTransitionAllowed reports whether a transition edge exists whose
// endpoints resolve to the two names under the current status list.
func IsTransitionAllowed(bidType *model.BidType, fromName, toName string) bool {
	from, ok := ResolveStatus(bidType, fromName)
	if !ok {
		return false
	}
	to, ok := ResolveStatus(bidType, toName)
	if !ok {
		return false
	}
	for _, tr := range bidType.Transitions {
		if tr.From == from.Position && tr.To == to.Position {
			return true
		}
	}
	return false
}

// Validate enforces the structural invariants of a bid type definition:
// exactly one open and one closed status, unique positions, names and
// non-zero ids, transitions between existing positions, no
// self-transitions, and no transitions out of the closed status.
func Validate(bidType *model.BidType) error {
	if len(bidType.Statuses) == 0 {
		return fmt.Errorf("%w: status list is empty", ErrInvalidDefinition)
	}

	positions := make(map[int]struct{}, len(bidType.Statuses))
	names := make(map[string]struct{}, len(bidType.Statuses))
	ids := make(map[int]struct{}, len(bidType.Statuses))
	openCount, closedCount := 0, 0
	for _, status := range bidType.Statuses {
		if status.Name == "" {
			return fmt.Errorf("%w: status with empty name", ErrInvalidDefinition)
		}
		if status.ID != 0 {
			if _, dup := ids[status.ID]; dup {
				return fmt.Errorf("%w: duplicate status id %d", ErrInvalidDefinition, status.ID)
			}
			ids[status.ID] = struct{}{}
		}
		if status.Position < model.PositionOpen || status.Position > model.PositionClosed {
			return fmt.Errorf("%w: status %q position %d out of range", ErrInvalidDefinition, status.Name, status.Position)
		}
		if _, dup := positions[status.Position]; dup {
			return fmt.Errorf("%w: duplicate position %d", ErrInvalidDefinition, status.Position)
		}
		positions[status.Position] = struct{}{}
		if _, dup := names[status.Name]; dup {
			return fmt.Errorf("%w: duplicate status name %q", ErrInvalidDefinition, status.Name)
		}
		names[status.Name] = struct{}{}

		switch status.Position {
		case model.PositionOpen:
			openCount++
		case model.PositionClosed:
			closedCount++
		}
	}
	if openCount != 1 {
		return fmt.Errorf("%w: exactly one status must have position %d", ErrInvalidDefinition, model.PositionOpen)
	}
	if closedCount != 1 {
		return fmt.Errorf("%w: exactly one status must have position %d", ErrInvalidDefinition, model.PositionClosed)
	}

	for _, tr := range bidType.Transitions {
		if _, ok := positions[tr.From]; !ok {
			return fmt.Errorf("%w: transition from unknown position %d", ErrInvalidDefinition, tr.From)
		}
		if _, ok := positions[tr.To]; !ok {
			return fmt.Errorf("%w: transition to unknown position %d", ErrInvalidDefinition, tr.To)
		}
		if tr.From == tr.To {
			return fmt.Errorf("%w: self-transition at position %d", ErrInvalidDefinition, tr.From)
		}
		// Closed means closed.
		if tr.From == model.PositionClosed {
			return fmt.Errorf("%w: transition out of the closed status", ErrInvalidDefinition)
		}
	}
	return nil
}

// AssignStatusIDs gives every status a stable numeric id, preserving ids
// already present (an updated definition keeps the ids of surviving
// statuses) and numbering new ones past the current maximum.
func AssignStatusIDs(statuses []model.Status) []model.Status {
	maxID := 0
	for _, status := range statuses {
		if status.ID > maxID {
			maxID = status.ID
		}
	}
	out := make([]model.Status, len(statuses))
	for i, status := range statuses {
		if status.ID == 0 {
			maxID++
			status.ID = maxID
		}
		out[i] = status
	}
	return out
}
