package model

import (
	"time"

	"github.com/google/uuid"
)

// Зарезервированные позиции статусов: 1 для открытой заявки, 999 для закрытой.
const (
	PositionOpen   = 1
	PositionClosed = 999
)

// Status is one entry of a bid type's status list. Position carries the
// transition-graph topology, Name is what gets written into Bid records,
// ID is a stable per-type identifier that survives renames.
type Status struct {
	ID                int        `json:"id"`
	Name              string     `json:"name"`
	Position          int        `json:"position"`
	Color             string     `json:"color,omitempty"`
	Actions           []string   `json:"actions,omitempty"`
	ResponsibleRoleID *uuid.UUID `json:"responsibleRoleId,omitempty"`
	ResponsibleUserID *uuid.UUID `json:"responsibleUserId,omitempty"`
}

// Transition is a directed edge between two status positions.
type Transition struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type BidType struct {
	ID                     uuid.UUID
	Name                   string
	Description            string
	PlannedReactionMinutes int
	PlannedDurationMinutes int
	Statuses               []Status
	Transitions            []Transition
	CreatedAt              time.Time
}
