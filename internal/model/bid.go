package model

import (
	"time"

	"github.com/google/uuid"
)

// Bid is a work order. Status holds the name of a status from the bid
// type's status list; the lifecycle engine is the only writer.
type Bid struct {
	ID                       uuid.UUID
	ClientID                 uuid.UUID
	ClientObjectID           *uuid.UUID
	BidTypeID                uuid.UUID
	Status                   string
	Description              string
	CreatedBy                uuid.UUID
	CurrentResponsibleUserID *uuid.UUID
	AssignedAt               *time.Time
	PlannedResolutionDate    *time.Time
	PlannedDurationMinutes   int
	SpentTimeHours           float64
	ParentID                 *uuid.UUID
	Amount                   float64
	CreatedAt                time.Time
}

// WorkOrder собирает данные для печатной формы заявки.
type WorkOrder struct {
	Bid     Bid
	BidType BidType
	Client  Client
	Items   []EquipmentItemDetail
}
