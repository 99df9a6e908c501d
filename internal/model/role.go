package model

import (
	"time"

	"github.com/google/uuid"
)

// Role carries a flat permission document: capability name -> allowed.
// Missing keys mean "not allowed"; there is no implication or inheritance,
// and the administrator role gets no special treatment.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	Permissions map[string]bool
	CreatedAt   time.Time
}
