package model

import (
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
}

// ClientObject is a client's serviced site (building, branch office).
type ClientObject struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	Name     string
	Address  string
}

type Supplier struct {
	ID      uuid.UUID
	Name    string
	Phone   string
	Address string
}

type Warehouse struct {
	ID      uuid.UUID
	Name    string
	Address string
}
