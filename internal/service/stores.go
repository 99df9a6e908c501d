package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

// Store interfaces abstract the entity store. The gorm repositories in
// internal/repository are the production implementations; tests use
// in-memory fakes. Missing records are signalled with gorm.ErrRecordNotFound
// by the production side and mapped here to ErrNotFound.

type RoleStore interface {
	GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error)
	CreateRole(ctx context.Context, role model.Role) (*model.Role, error)
	UpdateRole(ctx context.Context, role model.Role) (*model.Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
	CountUsersWithRole(ctx context.Context, id uuid.UUID) (int64, error)
}

type ClientStore interface {
	GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error)
}

type BidStore interface {
	GetBid(ctx context.Context, id uuid.UUID) (*model.Bid, error)
	CreateBid(ctx context.Context, bid model.Bid) (*model.Bid, error)
	// UpdateBidStatus writes the status and any responsibility side effects
	// in one atomic store operation.
	UpdateBidStatus(ctx context.Context, id uuid.UUID, status string, responsible *uuid.UUID, assignedAt *time.Time) (*model.Bid, error)
	// CountBidsInStatuses counts live bids of the type whose status is one
	// of the given names.
	CountBidsInStatuses(ctx context.Context, bidTypeID uuid.UUID, names []string) (int64, error)
}

type BidTypeStore interface {
	GetBidType(ctx context.Context, id uuid.UUID) (*model.BidType, error)
	CreateBidType(ctx context.Context, bidType model.BidType) (*model.BidType, error)
	UpdateBidType(ctx context.Context, bidType model.BidType) (*model.BidType, error)
}

type EquipmentStore interface {
	GetCatalog(ctx context.Context, id uuid.UUID) (*model.Equipment, error)
	GetCatalogByCode(ctx context.Context, code string) (*model.Equipment, error)
	// AssignItems conditionally sets bid_id on every listed item in one
	// atomic operation. It reports ids held by another bid and ids that do
	// not exist; on any of those the whole batch is rolled back.
	AssignItems(ctx context.Context, bidID uuid.UUID, itemIDs []uuid.UUID) (conflicts, missing []uuid.UUID, err error)
	// ReleaseItems is the symmetric conditional clear: only items currently
	// held by exactly this bid are released, all or nothing.
	ReleaseItems(ctx context.Context, bidID uuid.UUID, itemIDs []uuid.UUID) (conflicts, missing []uuid.UUID, err error)
	ListAvailableItems(ctx context.Context, catalogID *uuid.UUID) ([]model.EquipmentItem, error)
	ListItemsByBid(ctx context.Context, bidID uuid.UUID) ([]model.EquipmentItemDetail, error)
	ListItemDetails(ctx context.Context) ([]model.EquipmentItemDetail, error)
	CreateItems(ctx context.Context, items []model.EquipmentItem) ([]model.EquipmentItem, error)
	SupplierExists(ctx context.Context, id uuid.UUID) (bool, error)
	WarehouseExists(ctx context.Context, id uuid.UUID) (bool, error)
}
