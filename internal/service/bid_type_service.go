package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nurpe/fieldserv-crm/internal/authz"
	"github.com/nurpe/fieldserv-crm/internal/model"
	"github.com/nurpe/fieldserv-crm/internal/registry"
)

// BidTypeService manages status machine definitions. Definitions are
// validated structurally before persistence; transitions at runtime assume
// a previously validated type.
type BidTypeService struct {
	bidTypes BidTypeStore
	bids     BidStore
	roles    RoleStore
}

func NewBidTypeService(bidTypes BidTypeStore, bids BidStore, roles RoleStore) *BidTypeService {
	return &BidTypeService{bidTypes: bidTypes, bids: bids, roles: roles}
}

type BidTypeInput struct {
	Name                   string
	Description            string
	PlannedReactionMinutes int
	PlannedDurationMinutes int
	Statuses               []model.Status
	Transitions            []model.Transition
	Principal              model.Principal
}

func (s *BidTypeService) Create(ctx context.Context, input BidTypeInput) (*model.BidType, error) {
	if err := authorize(ctx, s.roles, input.Principal, authz.CapBidTypeCreate); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	bidType := model.BidType{
		Name:                   input.Name,
		Description:            input.Description,
		PlannedReactionMinutes: input.PlannedReactionMinutes,
		PlannedDurationMinutes: input.PlannedDurationMinutes,
		Statuses:               registry.AssignStatusIDs(input.Statuses),
		Transitions:            input.Transitions,
	}
	if err := registry.Validate(&bidType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return s.bidTypes.CreateBidType(ctx, bidType)
}

// Update replaces a type's definition. A status name that live bids still
// carry cannot be dropped or renamed away: the textual status reference in
// those bids would silently dangle.
func (s *BidTypeService) Update(ctx context.Context, id uuid.UUID, input BidTypeInput) (*model.BidType, error) {
	if err := authorize(ctx, s.roles, input.Principal, authz.CapBidTypeEdit); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	existing, err := s.bidTypes.GetBidType(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "bid type")
	}

	bidType := model.BidType{
		ID:                     existing.ID,
		Name:                   input.Name,
		Description:            input.Description,
		PlannedReactionMinutes: input.PlannedReactionMinutes,
		PlannedDurationMinutes: input.PlannedDurationMinutes,
		Statuses:               registry.AssignStatusIDs(input.Statuses),
		Transitions:            input.Transitions,
	}
	if err := registry.Validate(&bidType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	removed := removedStatusNames(existing.Statuses, bidType.Statuses)
	if len(removed) > 0 {
		inUse, err := s.bids.CountBidsInStatuses(ctx, existing.ID, removed)
		if err != nil {
			return nil, err
		}
		if inUse > 0 {
			return nil, fmt.Errorf("%w: statuses %v are still used by %d bid(s)", ErrConfiguration, removed, inUse)
		}
	}

	return s.bidTypes.UpdateBidType(ctx, bidType)
}

func (s *BidTypeService) Get(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.BidType, error) {
	if err := authorize(ctx, s.roles, principal, authz.CapSettingsBidTypesButton); err != nil {
		return nil, err
	}
	bidType, err := s.bidTypes.GetBidType(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "bid type")
	}
	return bidType, nil
}

func removedStatusNames(before, after []model.Status) []string {
	kept := make(map[string]struct{}, len(after))
	for _, status := range after {
		kept[status.Name] = struct{}{}
	}
	var removed []string
	for _, status := range before {
		if _, ok := kept[status.Name]; !ok {
			removed = append(removed, status.Name)
		}
	}
	return removed
}
