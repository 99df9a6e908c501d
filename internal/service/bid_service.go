package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fieldserv-crm/internal/authz"
	"github.com/nurpe/fieldserv-crm/internal/model"
	"github.com/nurpe/fieldserv-crm/internal/registry"
)

// WorkOrderGenerator renders the printable form of a bid.
type WorkOrderGenerator interface {
	Generate(order model.WorkOrder) ([]byte, error)
}

// BidService owns the bid lifecycle: creation in the initial status and
// transitions validated against the bid type's status machine. Every
// mutation authorizes the caller before any other state is read.
type BidService struct {
	bids      BidStore
	bidTypes  BidTypeStore
	clients   ClientStore
	roles     RoleStore
	equipment EquipmentStore
	pdf       WorkOrderGenerator
}

func NewBidService(bids BidStore, bidTypes BidTypeStore, clients ClientStore, roles RoleStore, equipment EquipmentStore, pdf WorkOrderGenerator) *BidService {
	return &BidService{
		bids:      bids,
		bidTypes:  bidTypes,
		clients:   clients,
		roles:     roles,
		equipment: equipment,
		pdf:       pdf,
	}
}

type CreateBidInput struct {
	ClientID               uuid.UUID
	ClientObjectID         *uuid.UUID
	BidTypeID              uuid.UUID
	Description            string
	PlannedResolutionDate  *time.Time
	PlannedDurationMinutes int
	ParentID               *uuid.UUID
	Amount                 float64
	Principal              model.Principal
}

func (s *BidService) Create(ctx context.Context, input CreateBidInput) (*model.Bid, error) {
	if err := authorize(ctx, s.roles, input.Principal, authz.CapBidCreate); err != nil {
		return nil, err
	}
	if input.ClientID == uuid.Nil {
		return nil, fmt.Errorf("%w: client_id is required", ErrInvalidInput)
	}
	if input.BidTypeID == uuid.Nil {
		return nil, fmt.Errorf("%w: bid_type_id is required", ErrInvalidInput)
	}

	if _, err := s.clients.GetClient(ctx, input.ClientID); err != nil {
		return nil, mapStoreError(err, "client")
	}
	bidType, err := s.bidTypes.GetBidType(ctx, input.BidTypeID)
	if err != nil {
		return nil, mapStoreError(err, "bid type")
	}

	initial, err := registry.InitialStatus(bidType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	duration := input.PlannedDurationMinutes
	if duration == 0 {
		duration = bidType.PlannedDurationMinutes
	}

	bid := model.Bid{
		ClientID:               input.ClientID,
		ClientObjectID:         input.ClientObjectID,
		BidTypeID:              input.BidTypeID,
		Status:                 initial.Name,
		Description:            input.Description,
		CreatedBy:              input.Principal.UserID,
		PlannedResolutionDate:  input.PlannedResolutionDate,
		PlannedDurationMinutes: duration,
		ParentID:               input.ParentID,
		Amount:                 input.Amount,
	}
	return s.bids.CreateBid(ctx, bid)
}

// Transition moves a bid to the target status if the bid type's transition
// graph allows the edge. Responsibility is stamped on first assignment only:
// once a bid has a responsible user, later transitions never overwrite it.
func (s *BidService) Transition(ctx context.Context, bidID uuid.UUID, targetStatus string, principal model.Principal) (*model.Bid, error) {
	if err := authorize(ctx, s.roles, principal, authz.CapBidEdit); err != nil {
		return nil, err
	}

	bid, err := s.bids.GetBid(ctx, bidID)
	if err != nil {
		return nil, mapStoreError(err, "bid")
	}
	bidType, err := s.bidTypes.GetBidType(ctx, bid.BidTypeID)
	if err != nil {
		return nil, mapStoreError(err, "bid type")
	}

	current, ok := registry.ResolveStatus(bidType, bid.Status)
	if !ok {
		return nil, fmt.Errorf("%w: current status %q", ErrUnknownStatus, bid.Status)
	}
	target, ok := registry.ResolveStatus(bidType, targetStatus)
	if !ok {
		return nil, fmt.Errorf("%w: target status %q", ErrUnknownStatus, targetStatus)
	}
	if !registry.IsTransitionAllowed(bidType, current.Name, target.Name) {
		return nil, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, current.Name, target.Name)
	}

	var responsible *uuid.UUID
	var assignedAt *time.Time
	if bid.CurrentResponsibleUserID == nil {
		switch {
		case target.ResponsibleUserID != nil:
			responsible = target.ResponsibleUserID
		case target.ResponsibleRoleID != nil && *target.ResponsibleRoleID == principal.RoleID:
			userID := principal.UserID
			responsible = &userID
		}
		if responsible != nil {
			now := time.Now().UTC()
			assignedAt = &now
		}
	}

	updated, err := s.bids.UpdateBidStatus(ctx, bid.ID, target.Name, responsible, assignedAt)
	if err != nil {
		return nil, mapStoreError(err, "bid")
	}
	return updated, nil
}

type WorkOrderResult struct {
	FileName string
	Content  []byte
}

// WorkOrder renders the printable PDF form for a bid with its client,
// type and currently assigned equipment.
func (s *BidService) WorkOrder(ctx context.Context, bidID uuid.UUID, principal model.Principal) (*WorkOrderResult, error) {
	if err := authorize(ctx, s.roles, principal, authz.CapTabBids); err != nil {
		return nil, err
	}

	bid, err := s.bids.GetBid(ctx, bidID)
	if err != nil {
		return nil, mapStoreError(err, "bid")
	}
	bidType, err := s.bidTypes.GetBidType(ctx, bid.BidTypeID)
	if err != nil {
		return nil, mapStoreError(err, "bid type")
	}
	client, err := s.clients.GetClient(ctx, bid.ClientID)
	if err != nil {
		return nil, mapStoreError(err, "client")
	}
	items, err := s.equipment.ListItemsByBid(ctx, bid.ID)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(model.WorkOrder{
		Bid:     *bid,
		BidType: *bidType,
		Client:  *client,
		Items:   items,
	})
	if err != nil {
		return nil, err
	}
	return &WorkOrderResult{
		FileName: fmt.Sprintf("work-order-%s.pdf", bid.ID),
		Content:  content,
	}, nil
}

// authorize loads the caller's role and checks the capability bit. It runs
// before any entity state is read, so a forbidden caller learns nothing.
func authorize(ctx context.Context, roles RoleStore, principal model.Principal, capability authz.Capability) error {
	role, err := roles.GetRole(ctx, principal.RoleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return err
	}
	if !authz.Authorize(role, capability) {
		return ErrForbidden
	}
	return nil
}

func mapStoreError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	}
	return err
}
