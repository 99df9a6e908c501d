package service

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

// In-memory store fakes. The equipment fake reproduces the conditional
// check-and-set semantics of the production repository, including under
// concurrent callers, so the exclusivity properties can be exercised
// without a database.

type fakeRoleStore struct {
	mu        sync.Mutex
	roles     map[uuid.UUID]*model.Role
	userCount map[uuid.UUID]int64
	deleted   []uuid.UUID
}

func newFakeRoleStore(roles ...*model.Role) *fakeRoleStore {
	s := &fakeRoleStore{
		roles:     make(map[uuid.UUID]*model.Role),
		userCount: make(map[uuid.UUID]int64),
	}
	for _, role := range roles {
		s.roles[role.ID] = role
	}
	return s
}

func (s *fakeRoleStore) GetRole(_ context.Context, id uuid.UUID) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *role
	return &copied, nil
}

func (s *fakeRoleStore) CreateRole(_ context.Context, role model.Role) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role.ID = uuid.New()
	role.CreatedAt = time.Now()
	s.roles[role.ID] = &role
	return &role, nil
}

func (s *fakeRoleStore) UpdateRole(_ context.Context, role model.Role) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[role.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.roles[role.ID] = &role
	return &role, nil
}

func (s *fakeRoleStore) DeleteRole(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeRoleStore) CountUsersWithRole(_ context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userCount[id], nil
}

type fakeBidStore struct {
	mu    sync.Mutex
	bids  map[uuid.UUID]*model.Bid
	reads atomic.Int64
}

func newFakeBidStore(bids ...*model.Bid) *fakeBidStore {
	s := &fakeBidStore{bids: make(map[uuid.UUID]*model.Bid)}
	for _, bid := range bids {
		s.bids[bid.ID] = bid
	}
	return s
}

func (s *fakeBidStore) GetBid(_ context.Context, id uuid.UUID) (*model.Bid, error) {
	s.reads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	bid, ok := s.bids[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *bid
	return &copied, nil
}

func (s *fakeBidStore) CreateBid(_ context.Context, bid model.Bid) (*model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bid.ID = uuid.New()
	bid.CreatedAt = time.Now()
	s.bids[bid.ID] = &bid
	copied := bid
	return &copied, nil
}

func (s *fakeBidStore) UpdateBidStatus(_ context.Context, id uuid.UUID, status string, responsible *uuid.UUID, assignedAt *time.Time) (*model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bid, ok := s.bids[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	bid.Status = status
	if responsible != nil {
		bid.CurrentResponsibleUserID = responsible
	}
	if assignedAt != nil {
		bid.AssignedAt = assignedAt
	}
	copied := *bid
	return &copied, nil
}

func (s *fakeBidStore) CountBidsInStatuses(_ context.Context, bidTypeID uuid.UUID, names []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, bid := range s.bids {
		if bid.BidTypeID != bidTypeID {
			continue
		}
		for _, name := range names {
			if bid.Status == name {
				count++
				break
			}
		}
	}
	return count, nil
}

type fakeBidTypeStore struct {
	mu       sync.Mutex
	bidTypes map[uuid.UUID]*model.BidType
}

func newFakeBidTypeStore(bidTypes ...*model.BidType) *fakeBidTypeStore {
	s := &fakeBidTypeStore{bidTypes: make(map[uuid.UUID]*model.BidType)}
	for _, bt := range bidTypes {
		s.bidTypes[bt.ID] = bt
	}
	return s
}

func (s *fakeBidTypeStore) GetBidType(_ context.Context, id uuid.UUID) (*model.BidType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bt, ok := s.bidTypes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *bt
	return &copied, nil
}

func (s *fakeBidTypeStore) CreateBidType(_ context.Context, bidType model.BidType) (*model.BidType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bidType.ID = uuid.New()
	bidType.CreatedAt = time.Now()
	s.bidTypes[bidType.ID] = &bidType
	copied := bidType
	return &copied, nil
}

func (s *fakeBidTypeStore) UpdateBidType(_ context.Context, bidType model.BidType) (*model.BidType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bidTypes[bidType.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.bidTypes[bidType.ID] = &bidType
	return &bidType, nil
}

type fakeClientStore struct {
	clients map[uuid.UUID]*model.Client
}

func newFakeClientStore(clients ...*model.Client) *fakeClientStore {
	s := &fakeClientStore{clients: make(map[uuid.UUID]*model.Client)}
	for _, client := range clients {
		s.clients[client.ID] = client
	}
	return s
}

func (s *fakeClientStore) GetClient(_ context.Context, id uuid.UUID) (*model.Client, error) {
	client, ok := s.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *client
	return &copied, nil
}

type fakeEquipmentStore struct {
	mu         sync.Mutex
	catalogs   map[uuid.UUID]*model.Equipment
	items      map[uuid.UUID]*model.EquipmentItem
	suppliers  map[uuid.UUID]struct{}
	warehouses map[uuid.UUID]struct{}
}

func newFakeEquipmentStore() *fakeEquipmentStore {
	return &fakeEquipmentStore{
		catalogs:   make(map[uuid.UUID]*model.Equipment),
		items:      make(map[uuid.UUID]*model.EquipmentItem),
		suppliers:  make(map[uuid.UUID]struct{}),
		warehouses: make(map[uuid.UUID]struct{}),
	}
}

func (s *fakeEquipmentStore) GetCatalog(_ context.Context, id uuid.UUID) (*model.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	catalog, ok := s.catalogs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *catalog
	return &copied, nil
}

func (s *fakeEquipmentStore) GetCatalogByCode(_ context.Context, code string) (*model.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, catalog := range s.catalogs {
		if catalog.ProductCode == code {
			copied := *catalog
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeEquipmentStore) AssignItems(_ context.Context, bidID uuid.UUID, itemIDs []uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var conflicts, missing []uuid.UUID
	for _, id := range itemIDs {
		item, ok := s.items[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if item.BidID != nil && *item.BidID != bidID {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 || len(missing) > 0 {
		return conflicts, missing, nil
	}
	for _, id := range itemIDs {
		bid := bidID
		s.items[id].BidID = &bid
	}
	return nil, nil, nil
}

func (s *fakeEquipmentStore) ReleaseItems(_ context.Context, bidID uuid.UUID, itemIDs []uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var conflicts, missing []uuid.UUID
	for _, id := range itemIDs {
		item, ok := s.items[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if item.BidID == nil || *item.BidID != bidID {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 || len(missing) > 0 {
		return conflicts, missing, nil
	}
	for _, id := range itemIDs {
		s.items[id].BidID = nil
	}
	return nil, nil, nil
}

func (s *fakeEquipmentStore) ListAvailableItems(_ context.Context, catalogID *uuid.UUID) ([]model.EquipmentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EquipmentItem
	for _, item := range s.items {
		if item.BidID != nil {
			continue
		}
		if catalogID != nil && item.EquipmentID != *catalogID {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (s *fakeEquipmentStore) ListItemsByBid(_ context.Context, bidID uuid.UUID) ([]model.EquipmentItemDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EquipmentItemDetail
	for _, item := range s.items {
		if item.BidID == nil || *item.BidID != bidID {
			continue
		}
		detail := model.EquipmentItemDetail{EquipmentItem: *item}
		if catalog, ok := s.catalogs[item.EquipmentID]; ok {
			detail.EquipmentName = catalog.Name
			detail.ProductCode = catalog.ProductCode
		}
		out = append(out, detail)
	}
	return out, nil
}

func (s *fakeEquipmentStore) ListItemDetails(_ context.Context) ([]model.EquipmentItemDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EquipmentItemDetail
	for _, item := range s.items {
		detail := model.EquipmentItemDetail{EquipmentItem: *item}
		if catalog, ok := s.catalogs[item.EquipmentID]; ok {
			detail.EquipmentName = catalog.Name
			detail.ProductCode = catalog.ProductCode
		}
		out = append(out, detail)
	}
	return out, nil
}

func (s *fakeEquipmentStore) CreateItems(_ context.Context, items []model.EquipmentItem) ([]model.EquipmentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EquipmentItem, 0, len(items))
	for _, item := range items {
		item.ID = uuid.New()
		item.CreatedAt = time.Now()
		stored := item
		s.items[item.ID] = &stored
		out = append(out, item)
	}
	return out, nil
}

func (s *fakeEquipmentStore) SupplierExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.suppliers[id]
	return ok, nil
}

func (s *fakeEquipmentStore) WarehouseExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.warehouses[id]
	return ok, nil
}

type fakeIntakeParser struct {
	rows []IntakeRow
	err  error
}

func (p *fakeIntakeParser) ParseIntake(_ io.Reader) ([]IntakeRow, error) {
	return p.rows, p.err
}

type fakeRegisterGenerator struct{}

func (fakeRegisterGenerator) Generate(_ []model.EquipmentItemDetail) ([]byte, error) {
	return []byte("xlsx"), nil
}

type fakeWorkOrderGenerator struct{}

func (fakeWorkOrderGenerator) Generate(_ model.WorkOrder) ([]byte, error) {
	return []byte("%PDF-"), nil
}
