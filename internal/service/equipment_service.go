package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/fieldserv-crm/internal/authz"
	"github.com/nurpe/fieldserv-crm/internal/model"
)

// IntakeRow is one row of an uploaded intake workbook.
type IntakeRow struct {
	ProductCode   string
	IMEI          *string
	PurchasePrice float64
}

// IntakeParser reads an intake workbook into rows.
type IntakeParser interface {
	ParseIntake(r io.Reader) ([]IntakeRow, error)
}

// RegisterGenerator renders the equipment register workbook.
type RegisterGenerator interface {
	Generate(items []model.EquipmentItemDetail) ([]byte, error)
}

// EquipmentService owns the allocation of serialized equipment units to
// bids. A unit belongs to at most one active bid; the exclusivity check is
// a conditional store update, never a read-then-write.
type EquipmentService struct {
	equipment EquipmentStore
	bids      BidStore
	roles     RoleStore
	parser    IntakeParser
	register  RegisterGenerator
}

func NewEquipmentService(equipment EquipmentStore, bids BidStore, roles RoleStore, parser IntakeParser, register RegisterGenerator) *EquipmentService {
	return &EquipmentService{
		equipment: equipment,
		bids:      bids,
		roles:     roles,
		parser:    parser,
		register:  register,
	}
}

// Assign checks the whole batch out to the bid, all or nothing. Items
// already held by this same bid are a no-op, not a conflict.
func (s *EquipmentService) Assign(ctx context.Context, bidID uuid.UUID, itemIDs []uuid.UUID, principal model.Principal) ([]model.EquipmentItemDetail, error) {
	if err := authorize(ctx, s.roles, principal, authz.CapEquipmentAssign); err != nil {
		return nil, err
	}
	ids := dedupeIDs(itemIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no equipment items given", ErrInvalidInput)
	}
	if _, err := s.bids.GetBid(ctx, bidID); err != nil {
		return nil, mapStoreError(err, "bid")
	}

	conflicts, missing, err := s.equipment.AssignItems(ctx, bidID, ids)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: equipment items %s", ErrNotFound, joinIDs(missing))
	}
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAllocated, joinIDs(conflicts))
	}
	return s.equipment.ListItemsByBid(ctx, bidID)
}

// Release clears the batch, all or nothing. Every listed item must be held
// by exactly this bid.
func (s *EquipmentService) Release(ctx context.Context, bidID uuid.UUID, itemIDs []uuid.UUID, principal model.Principal) ([]model.EquipmentItemDetail, error) {
	if err := authorize(ctx, s.roles, principal, authz.CapEquipmentAssign); err != nil {
		return nil, err
	}
	ids := dedupeIDs(itemIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no equipment items given", ErrInvalidInput)
	}
	if _, err := s.bids.GetBid(ctx, bidID); err != nil {
		return nil, mapStoreError(err, "bid")
	}

	conflicts, missing, err := s.equipment.ReleaseItems(ctx, bidID, ids)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: equipment items %s", ErrNotFound, joinIDs(missing))
	}
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotAllocated, joinIDs(conflicts))
	}
	return s.equipment.ListItemsByBid(ctx, bidID)
}

// ListAvailable returns units not checked out to any bid, optionally
// narrowed to one catalog entry.
func (s *EquipmentService) ListAvailable(ctx context.Context, catalogID *uuid.UUID, principal model.Principal) ([]model.EquipmentItem, error) {
	if err := authorize(ctx, s.roles, principal, authz.CapTabEquipment); err != nil {
		return nil, err
	}
	if catalogID != nil {
		if _, err := s.equipment.GetCatalog(ctx, *catalogID); err != nil {
			return nil, mapStoreError(err, "equipment catalog entry")
		}
	}
	return s.equipment.ListAvailableItems(ctx, catalogID)
}

type ReceiveInput struct {
	CatalogID   uuid.UUID
	SupplierID  uuid.UUID
	WarehouseID uuid.UUID
	Units       []model.IntakeUnit
	Principal   model.Principal
}

// Receive is bulk intake: every created unit starts unallocated.
func (s *EquipmentService) Receive(ctx context.Context, input ReceiveInput) ([]model.EquipmentItem, error) {
	if err := authorize(ctx, s.roles, input.Principal, authz.CapEquipmentCreate); err != nil {
		return nil, err
	}
	if len(input.Units) == 0 {
		return nil, fmt.Errorf("%w: no units given", ErrInvalidInput)
	}
	if _, err := s.equipment.GetCatalog(ctx, input.CatalogID); err != nil {
		return nil, mapStoreError(err, "equipment catalog entry")
	}
	if err := s.checkSupplierAndWarehouse(ctx, input.SupplierID, input.WarehouseID); err != nil {
		return nil, err
	}

	items := make([]model.EquipmentItem, 0, len(input.Units))
	for _, unit := range input.Units {
		items = append(items, model.EquipmentItem{
			EquipmentID:   input.CatalogID,
			IMEI:          unit.IMEI,
			PurchasePrice: unit.PurchasePrice,
			SupplierID:    input.SupplierID,
			WarehouseID:   input.WarehouseID,
		})
	}
	return s.equipment.CreateItems(ctx, items)
}

// Import runs bulk intake from an uploaded workbook, resolving catalog
// entries by product code.
func (s *EquipmentService) Import(ctx context.Context, supplierID, warehouseID uuid.UUID, upload io.Reader, principal model.Principal) ([]model.EquipmentItem, error) {
	if err := authorize(ctx, s.roles, principal, authz.CapEquipmentImport); err != nil {
		return nil, err
	}
	rows, err := s.parser.ParseIntake(upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: workbook has no data rows", ErrInvalidInput)
	}
	if err := s.checkSupplierAndWarehouse(ctx, supplierID, warehouseID); err != nil {
		return nil, err
	}

	catalogByCode := make(map[string]uuid.UUID)
	items := make([]model.EquipmentItem, 0, len(rows))
	for i, row := range rows {
		code := strings.TrimSpace(row.ProductCode)
		if code == "" {
			return nil, fmt.Errorf("%w: row %d has no product code", ErrInvalidInput, i+2)
		}
		catalogID, ok := catalogByCode[code]
		if !ok {
			catalog, err := s.equipment.GetCatalogByCode(ctx, code)
			if err != nil {
				return nil, mapStoreError(err, fmt.Sprintf("equipment catalog entry %q", code))
			}
			catalogID = catalog.ID
			catalogByCode[code] = catalogID
		}
		items = append(items, model.EquipmentItem{
			EquipmentID:   catalogID,
			IMEI:          row.IMEI,
			PurchasePrice: row.PurchasePrice,
			SupplierID:    supplierID,
			WarehouseID:   warehouseID,
		})
	}
	return s.equipment.CreateItems(ctx, items)
}

type RegisterResult struct {
	FileName string
	Content  []byte
}

// Export renders the full equipment register with allocation state.
func (s *EquipmentService) Export(ctx context.Context, principal model.Principal) (*RegisterResult, error) {
	if err := authorize(ctx, s.roles, principal, authz.CapEquipmentExport); err != nil {
		return nil, err
	}
	items, err := s.equipment.ListItemDetails(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.register.Generate(items)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{
		FileName: fmt.Sprintf("equipment-register-%s.xlsx", time.Now().UTC().Format("20060102")),
		Content:  content,
	}, nil
}

func (s *EquipmentService) checkSupplierAndWarehouse(ctx context.Context, supplierID, warehouseID uuid.UUID) error {
	ok, err := s.equipment.SupplierExists(ctx, supplierID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: supplier", ErrNotFound)
	}
	ok, err = s.equipment.WarehouseExists(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: warehouse", ErrNotFound)
	}
	return nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
