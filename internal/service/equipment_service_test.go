package service

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

type equipmentFixture struct {
	svc       *EquipmentService
	store     *fakeEquipmentStore
	bids      *fakeBidStore
	parser    *fakeIntakeParser
	catalog   *model.Equipment
	supplier  uuid.UUID
	warehouse uuid.UUID
}

func newEquipmentFixture(role *model.Role) *equipmentFixture {
	store := newFakeEquipmentStore()
	catalog := &model.Equipment{ID: uuid.New(), Name: "GPS-трекер FMB920", ProductCode: "FMB920"}
	store.catalogs[catalog.ID] = catalog

	supplier := uuid.New()
	warehouse := uuid.New()
	store.suppliers[supplier] = struct{}{}
	store.warehouses[warehouse] = struct{}{}

	bids := newFakeBidStore()
	parser := &fakeIntakeParser{}
	svc := NewEquipmentService(store, bids, newFakeRoleStore(role), parser, fakeRegisterGenerator{})
	return &equipmentFixture{
		svc:       svc,
		store:     store,
		bids:      bids,
		parser:    parser,
		catalog:   catalog,
		supplier:  supplier,
		warehouse: warehouse,
	}
}

func (fx *equipmentFixture) receive(t *testing.T, principal model.Principal, count int) []model.EquipmentItem {
	t.Helper()
	units := make([]model.IntakeUnit, count)
	items, err := fx.svc.Receive(context.Background(), ReceiveInput{
		CatalogID:   fx.catalog.ID,
		SupplierID:  fx.supplier,
		WarehouseID: fx.warehouse,
		Units:       units,
		Principal:   principal,
	})
	require.NoError(t, err)
	require.Len(t, items, count)
	return items
}

func (fx *equipmentFixture) newBid() *model.Bid {
	bid := &model.Bid{ID: uuid.New(), Status: "Open"}
	fx.bids.bids[bid.ID] = bid
	return bid
}

func allCaps() *model.Role {
	return roleWith("equipment_create", "equipment_assign", "equipment_import", "equipment_export", "tab_equipment")
}

func TestReceiveCreatesUnallocatedItems(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)

	items := fx.receive(t, principal, 3)
	for _, item := range items {
		require.Nil(t, item.BidID)
	}

	available, err := fx.svc.ListAvailable(context.Background(), nil, principal)
	require.NoError(t, err)
	require.Len(t, available, 3)
}

func TestAssignRemovesFromAvailable(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)

	items := fx.receive(t, principal, 2)
	bid := fx.newBid()

	assigned, err := fx.svc.Assign(context.Background(), bid.ID, []uuid.UUID{items[0].ID}, principal)
	require.NoError(t, err)
	require.Len(t, assigned, 1)

	available, err := fx.svc.ListAvailable(context.Background(), nil, principal)
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.Equal(t, items[1].ID, available[0].ID)
}

func TestAssignIdempotentForSameBid(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)

	items := fx.receive(t, principal, 1)
	bid := fx.newBid()
	ids := []uuid.UUID{items[0].ID}

	_, err := fx.svc.Assign(context.Background(), bid.ID, ids, principal)
	require.NoError(t, err)
	_, err = fx.svc.Assign(context.Background(), bid.ID, ids, principal)
	require.NoError(t, err)

	require.Equal(t, bid.ID, *fx.store.items[items[0].ID].BidID)
}

func TestAssignBatchIsAtomic(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)

	items := fx.receive(t, principal, 3)
	bid1 := fx.newBid()
	bid2 := fx.newBid()

	_, err := fx.svc.Assign(context.Background(), bid1.ID, []uuid.UUID{items[0].ID, items[1].ID}, principal)
	require.NoError(t, err)

	// item2 is held by bid1, so the whole batch must fail and item3 stay free.
	_, err = fx.svc.Assign(context.Background(), bid2.ID, []uuid.UUID{items[1].ID, items[2].ID}, principal)
	require.ErrorIs(t, err, ErrAlreadyAllocated)
	require.Contains(t, err.Error(), items[1].ID.String())
	require.Nil(t, fx.store.items[items[2].ID].BidID)

	_, err = fx.svc.Release(context.Background(), bid1.ID, []uuid.UUID{items[1].ID}, principal)
	require.NoError(t, err)

	_, err = fx.svc.Assign(context.Background(), bid2.ID, []uuid.UUID{items[1].ID}, principal)
	require.NoError(t, err)
	require.Equal(t, bid2.ID, *fx.store.items[items[1].ID].BidID)
}

func TestReleaseRequiresOwnership(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)

	items := fx.receive(t, principal, 1)
	bid1 := fx.newBid()
	bid2 := fx.newBid()

	_, err := fx.svc.Assign(context.Background(), bid1.ID, []uuid.UUID{items[0].ID}, principal)
	require.NoError(t, err)

	_, err = fx.svc.Release(context.Background(), bid2.ID, []uuid.UUID{items[0].ID}, principal)
	require.ErrorIs(t, err, ErrNotAllocated)
	require.Equal(t, bid1.ID, *fx.store.items[items[0].ID].BidID)
}

func TestAssignMissingItem(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)
	bid := fx.newBid()

	_, err := fx.svc.Assign(context.Background(), bid.ID, []uuid.UUID{uuid.New()}, principal)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAssignForbidden(t *testing.T) {
	role := roleWith("tab_equipment")
	fx := newEquipmentFixture(role)

	_, err := fx.svc.Assign(context.Background(), uuid.New(), []uuid.UUID{uuid.New()}, principalFor(role))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestConcurrentAssignExactlyOneWins(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)

	items := fx.receive(t, principal, 1)
	bid1 := fx.newBid()
	bid2 := fx.newBid()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, bidID := range []uuid.UUID{bid1.ID, bid2.ID} {
		wg.Add(1)
		go func(i int, bidID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = fx.svc.Assign(context.Background(), bidID, []uuid.UUID{items[0].ID}, principal)
		}(i, bidID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrAlreadyAllocated)
		}
	}
	require.Equal(t, 1, succeeded)

	owner := fx.store.items[items[0].ID].BidID
	require.NotNil(t, owner)
	require.Contains(t, []uuid.UUID{bid1.ID, bid2.ID}, *owner)
}

func TestListAvailableFiltersByCatalog(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)

	other := &model.Equipment{ID: uuid.New(), Name: "Датчик уровня топлива", ProductCode: "DUT-E"}
	fx.store.catalogs[other.ID] = other
	fx.receive(t, principal, 2)

	_, err := fx.svc.Receive(context.Background(), ReceiveInput{
		CatalogID:   other.ID,
		SupplierID:  fx.supplier,
		WarehouseID: fx.warehouse,
		Units:       []model.IntakeUnit{{}},
		Principal:   principal,
	})
	require.NoError(t, err)

	available, err := fx.svc.ListAvailable(context.Background(), &other.ID, principal)
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.Equal(t, other.ID, available[0].EquipmentID)
}

func TestImportResolvesCatalogByCode(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)

	imei := "356307042441013"
	fx.parser.rows = []IntakeRow{
		{ProductCode: "FMB920", IMEI: &imei, PurchasePrice: 14500},
		{ProductCode: "FMB920", PurchasePrice: 14500},
	}

	items, err := fx.svc.Import(context.Background(), fx.supplier, fx.warehouse, bytes.NewReader(nil), principal)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.Equal(t, fx.catalog.ID, item.EquipmentID)
		require.Nil(t, item.BidID)
	}
}

func TestImportUnknownProductCode(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)

	fx.parser.rows = []IntakeRow{{ProductCode: "NO-SUCH", PurchasePrice: 100}}

	_, err := fx.svc.Import(context.Background(), fx.supplier, fx.warehouse, bytes.NewReader(nil), principal)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExportRegister(t *testing.T) {
	role := allCaps()
	fx := newEquipmentFixture(role)
	principal := principalFor(role)
	fx.receive(t, principal, 1)

	result, err := fx.svc.Export(context.Background(), principal)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	require.Contains(t, result.FileName, "equipment-register-")
}
