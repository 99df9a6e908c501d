package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// errBatchRejected rolls the allocation transaction back when the
// conditional update did not cover the whole batch.
var errBatchRejected = errors.New("allocation batch rejected")

const itemColumns = `
	id,
	equipment_id,
	imei,
	purchase_price,
	supplier_id,
	warehouse_id,
	bid_id,
	created_at`

func (r *EquipmentRepository) GetCatalog(ctx context.Context, id uuid.UUID) (*model.Equipment, error) {
	var catalog model.Equipment
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, product_code, description, selling_price, created_at
		FROM equipment
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&catalog).Error
	if err != nil {
		return nil, err
	}
	if catalog.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &catalog, nil
}

func (r *EquipmentRepository) GetCatalogByCode(ctx context.Context, code string) (*model.Equipment, error) {
	var catalog model.Equipment
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, product_code, description, selling_price, created_at
		FROM equipment
		WHERE product_code = ?
		LIMIT 1
	`, code).Scan(&catalog).Error
	if err != nil {
		return nil, err
	}
	if catalog.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &catalog, nil
}

// AssignItems проверяет и захватывает единицы оборудования одним условным
// UPDATE; частичный захват откатывается целиком.
//
// The WHERE clause is the exclusivity check: two racing assigns for the
// same free item cannot both match it, so the affected-row count tells the
// loser apart without an engine-level lock.
func (r *EquipmentRepository) AssignItems(ctx context.Context, bidID uuid.UUID, itemIDs []uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	var conflicts, missing []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE equipment_items
			SET bid_id = ?
			WHERE id IN ? AND (bid_id IS NULL OR bid_id = ?)
		`, bidID, itemIDs, bidID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == int64(len(itemIDs)) {
			return nil
		}

		var err error
		conflicts, missing, err = diagnoseBatch(tx, itemIDs, func(owner *uuid.UUID) bool {
			return owner != nil && *owner != bidID
		})
		if err != nil {
			return err
		}
		return errBatchRejected
	})
	if errors.Is(err, errBatchRejected) {
		return rejectionResult(conflicts, missing)
	}
	if err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

// ReleaseItems is the symmetric conditional clear: only items held by
// exactly this bid are released, all or nothing.
func (r *EquipmentRepository) ReleaseItems(ctx context.Context, bidID uuid.UUID, itemIDs []uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	var conflicts, missing []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE equipment_items
			SET bid_id = NULL
			WHERE id IN ? AND bid_id = ?
		`, itemIDs, bidID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == int64(len(itemIDs)) {
			return nil
		}

		var err error
		conflicts, missing, err = diagnoseBatch(tx, itemIDs, func(owner *uuid.UUID) bool {
			return owner == nil || *owner != bidID
		})
		if err != nil {
			return err
		}
		return errBatchRejected
	})
	if errors.Is(err, errBatchRejected) {
		return rejectionResult(conflicts, missing)
	}
	if err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

// rejectionResult folds the diagnosis of a rolled-back batch into the
// caller-facing tuple. An empty diagnosis means the contended rows changed
// again between the update and the re-read; nothing was committed, so it
// must not come back looking like success.
func rejectionResult(conflicts, missing []uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	if len(conflicts) == 0 && len(missing) == 0 {
		return nil, nil, fmt.Errorf("%w: batch changed during diagnosis", errBatchRejected)
	}
	return conflicts, missing, nil
}

// diagnoseBatch re-reads the batch inside the failing transaction and
// splits the ids that blocked it into conflicting and missing.
func diagnoseBatch(tx *gorm.DB, itemIDs []uuid.UUID, conflicting func(owner *uuid.UUID) bool) ([]uuid.UUID, []uuid.UUID, error) {
	var rows []struct {
		ID    uuid.UUID
		BidID *uuid.UUID
	}
	if err := tx.Raw(`
		SELECT id, bid_id FROM equipment_items WHERE id IN ?
	`, itemIDs).Scan(&rows).Error; err != nil {
		return nil, nil, err
	}

	found := make(map[uuid.UUID]*uuid.UUID, len(rows))
	for _, row := range rows {
		found[row.ID] = row.BidID
	}

	var conflicts, missing []uuid.UUID
	for _, id := range itemIDs {
		owner, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if conflicting(owner) {
			conflicts = append(conflicts, id)
		}
	}
	return conflicts, missing, nil
}

func (r *EquipmentRepository) ListAvailableItems(ctx context.Context, catalogID *uuid.UUID) ([]model.EquipmentItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM equipment_items
		WHERE bid_id IS NULL`
	args := []interface{}{}
	if catalogID != nil {
		query += ` AND equipment_id = ?`
		args = append(args, *catalogID)
	}
	query += ` ORDER BY created_at, id`

	var items []model.EquipmentItem
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *EquipmentRepository) ListItemsByBid(ctx context.Context, bidID uuid.UUID) ([]model.EquipmentItemDetail, error) {
	var items []model.EquipmentItemDetail
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			i.id,
			i.equipment_id,
			i.imei,
			i.purchase_price,
			i.supplier_id,
			i.warehouse_id,
			i.bid_id,
			i.created_at,
			e.name AS equipment_name,
			e.product_code,
			w.name AS warehouse_name,
			s.name AS supplier_name
		FROM equipment_items i
		JOIN equipment e ON e.id = i.equipment_id
		JOIN warehouses w ON w.id = i.warehouse_id
		JOIN suppliers s ON s.id = i.supplier_id
		WHERE i.bid_id = ?
		ORDER BY i.created_at, i.id
	`, bidID).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *EquipmentRepository) ListItemDetails(ctx context.Context) ([]model.EquipmentItemDetail, error) {
	var items []model.EquipmentItemDetail
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			i.id,
			i.equipment_id,
			i.imei,
			i.purchase_price,
			i.supplier_id,
			i.warehouse_id,
			i.bid_id,
			i.created_at,
			e.name AS equipment_name,
			e.product_code,
			w.name AS warehouse_name,
			s.name AS supplier_name
		FROM equipment_items i
		JOIN equipment e ON e.id = i.equipment_id
		JOIN warehouses w ON w.id = i.warehouse_id
		JOIN suppliers s ON s.id = i.supplier_id
		ORDER BY e.product_code, i.created_at, i.id
	`).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *EquipmentRepository) CreateItems(ctx context.Context, items []model.EquipmentItem) ([]model.EquipmentItem, error) {
	saved := make([]model.EquipmentItem, 0, len(items))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var row model.EquipmentItem
			err := tx.Raw(`
				INSERT INTO equipment_items (
					equipment_id,
					imei,
					purchase_price,
					supplier_id,
					warehouse_id
				) VALUES (?, ?, ?, ?, ?)
				RETURNING `+itemColumns+`
			`,
				item.EquipmentID,
				item.IMEI,
				item.PurchasePrice,
				item.SupplierID,
				item.WarehouseID,
			).Scan(&row).Error
			if err != nil {
				return err
			}
			saved = append(saved, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *EquipmentRepository) SupplierExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = ?)
	`, id).Scan(&exists).Error
	return exists, err
}

func (r *EquipmentRepository) WarehouseExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS (SELECT 1 FROM warehouses WHERE id = ?)
	`, id).Scan(&exists).Error
	return exists, err
}
