package model

import (
	"time"

	"github.com/google/uuid"
)

// Equipment is a catalog entry (the SKU); discrete units are EquipmentItem.
type Equipment struct {
	ID           uuid.UUID
	Name         string
	ProductCode  string
	Description  string
	SellingPrice float64
	CreatedAt    time.Time
}

// EquipmentItem is a serialized unit. BidID is non-null exactly while the
// unit is checked out to that one bid; null means available.
type EquipmentItem struct {
	ID            uuid.UUID
	EquipmentID   uuid.UUID
	IMEI          *string
	PurchasePrice float64
	SupplierID    uuid.UUID
	WarehouseID   uuid.UUID
	BidID         *uuid.UUID
	CreatedAt     time.Time
}

// EquipmentItemDetail is an item joined with its catalog entry, used by
// the register export and the work-order printout.
type EquipmentItemDetail struct {
	EquipmentItem
	EquipmentName string
	ProductCode   string
	WarehouseName string
	SupplierName  string
}

// IntakeUnit is one unit of a bulk intake batch.
type IntakeUnit struct {
	IMEI          *string
	PurchasePrice float64
}
