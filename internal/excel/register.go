package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

type RegisterGenerator struct{}

func NewRegisterGenerator() *RegisterGenerator {
	return &RegisterGenerator{}
}

// Generate renders the equipment register with allocation state, one unit
// per row.
func (g *RegisterGenerator) Generate(items []model.EquipmentItemDetail) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Оборудование"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Артикул",
		"Наименование",
		"IMEI",
		"Склад",
		"Поставщик",
		"Закупочная цена",
		"Статус",
		"Заявка",
		"Дата прихода",
	}
	for i, header := range headers {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cellName, header)
	}

	for i, item := range items {
		row := i + 2
		set(fmt.Sprintf("A%d", row), item.ProductCode)
		set(fmt.Sprintf("B%d", row), item.EquipmentName)
		set(fmt.Sprintf("C%d", row), formatString(item.IMEI))
		set(fmt.Sprintf("D%d", row), item.WarehouseName)
		set(fmt.Sprintf("E%d", row), item.SupplierName)
		set(fmt.Sprintf("F%d", row), item.PurchasePrice)
		if item.BidID != nil {
			set(fmt.Sprintf("G%d", row), "На заявке")
			set(fmt.Sprintf("H%d", row), item.BidID.String())
		} else {
			set(fmt.Sprintf("G%d", row), "Свободно")
		}
		set(fmt.Sprintf("I%d", row), formatDate(item.CreatedAt))
	}

	_ = file.SetColWidth(sheet, "A", "B", 28)
	_ = file.SetColWidth(sheet, "C", "C", 20)
	_ = file.SetColWidth(sheet, "D", "E", 24)
	_ = file.SetColWidth(sheet, "F", "F", 16)
	_ = file.SetColWidth(sheet, "G", "G", 14)
	_ = file.SetColWidth(sheet, "H", "H", 38)
	_ = file.SetColWidth(sheet, "I", "I", 18)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
