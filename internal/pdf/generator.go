package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the printable work order form for a bid.
func (g *Generator) Generate(order model.WorkOrder) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("cp1251")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, tr("НАРЯД-ЗАКАЗ"), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Заявка № %s от %s", shortID(order.Bid.ID.String()), formatDate(order.Bid.CreatedAt))), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Тип заявки: %s", order.BidType.Name)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, tr("Клиент"), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	clientLines := []string{
		order.Client.Name,
		fmt.Sprintf("Телефон: %s", safeValue(order.Client.Phone)),
		fmt.Sprintf("Адрес: %s", safeValue(order.Client.Address)),
	}
	for _, line := range clientLines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, tr("Работы"), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, tr(safeValue(order.Bid.Description)), "", "L", false)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Статус: %s", order.Bid.Status)), "", 1, "L", false, 0, "")
	if order.Bid.PlannedResolutionDate != nil {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Плановая дата: %s", formatDate(*order.Bid.PlannedResolutionDate))), "", 1, "L", false, 0, "")
	}
	if order.Bid.PlannedDurationMinutes > 0 {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Плановая длительность: %d мин.", order.Bid.PlannedDurationMinutes)), "", 1, "L", false, 0, "")
	}
	if order.Bid.Amount > 0 {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Сумма: %.2f тг.", order.Bid.Amount)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, tr("Оборудование"), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)

	headers := []string{"Артикул", "Наименование", "IMEI", "Склад"}
	colWidths := []float64{35, 75, 40, 30}
	drawTableRow(pdf, tr, headers, colWidths, true)

	if len(order.Items) == 0 {
		pdf.CellFormat(0, 6, tr("Оборудование не закреплено."), "", 1, "L", false, 0, "")
	}
	for _, item := range order.Items {
		row := []string{
			item.ProductCode,
			item.EquipmentName,
			safePointer(item.IMEI),
			item.WarehouseName,
		}
		drawTableRow(pdf, tr, row, colWidths, false)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, tr("Подписи"), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	signatureLine(pdf, tr, "Исполнитель")
	signatureLine(pdf, tr, "Клиент")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont("Arial", style, 10)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 8, tr(col), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureLine(pdf *gofpdf.Fpdf, tr func(string) string, label string) {
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s: ______________________ /________________/", label)), "", 1, "L", false, 0, "")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

func safePointer(value *string) string {
	if value == nil {
		return "—"
	}
	return safeValue(*value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02.01.2006")
}
