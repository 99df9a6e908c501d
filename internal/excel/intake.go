package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/fieldserv-crm/internal/service"
)

// Parser reads intake workbooks. Expected layout: header in row 1, then
// one unit per row: артикул (A), IMEI (B, optional), закупочная цена (C).
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) ParseIntake(r io.Reader) ([]service.IntakeRow, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var out []service.IntakeRow
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if isEmptyRow(row) {
			continue
		}

		parsed := service.IntakeRow{ProductCode: strings.TrimSpace(cell(row, 0))}

		if imei := strings.TrimSpace(cell(row, 1)); imei != "" {
			parsed.IMEI = &imei
		}

		rawPrice := strings.TrimSpace(cell(row, 2))
		if rawPrice != "" {
			price, err := strconv.ParseFloat(strings.ReplaceAll(rawPrice, ",", "."), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad purchase price %q", i+1, rawPrice)
			}
			parsed.PurchasePrice = price
		}

		out = append(out, parsed)
	}
	return out, nil
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return row[index]
}

func isEmptyRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
