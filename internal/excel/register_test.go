package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

func TestRegisterGenerate(t *testing.T) {
	imei := "356307045612901"
	bidID := uuid.New()
	items := []model.EquipmentItemDetail{
		{
			EquipmentItem: model.EquipmentItem{
				ID:            uuid.New(),
				IMEI:          &imei,
				PurchasePrice: 18500.50,
				BidID:         &bidID,
				CreatedAt:     time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
			},
			EquipmentName: "GPS-трекер FMB920",
			ProductCode:   "FMB920",
			WarehouseName: "Основной склад",
			SupplierName:  "ТОО Телематика",
		},
		{
			EquipmentItem: model.EquipmentItem{
				ID:            uuid.New(),
				PurchasePrice: 1200,
			},
			EquipmentName: "SIM-карта Kcell",
			ProductCode:   "SIM-KCELL",
			WarehouseName: "Основной склад",
			SupplierName:  "ТОО Телематика",
		},
	}

	data, err := NewRegisterGenerator().Generate(items)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("Оборудование")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, "Артикул", rows[0][0])

	require.Equal(t, "FMB920", rows[1][0])
	require.Equal(t, imei, rows[1][2])
	require.Equal(t, "На заявке", rows[1][6])
	require.Equal(t, bidID.String(), rows[1][7])
	require.Equal(t, "2025-03-14", rows[1][8])

	require.Equal(t, "SIM-KCELL", rows[2][0])
	require.Equal(t, "Свободно", rows[2][6])
}
