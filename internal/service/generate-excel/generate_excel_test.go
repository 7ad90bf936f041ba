package generate_excel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"printshop-backend/internal/service/insights"
	"printshop-backend/internal/storage"
)

type stubStorage struct {
	orders []storage.Order
}

func (s *stubStorage) OrdersCreatedBetween(context.Context, time.Time, time.Time) ([]storage.Order, error) {
	return s.orders, nil
}

func TestGenerateExcel(t *testing.T) {
	name := "Anna Smith"
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := NewGenerateService(&stubStorage{orders: []storage.Order{
		{
			ID:           1,
			Status:       storage.OrderDone,
			CustomerName: &name,
			Priority:     storage.PriorityHigh,
			Items: []storage.OrderItem{
				{ID: "it-1", PriceSnapshot: 10, Quantity: 3, ItemStatus: storage.ItemDone},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        2,
			Status:    storage.OrderCancelled,
			Priority:  storage.PriorityLow,
			Items:     []storage.OrderItem{{ID: "it-2", PriceSnapshot: 50, Quantity: 1, ItemStatus: storage.ItemCancelled}},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}})

	w := insights.Window{Start: now.Add(-30 * 24 * time.Hour), End: now}
	data, err := svc.GenerateExcel(context.Background(), w)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Orders", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Order ID", got)

	client, err := f.GetCellValue("Orders", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Anna Smith", client)

	// cancelled order on the list but not in the revenue total
	revenue, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "30", revenue)
}
