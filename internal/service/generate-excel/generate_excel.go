// Package generate_excel renders the order and revenue report as an xlsx
// workbook for download.
package generate_excel

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"printshop-backend/internal/service/insights"
	"printshop-backend/internal/storage"
)

type GenerateExcelStorage interface {
	OrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]storage.Order, error)
}

type GenerateExcelService struct {
	storage GenerateExcelStorage
}

func NewGenerateService(storage GenerateExcelStorage) *GenerateExcelService {
	return &GenerateExcelService{storage: storage}
}

// GenerateExcel builds a two-sheet workbook for the window: the order list
// and a revenue summary. Cancelled orders appear on the list but are left
// out of the revenue numbers, same as the financial report.
func (g *GenerateExcelService) GenerateExcel(ctx context.Context, w insights.Window) ([]byte, error) {
	orders, err := g.storage.OrdersCreatedBetween(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("fetch data: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const ordersSheet = "Orders"
	f.SetSheetName("Sheet1", ordersSheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})

	headers := []string{"Order ID", "Client", "Status", "Priority", "Received Through",
		"Due Date", "Items", "Revenue", "Created At"}
	for i, name := range headers {
		f.SetCellValue(ordersSheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(ordersSheet, "A1", cellName(len(headers), 1), headerStyle)

	byStatus := map[storage.OrderStatus]int{}
	var totalRevenue float64
	billedOrders := 0

	for rowIdx := range orders {
		o := &orders[rowIdx]
		rowNum := rowIdx + 2

		var revenue float64
		itemCount := 0
		for j := range o.Items {
			revenue += o.Items[j].PriceSnapshot * float64(o.Items[j].Quantity)
			itemCount += o.Items[j].Quantity
		}

		clientName := ""
		if o.CustomerName != nil {
			clientName = *o.CustomerName
		}
		dueDate := ""
		if o.DueDate != nil {
			dueDate = o.DueDate.Format("2006-01-02")
		}

		f.SetCellValue(ordersSheet, cellName(1, rowNum), o.ID)
		f.SetCellValue(ordersSheet, cellName(2, rowNum), clientName)
		f.SetCellValue(ordersSheet, cellName(3, rowNum), string(o.Status))
		f.SetCellValue(ordersSheet, cellName(4, rowNum), string(o.Priority))
		f.SetCellValue(ordersSheet, cellName(5, rowNum), string(o.ReceivedThrough))
		f.SetCellValue(ordersSheet, cellName(6, rowNum), dueDate)
		f.SetCellValue(ordersSheet, cellName(7, rowNum), itemCount)
		f.SetCellValue(ordersSheet, cellName(8, rowNum), revenue)
		f.SetCellValue(ordersSheet, cellName(9, rowNum), o.CreatedAt.Format("2006-01-02 15:04"))

		byStatus[o.Status]++
		if o.Status != storage.OrderCancelled {
			totalRevenue += revenue
			billedOrders++
		}
	}

	f.SetPanes(ordersSheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
	})
	f.SetColWidth(ordersSheet, "A", "I", 16)

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}

	f.SetCellValue(summarySheet, "A1", "Period")
	f.SetCellValue(summarySheet, "B1", w.Start.Format("2006-01-02")+" / "+w.End.Format("2006-01-02"))
	f.SetCellValue(summarySheet, "A2", "Total orders")
	f.SetCellValue(summarySheet, "B2", len(orders))
	f.SetCellValue(summarySheet, "A3", "Billed orders")
	f.SetCellValue(summarySheet, "B3", billedOrders)
	f.SetCellValue(summarySheet, "A4", "Total revenue")
	f.SetCellValue(summarySheet, "B4", totalRevenue)

	row := 6
	f.SetCellValue(summarySheet, cellName(1, row), "Orders by status")
	f.SetCellStyle(summarySheet, cellName(1, row), cellName(1, row), headerStyle)
	for _, status := range []storage.OrderStatus{
		storage.OrderToDo, storage.OrderReadyToBeTaken, storage.OrderInExecution,
		storage.OrderInPause, storage.OrderInProgress, storage.OrderDone, storage.OrderCancelled,
	} {
		if n, ok := byStatus[status]; ok {
			row++
			f.SetCellValue(summarySheet, cellName(1, row), string(status))
			f.SetCellValue(summarySheet, cellName(2, row), n)
		}
	}
	f.SetColWidth(summarySheet, "A", "B", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
