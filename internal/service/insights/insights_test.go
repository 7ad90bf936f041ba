package insights

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-backend/internal/storage"
)

type stubStorage struct {
	orders    []storage.Order
	due       []storage.Order
	employees []storage.Employee
	products  []storage.Product
	employeeN int64
	clientN   int64
	productN  int64
}

func (s *stubStorage) OrdersCreatedBetween(_ context.Context, start, end time.Time) ([]storage.Order, error) {
	var out []storage.Order
	for _, o := range s.orders {
		if !o.CreatedAt.Before(start) && !o.CreatedAt.After(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubStorage) OrdersDueBetween(_ context.Context, start, end time.Time) ([]storage.Order, error) {
	var out []storage.Order
	for _, o := range s.due {
		if o.DueDate != nil && !o.DueDate.Before(start) && !o.DueDate.After(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubStorage) ListEmployees(context.Context) ([]storage.Employee, error) {
	return s.employees, nil
}

func (s *stubStorage) ListProducts(context.Context) ([]storage.Product, error) {
	return s.products, nil
}

func (s *stubStorage) CountEmployees(context.Context) (int64, error) { return s.employeeN, nil }
func (s *stubStorage) CountClients(context.Context) (int64, error)   { return s.clientN, nil }
func (s *stubStorage) CountProducts(context.Context) (int64, error)  { return s.productN, nil }

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(st *stubStorage) *Service {
	s := NewService(st)
	s.now = func() time.Time { return testNow }
	return s
}

func i64(v int64) *int64        { return &v }
func str(v string) *string      { return &v }
func ts(t time.Time) *time.Time { return &t }

func TestResolveWindow(t *testing.T) {
	now := testNow

	t.Run("explicit dates", func(t *testing.T) {
		w, err := ResolveWindow("2025-01-01T00:00:00Z", "2025-02-01T00:00:00Z", "", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
		assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), w.End)
	})

	t.Run("end not after start", func(t *testing.T) {
		_, err := ResolveWindow("2025-02-01T00:00:00Z", "2025-02-01T00:00:00Z", "", now)
		assert.Error(t, err)
	})

	t.Run("only one date", func(t *testing.T) {
		_, err := ResolveWindow("2025-01-01T00:00:00Z", "", "", now)
		assert.Error(t, err)
	})

	t.Run("bad date format", func(t *testing.T) {
		_, err := ResolveWindow("2025-01-01", "2025-02-01T00:00:00Z", "", now)
		assert.Error(t, err)
	})

	t.Run("default period is 30 days", func(t *testing.T) {
		w, err := ResolveWindow("", "", "", now)
		require.NoError(t, err)
		assert.Equal(t, now, w.End)
		assert.Equal(t, now.Add(-30*24*time.Hour), w.Start)
	})

	t.Run("named period", func(t *testing.T) {
		w, err := ResolveWindow("", "", "7d", now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(-7*24*time.Hour), w.Start)
	})

	t.Run("unknown period", func(t *testing.T) {
		_, err := ResolveWindow("", "", "14d", now)
		assert.Error(t, err)
	})

	t.Run("explicit dates win over period", func(t *testing.T) {
		w, err := ResolveWindow("2025-01-01T00:00:00Z", "2025-02-01T00:00:00Z", "7d", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
	})
}

func TestFormatDuration(t *testing.T) {
	assert.Nil(t, FormatDuration(0))
	assert.Nil(t, FormatDuration(-500))
	assert.Nil(t, FormatDuration(math.NaN()))

	d := FormatDuration(45 * 1000)
	require.NotNil(t, d)
	assert.Equal(t, "45s", d.Formatted)

	d = FormatDuration(150 * 1000)
	require.NotNil(t, d)
	assert.Equal(t, "2m 30s", d.Formatted)
	assert.Equal(t, int64(2), d.Minutes)

	d = FormatDuration(3 * 3600 * 1000)
	require.NotNil(t, d)
	assert.Equal(t, "3h 0m", d.Formatted)

	d = FormatDuration(50 * 3600 * 1000)
	require.NotNil(t, d)
	assert.Equal(t, "2d 2h", d.Formatted)
	assert.Equal(t, int64(2), d.Days)
	assert.Equal(t, int64(50), d.Hours)
}

func testOrders() []storage.Order {
	day := 24 * time.Hour

	// completed order, two days from creation to last update
	done := storage.Order{
		ID:           1,
		Status:       storage.OrderDone,
		Customer:     10,
		CustomerName: str("Anna Smith"),
		Priority:     storage.PriorityHigh,
		CreatedAt:    testNow.Add(-10 * day),
		UpdatedAt:    testNow.Add(-8 * day),
		Items: []storage.OrderItem{
			{
				ID:            "it-1",
				Product:       i64(100),
				PriceSnapshot: 10,
				Quantity:      3,
				ItemStatus:    storage.ItemDone,
				Assignments: []storage.Assignment{
					{
						Stage:          storage.ItemPrinting,
						AssignedTo:     i64(7),
						AssignedToName: str("Bob Ray"),
						AssignedAt:     testNow.Add(-10 * day),
						StartedAt:      ts(testNow.Add(-10 * day)),
						CompletedAt:    ts(testNow.Add(-9 * day)),
						TimeSpent:      i64(day.Milliseconds()),
						IsActive:       false,
					},
				},
			},
		},
	}

	// in progress and overdue, one active assignment started an hour ago
	late := storage.Order{
		ID:           2,
		Status:       storage.OrderInProgress,
		Customer:     11,
		CustomerName: str("Carl Young"),
		Priority:     storage.PriorityNormal,
		DueDate:      ts(testNow.Add(-1 * day)),
		CreatedAt:    testNow.Add(-5 * day),
		UpdatedAt:    testNow.Add(-2 * time.Hour),
		Items: []storage.OrderItem{
			{
				ID:            "it-2",
				Product:       i64(101),
				PriceSnapshot: 20,
				Quantity:      1,
				ItemStatus:    storage.ItemPrinting,
				Assignments: []storage.Assignment{
					{
						Stage:          storage.ItemPrinting,
						AssignedTo:     i64(7),
						AssignedToName: str("Bob Ray"),
						AssignedAt:     testNow.Add(-2 * time.Hour),
						StartedAt:      ts(testNow.Add(-1 * time.Hour)),
						IsActive:       true,
					},
				},
			},
		},
	}

	// cancelled on the day it was created
	cancelled := storage.Order{
		ID:           3,
		Status:       storage.OrderCancelled,
		Customer:     10,
		CustomerName: str("Anna Smith"),
		Priority:     storage.PriorityLow,
		CreatedAt:    testNow.Add(-3 * time.Hour),
		UpdatedAt:    testNow.Add(-2 * time.Hour),
		Items: []storage.OrderItem{
			{ID: "it-3", Product: i64(100), PriceSnapshot: 50, Quantity: 2, ItemStatus: storage.ItemCancelled},
		},
	}

	return []storage.Order{done, late, cancelled}
}

func TestOrderInsights(t *testing.T) {
	st := &stubStorage{orders: testOrders()}
	svc := newTestService(st)
	w := Window{Start: testNow.Add(-30 * 24 * time.Hour), End: testNow}

	got, err := svc.OrderInsights(context.Background(), w)
	require.NoError(t, err)

	assert.Len(t, got.OrdersByStatus, 3)
	statuses := map[storage.OrderStatus]int{}
	for _, sc := range got.OrdersByStatus {
		statuses[sc.Status] = sc.Count
	}
	assert.Equal(t, 1, statuses[storage.OrderDone])
	assert.Equal(t, 1, statuses[storage.OrderInProgress])
	assert.Equal(t, 1, statuses[storage.OrderCancelled])

	require.Len(t, got.OverdueOrders, 1)
	assert.Equal(t, int64(2), got.OverdueOrders[0].OrderID)
	assert.Equal(t, "Carl Young", got.OverdueOrders[0].CustomerName)

	day := float64((24 * time.Hour).Milliseconds())
	assert.Equal(t, 1, got.AverageCompletionTime.TotalCompleted)
	assert.InDelta(t, 2*day, got.AverageCompletionTime.AvgCompletionTime, 1)

	require.Len(t, got.StageBottlenecks, 1)
	b := got.StageBottlenecks[0]
	assert.Equal(t, storage.ItemPrinting, b.Stage)
	assert.Equal(t, 1, b.ActiveAssignments)
	assert.Equal(t, 1, b.CompletedAssignments)
	assert.InDelta(t, float64(time.Hour.Milliseconds()), b.AvgTimeInStageActive, 1)
	assert.InDelta(t, day, b.AvgTimeInStageCompleted, 1)

	require.Len(t, got.AssignmentOverview, 1)
	ov := got.AssignmentOverview[0]
	assert.Equal(t, storage.ItemPrinting, ov.Stage)
	require.Len(t, ov.Assignments, 1)
	assert.Equal(t, int64(7), ov.Assignments[0].EmployeeID)
	assert.Equal(t, 2, ov.Assignments[0].ItemCount)
	assert.Equal(t, 2, ov.TotalItems)
}

func TestOrderInsightsRespectsWindow(t *testing.T) {
	st := &stubStorage{orders: testOrders()}
	svc := newTestService(st)

	// only the order cancelled three hours ago falls into the last day
	w := Window{Start: testNow.Add(-24 * time.Hour), End: testNow}
	got, err := svc.OrderInsights(context.Background(), w)
	require.NoError(t, err)

	require.Len(t, got.OrdersByStatus, 1)
	assert.Equal(t, storage.OrderCancelled, got.OrdersByStatus[0].Status)
}

func TestClientRevenueIgnoresQuantity(t *testing.T) {
	st := &stubStorage{orders: testOrders()}
	svc := newTestService(st)
	w := Window{Start: testNow.Add(-30 * 24 * time.Hour), End: testNow}

	clients, err := svc.ClientInsights(context.Background(), w)
	require.NoError(t, err)
	fin, err := svc.FinancialInsights(context.Background(), w)
	require.NoError(t, err)

	// Client report sums the snapshots as-is, the financial report multiplies
	// by quantity and drops cancelled orders.
	var anna *TopClient
	for i := range clients.TopClientsByOrders {
		if clients.TopClientsByOrders[i].ClientID == 10 {
			anna = &clients.TopClientsByOrders[i]
		}
	}
	require.NotNil(t, anna)
	assert.Equal(t, 2, anna.OrderCount)
	assert.InDelta(t, 60.0, anna.TotalRevenue, 0.001) // 10 + 50, quantities ignored

	assert.InDelta(t, 50.0, fin.TotalRevenue.TotalRevenue, 0.001) // 10*3 + 20*1
	assert.Equal(t, 2, fin.TotalRevenue.OrderCount)
	assert.Equal(t, 4, fin.TotalRevenue.TotalItems)
}

func TestClientInsightsAtRisk(t *testing.T) {
	st := &stubStorage{orders: testOrders()}
	svc := newTestService(st)
	w := Window{Start: testNow.Add(-30 * 24 * time.Hour), End: testNow}

	got, err := svc.ClientInsights(context.Background(), w)
	require.NoError(t, err)

	// Anna has the cancelled order, Carl the overdue one.
	require.Len(t, got.AtRiskClients, 2)
	byID := map[int64]AtRiskClient{}
	for _, c := range got.AtRiskClients {
		byID[c.ClientID] = c
	}
	assert.Equal(t, 1, byID[10].CancelledOrders)
	assert.Equal(t, 0, byID[10].OverdueOrders)
	assert.Equal(t, 1, byID[10].TotalProblematicOrders)
	assert.Equal(t, 1, byID[11].OverdueOrders)
	assert.Equal(t, 1, byID[11].TotalProblematicOrders)
}

func TestProductInsights(t *testing.T) {
	st := &stubStorage{
		orders: testOrders(),
		products: []storage.Product{
			{ID: 100, Type: "sticker", ProductName: "Vinyl sticker", Price: 10},
			{ID: 101, Type: "banner", ProductName: "Roll-up banner", Price: 20},
			{ID: 102, Type: "flyer", ProductName: "A5 flyer", Price: 5},
		},
	}
	svc := newTestService(st)
	w := Window{Start: testNow.Add(-30 * 24 * time.Hour), End: testNow}

	got, err := svc.ProductInsights(context.Background(), w)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Summary.TotalProducts)

	// sticker and banner occur at most twice each, so both are rarely
	// ordered; the flyer never shows up in the aggregation at all
	assert.Len(t, got.RarelyOrderedProducts, 2)
	for _, p := range got.RarelyOrderedProducts {
		assert.NotEqual(t, int64(102), p.ID)
	}

	byName := map[string]ProductTypeStat{}
	for _, s := range got.ProductTypeStats {
		byName[s.ProductName] = s
	}
	sticker := byName["Vinyl sticker"]
	assert.Equal(t, 5, sticker.OrderCount) // 3 + 2, quantity-weighted
	assert.Equal(t, 2, sticker.UniqueOrderCount)
	assert.InDelta(t, 130.0, sticker.TotalRevenue, 0.001) // 10*3 + 50*2
}

func TestEmployeeInsights(t *testing.T) {
	st := &stubStorage{
		orders: testOrders(),
		employees: []storage.Employee{
			{ID: 7, FirstName: "Bob", LastName: "Ray", Position: "employee"},
			{ID: 8, FirstName: "Dana", LastName: "Lee", Position: "admin"},
		},
	}
	svc := newTestService(st)
	w := Window{Start: testNow.Add(-30 * 24 * time.Hour), End: testNow}

	got, err := svc.EmployeeInsights(context.Background(), w)
	require.NoError(t, err)

	require.Len(t, got.WorkloadDistribution, 1)
	wl := got.WorkloadDistribution[0]
	assert.Equal(t, int64(7), wl.EmployeeID)
	assert.Equal(t, "employee", wl.Position)
	assert.Equal(t, 2, wl.TotalAssignments)
	assert.Equal(t, 1, wl.ActiveAssignments)
	assert.Equal(t, 1, wl.CompletedAssignments)
	assert.InDelta(t, 50.0, wl.CompletionRate, 0.001)
	assert.Equal(t, (24 * time.Hour).Milliseconds(), wl.TotalTimeSpent)
	assert.Equal(t, time.Hour.Milliseconds(), wl.CurrentWorkTime)

	assert.Equal(t, 2, got.Summary.TotalEmployees)
	assert.Equal(t, 1, got.Summary.ActiveEmployees)
	assert.Equal(t, 1, got.Summary.InactiveEmployees)

	require.Len(t, got.TurnaroundTime, 1)
	tt := got.TurnaroundTime[0]
	require.Len(t, tt.StagePerformance, 1)
	// turnaround runs assigned_at to completed_at, one full day here
	assert.Equal(t, (24 * time.Hour).Milliseconds(), tt.StagePerformance[0].TotalCompletionTime)
	assert.Equal(t, 1, tt.TotalCompleted)
	assert.Equal(t, 1, tt.TotalActive)
}

func TestAuditInsights(t *testing.T) {
	orders := testOrders()
	orders[0].Items[0].DisabledStages = []storage.ItemStatus{storage.ItemCutting, storage.ItemFinishing}
	orders[1].Items[0].DisabledStages = []storage.ItemStatus{storage.ItemCutting}

	st := &stubStorage{orders: orders, employeeN: 4, clientN: 12, productN: 30}
	svc := newTestService(st)
	w := Window{Start: testNow.Add(-30 * 24 * time.Hour), End: testNow}

	got, err := svc.AuditInsights(context.Background(), w)
	require.NoError(t, err)

	require.Len(t, got.DisabledStageStats, 2)
	assert.Equal(t, storage.ItemCutting, got.DisabledStageStats[0].Stage)
	assert.Equal(t, 2, got.DisabledStageStats[0].Count)

	// order 3 was cancelled within a day of creation, order 2 was updated in
	// the last 24 hours; both are suspicious, order 3 sorts first
	require.Len(t, got.SuspiciousActivity, 2)
	ids := []int64{got.SuspiciousActivity[0].OrderID, got.SuspiciousActivity[1].OrderID}
	assert.Contains(t, ids, int64(2))
	assert.Contains(t, ids, int64(3))

	assert.Equal(t, int64(30), got.SettingsHealth.TotalProducts)
	assert.Equal(t, int64(4), got.SettingsHealth.ActiveEmployees)
	assert.Equal(t, int64(12), got.SettingsHealth.TotalClients)
}

func TestDashboardInsights(t *testing.T) {
	day := 24 * time.Hour
	due := []storage.Order{
		{ID: 20, Status: storage.OrderInProgress, DueDate: ts(testNow.Add(2 * day)), CustomerName: str("Carl Young")},
		{ID: 21, Status: storage.OrderDone, DueDate: ts(testNow.Add(3 * day))},
		{ID: 22, Status: storage.OrderToDo, DueDate: ts(testNow.Add(5 * day))},
	}
	st := &stubStorage{orders: testOrders(), due: due}
	svc := newTestService(st)
	w := Window{Start: testNow.Add(-30 * day), End: testNow}

	got, err := svc.DashboardInsights(context.Background(), w)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Summary.Orders.Total)
	assert.Equal(t, 1, got.Summary.Orders.Completed)
	assert.Equal(t, 1, got.Summary.Orders.InProgress)
	assert.Equal(t, 1, got.Summary.Orders.Cancelled)
	assert.Equal(t, 1, got.Summary.Orders.Overdue)

	// cancelled order contributes nothing to revenue
	assert.InDelta(t, 50.0, got.Summary.Revenue.TotalRevenue, 0.001)
	assert.Equal(t, 4, got.Summary.Revenue.TotalItems)

	assert.Equal(t, 1, got.Summary.Employees.ActiveEmployees)
	assert.Equal(t, 2, got.Summary.Employees.TotalAssignments)

	require.Len(t, got.RecentOrders, 3)
	assert.Equal(t, int64(3), got.RecentOrders[0].OrderID)

	// completed order dropped from the due list
	require.Len(t, got.UpcomingDueDates, 2)
	assert.Equal(t, int64(20), got.UpcomingDueDates[0].OrderID)
	assert.Equal(t, int64(22), got.UpcomingDueDates[1].OrderID)
}
