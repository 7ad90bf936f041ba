package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"printshop-backend/internal/storage"
)

type DashboardOrderStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Cancelled  int `json:"cancelled"`
	Overdue    int `json:"overdue"`
}

type DashboardRevenueStats struct {
	TotalRevenue float64 `json:"total_revenue"`
	TotalItems   int     `json:"total_items"`
}

type DashboardEmployeeStats struct {
	ActiveEmployees  int `json:"active_employees"`
	TotalAssignments int `json:"total_assignments"`
}

type DashboardSummary struct {
	Orders    DashboardOrderStats    `json:"orders"`
	Revenue   DashboardRevenueStats  `json:"revenue"`
	Employees DashboardEmployeeStats `json:"employees"`
}

type OrderBrief struct {
	OrderID      int64               `json:"order_id"`
	CustomerName string              `json:"customer_name"`
	Status       storage.OrderStatus `json:"status"`
	Priority     storage.Priority    `json:"priority"`
	DueDate      *time.Time          `json:"due_date,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

type DashboardInsights struct {
	Period           Window           `json:"period"`
	Summary          DashboardSummary `json:"summary"`
	RecentOrders     []OrderBrief     `json:"recent_orders"`
	UpcomingDueDates []OrderBrief     `json:"upcoming_due_dates"`
}

const (
	recentOrdersLimit = 5
	upcomingDueLimit  = 10
	upcomingDueSpan   = 7 * 24 * time.Hour
)

// DashboardInsights composes the abbreviated order/revenue/employee numbers
// with the most recent orders and the orders due soon.
func (s *Service) DashboardInsights(ctx context.Context, w Window) (*DashboardInsights, error) {
	const op = "insights.DashboardInsights"

	now := s.now()
	var (
		orders []storage.Order
		due    []storage.Order
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.storage.OrdersCreatedBetween(gCtx, w.Start, w.End)
		if err != nil {
			return fmt.Errorf("orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		due, err = s.storage.OrdersDueBetween(gCtx, now, now.Add(upcomingDueSpan))
		if err != nil {
			return fmt.Errorf("due orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var summary DashboardSummary
	assignees := map[int64]bool{}

	for i := range orders {
		o := &orders[i]
		summary.Orders.Total++
		switch o.Status {
		case storage.OrderDone:
			summary.Orders.Completed++
		case storage.OrderInProgress:
			summary.Orders.InProgress++
		case storage.OrderCancelled:
			summary.Orders.Cancelled++
		}
		if o.DueDate != nil && o.DueDate.Before(now) && o.Status != storage.OrderDone {
			summary.Orders.Overdue++
		}

		for j := range o.Items {
			it := &o.Items[j]
			if o.Status != storage.OrderCancelled {
				summary.Revenue.TotalRevenue += it.PriceSnapshot * float64(it.Quantity)
				summary.Revenue.TotalItems += it.Quantity
			}
			for k := range it.Assignments {
				summary.Employees.TotalAssignments++
				if id := it.Assignments[k].AssignedTo; id != nil {
					assignees[*id] = true
				}
			}
		}
	}
	summary.Employees.ActiveEmployees = len(assignees)

	recent := make([]storage.Order, len(orders))
	copy(recent, orders)
	sort.Slice(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentOrdersLimit {
		recent = recent[:recentOrdersLimit]
	}

	var upcoming []storage.Order
	for i := range due {
		if st := due[i].Status; st != storage.OrderDone && st != storage.OrderCancelled {
			upcoming = append(upcoming, due[i])
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].DueDate.Before(*upcoming[j].DueDate) })
	if len(upcoming) > upcomingDueLimit {
		upcoming = upcoming[:upcomingDueLimit]
	}

	return &DashboardInsights{
		Period:           w,
		Summary:          summary,
		RecentOrders:     briefs(recent),
		UpcomingDueDates: briefs(upcoming),
	}, nil
}

func briefs(orders []storage.Order) []OrderBrief {
	out := make([]OrderBrief, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		out = append(out, OrderBrief{
			OrderID:      o.ID,
			CustomerName: clientName(o),
			Status:       o.Status,
			Priority:     o.Priority,
			DueDate:      o.DueDate,
			CreatedAt:    o.CreatedAt,
		})
	}
	return out
}
