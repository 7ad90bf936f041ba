package insights

import (
	"context"
	"fmt"
	"sort"

	"printshop-backend/internal/storage"
)

type FinancialTotals struct {
	TotalRevenue float64 `json:"total_revenue"`
	OrderCount   int     `json:"order_count"`
	TotalItems   int     `json:"total_items"`
}

type ClientRevenue struct {
	ClientID   int64   `json:"client_id"`
	ClientName string  `json:"client_name"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"order_count"`
}

type PriorityRevenue struct {
	Priority   storage.Priority `json:"priority"`
	Revenue    float64          `json:"revenue"`
	OrderCount int              `json:"order_count"`
}

type WeekRevenue struct {
	Year       int     `json:"year"`
	Week       int     `json:"week"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"order_count"`
}

type FinancialInsights struct {
	Period            Window            `json:"period"`
	TotalRevenue      FinancialTotals   `json:"total_revenue"`
	AvgOrderValue     float64           `json:"avg_order_value"`
	RevenueByClient   []ClientRevenue   `json:"revenue_by_client"`
	RevenueByPriority []PriorityRevenue `json:"revenue_by_priority"`
	RevenueTrend      []WeekRevenue     `json:"revenue_trend"`
}

const revenueByClientLimit = 10

// FinancialInsights computes quantity-weighted revenue over non-cancelled
// orders in the window, broken down by client, priority and ISO week.
func (s *Service) FinancialInsights(ctx context.Context, w Window) (*FinancialInsights, error) {
	const op = "insights.FinancialInsights"

	orders, err := s.storage.OrdersCreatedBetween(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	totals := FinancialTotals{}

	type clientAcc struct {
		name    string
		revenue float64
		orders  int
	}
	byClient := map[int64]*clientAcc{}

	type prioAcc struct {
		revenue float64
		orders  int
	}
	byPriority := map[storage.Priority]*prioAcc{}

	type weekKey struct {
		year, week int
	}
	byWeek := map[weekKey]*prioAcc{}

	for i := range orders {
		o := &orders[i]
		if o.Status == storage.OrderCancelled {
			continue
		}

		var orderRevenue float64
		for j := range o.Items {
			it := &o.Items[j]
			orderRevenue += it.PriceSnapshot * float64(it.Quantity)
			totals.TotalItems += it.Quantity
		}
		totals.TotalRevenue += orderRevenue
		totals.OrderCount++

		ca := byClient[o.Customer]
		if ca == nil {
			ca = &clientAcc{name: clientName(o)}
			byClient[o.Customer] = ca
		}
		ca.revenue += orderRevenue
		ca.orders++

		pa := byPriority[o.Priority]
		if pa == nil {
			pa = &prioAcc{}
			byPriority[o.Priority] = pa
		}
		pa.revenue += orderRevenue
		pa.orders++

		year, week := o.CreatedAt.ISOWeek()
		wa := byWeek[weekKey{year: year, week: week}]
		if wa == nil {
			wa = &prioAcc{}
			byWeek[weekKey{year: year, week: week}] = wa
		}
		wa.revenue += orderRevenue
		wa.orders++
	}

	revenueByClient := make([]ClientRevenue, 0, len(byClient))
	for id, acc := range byClient {
		revenueByClient = append(revenueByClient, ClientRevenue{
			ClientID:   id,
			ClientName: acc.name,
			Revenue:    acc.revenue,
			OrderCount: acc.orders,
		})
	}
	sort.Slice(revenueByClient, func(i, j int) bool {
		if revenueByClient[i].Revenue != revenueByClient[j].Revenue {
			return revenueByClient[i].Revenue > revenueByClient[j].Revenue
		}
		return revenueByClient[i].ClientID < revenueByClient[j].ClientID
	})
	if len(revenueByClient) > revenueByClientLimit {
		revenueByClient = revenueByClient[:revenueByClientLimit]
	}

	revenueByPriority := make([]PriorityRevenue, 0, len(byPriority))
	for p, acc := range byPriority {
		revenueByPriority = append(revenueByPriority, PriorityRevenue{
			Priority:   p,
			Revenue:    acc.revenue,
			OrderCount: acc.orders,
		})
	}
	sort.Slice(revenueByPriority, func(i, j int) bool {
		if revenueByPriority[i].Revenue != revenueByPriority[j].Revenue {
			return revenueByPriority[i].Revenue > revenueByPriority[j].Revenue
		}
		return revenueByPriority[i].Priority < revenueByPriority[j].Priority
	})

	trend := make([]WeekRevenue, 0, len(byWeek))
	for key, acc := range byWeek {
		trend = append(trend, WeekRevenue{
			Year:       key.year,
			Week:       key.week,
			Revenue:    acc.revenue,
			OrderCount: acc.orders,
		})
	}
	sort.Slice(trend, func(i, j int) bool {
		if trend[i].Year != trend[j].Year {
			return trend[i].Year < trend[j].Year
		}
		return trend[i].Week < trend[j].Week
	})

	return &FinancialInsights{
		Period:            w,
		TotalRevenue:      totals,
		AvgOrderValue:     avg(totals.TotalRevenue, totals.OrderCount),
		RevenueByClient:   revenueByClient,
		RevenueByPriority: revenueByPriority,
		RevenueTrend:      trend,
	}, nil
}
