package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"printshop-backend/internal/storage"
)

type TopClient struct {
	ClientID   int64  `json:"client_id"`
	ClientName string `json:"client_name"`
	OrderCount int    `json:"order_count"`
	// Sum of item price snapshots. Deliberately NOT quantity-weighted:
	// this mirrors the long-standing behavior of the client report and
	// differs from the financial report on purpose.
	TotalRevenue  float64   `json:"total_revenue"`
	AvgOrderValue float64   `json:"avg_order_value"`
	LastOrderDate time.Time `json:"last_order_date"`
}

type ClientAnalysis struct {
	NewClients       int `json:"new_clients"`
	ReturningClients int `json:"returning_clients"`
	TotalClients     int `json:"total_clients"`
}

type AtRiskClient struct {
	ClientID               int64  `json:"client_id"`
	ClientName             string `json:"client_name"`
	CancelledOrders        int    `json:"cancelled_orders"`
	OverdueOrders          int    `json:"overdue_orders"`
	TotalProblematicOrders int    `json:"total_problematic_orders"`
}

type ClientInsights struct {
	Period            Window         `json:"period"`
	TopClientsByOrders []TopClient   `json:"top_clients_by_orders"`
	ClientAnalysis    ClientAnalysis `json:"client_analysis"`
	AtRiskClients     []AtRiskClient `json:"at_risk_clients"`
}

const topClientsLimit = 20

func (s *Service) ClientInsights(ctx context.Context, w Window) (*ClientInsights, error) {
	const op = "insights.ClientInsights"

	orders, err := s.storage.OrdersCreatedBetween(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()

	type clientAcc struct {
		name       string
		orders     int
		revenue    float64
		last       time.Time
		firstOrder time.Time
	}
	clients := map[int64]*clientAcc{}

	type riskAcc struct {
		name               string
		cancelled, overdue int
		total              int
	}
	risks := map[int64]*riskAcc{}

	for i := range orders {
		o := &orders[i]

		acc := clients[o.Customer]
		if acc == nil {
			acc = &clientAcc{name: clientName(o), firstOrder: o.CreatedAt}
			clients[o.Customer] = acc
		}
		acc.orders++
		var orderRevenue float64
		for j := range o.Items {
			orderRevenue += o.Items[j].PriceSnapshot
		}
		acc.revenue += orderRevenue
		if o.CreatedAt.After(acc.last) {
			acc.last = o.CreatedAt
		}
		if o.CreatedAt.Before(acc.firstOrder) {
			acc.firstOrder = o.CreatedAt
		}

		cancelled := o.Status == storage.OrderCancelled
		late := o.DueDate != nil && o.DueDate.Before(now) && o.Status != storage.OrderDone
		if cancelled || late {
			r := risks[o.Customer]
			if r == nil {
				r = &riskAcc{name: clientName(o)}
				risks[o.Customer] = r
			}
			if cancelled {
				r.cancelled++
			}
			if late {
				r.overdue++
			}
			r.total++
		}
	}

	top := make([]TopClient, 0, len(clients))
	analysis := ClientAnalysis{TotalClients: len(clients)}
	for id, acc := range clients {
		top = append(top, TopClient{
			ClientID:      id,
			ClientName:    acc.name,
			OrderCount:    acc.orders,
			TotalRevenue:  acc.revenue,
			AvgOrderValue: avg(acc.revenue, acc.orders),
			LastOrderDate: acc.last,
		})
		// First order inside the window means a client new to the period.
		if !acc.firstOrder.Before(w.Start) {
			analysis.NewClients++
		} else {
			analysis.ReturningClients++
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].OrderCount != top[j].OrderCount {
			return top[i].OrderCount > top[j].OrderCount
		}
		return top[i].ClientID < top[j].ClientID
	})
	if len(top) > topClientsLimit {
		top = top[:topClientsLimit]
	}

	atRisk := make([]AtRiskClient, 0, len(risks))
	for id, r := range risks {
		atRisk = append(atRisk, AtRiskClient{
			ClientID:               id,
			ClientName:             r.name,
			CancelledOrders:        r.cancelled,
			OverdueOrders:          r.overdue,
			TotalProblematicOrders: r.total,
		})
	}
	sort.Slice(atRisk, func(i, j int) bool {
		if atRisk[i].TotalProblematicOrders != atRisk[j].TotalProblematicOrders {
			return atRisk[i].TotalProblematicOrders > atRisk[j].TotalProblematicOrders
		}
		return atRisk[i].ClientID < atRisk[j].ClientID
	})

	return &ClientInsights{
		Period:             w,
		TopClientsByOrders: top,
		ClientAnalysis:     analysis,
		AtRiskClients:      atRisk,
	}, nil
}
