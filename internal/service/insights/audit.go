package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"printshop-backend/internal/storage"
)

type DisabledStageCount struct {
	Stage storage.ItemStatus `json:"stage"`
	Count int                `json:"count"`
}

type SuspiciousOrder struct {
	OrderID           int64               `json:"order_id"`
	Status            storage.OrderStatus `json:"status"`
	Priority          storage.Priority    `json:"priority"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	ClientName        string              `json:"client_name"`
	DaysSinceCreation float64             `json:"days_since_creation"`
}

type SettingsHealth struct {
	TotalProducts   int64 `json:"total_products"`
	ActiveEmployees int64 `json:"active_employees"`
	TotalClients    int64 `json:"total_clients"`
}

type AuditInsights struct {
	Period             Window               `json:"period"`
	DisabledStageStats []DisabledStageCount `json:"disabled_stages_stats"`
	SuspiciousActivity []SuspiciousOrder    `json:"suspicious_activity"`
	SettingsHealth     SettingsHealth       `json:"settings_health"`
}

const suspiciousActivityLimit = 20

func (s *Service) AuditInsights(ctx context.Context, w Window) (*AuditInsights, error) {
	const op = "insights.AuditInsights"

	var (
		orders []storage.Order
		health SettingsHealth
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
		health.TotalProducts, err = s.storage.CountProducts(gCtx)
		if err != nil {
			return fmt.Errorf("products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		health.ActiveEmployees, err = s.storage.CountEmployees(gCtx)
		if err != nil {
			return fmt.Errorf("employees: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		health.TotalClients, err = s.storage.CountClients(gCtx)
		if err != nil {
			return fmt.Errorf("clients: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()

	disabled := map[storage.ItemStatus]int{}
	var suspicious []SuspiciousOrder

	for i := range orders {
		o := &orders[i]
		for j := range o.Items {
			for _, stage := range o.Items[j].DisabledStages {
				disabled[stage]++
			}
		}

		age := now.Sub(o.CreatedAt).Hours() / 24
		cancelledFast := o.Status == storage.OrderCancelled && age < 1
		touchedRecently := o.UpdatedAt.After(now.Add(-24 * time.Hour))
		if cancelledFast || touchedRecently {
			suspicious = append(suspicious, SuspiciousOrder{
				OrderID:           o.ID,
				Status:            o.Status,
				Priority:          o.Priority,
				CreatedAt:         o.CreatedAt,
				UpdatedAt:         o.UpdatedAt,
				ClientName:        clientName(o),
				DaysSinceCreation: age,
			})
		}
	}

	stats := make([]DisabledStageCount, 0, len(disabled))
	for stage, n := range disabled {
		stats = append(stats, DisabledStageCount{Stage: stage, Count: n})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Stage < stats[j].Stage
	})

	sort.Slice(suspicious, func(i, j int) bool { return suspicious[i].UpdatedAt.After(suspicious[j].UpdatedAt) })
	if len(suspicious) > suspiciousActivityLimit {
		suspicious = suspicious[:suspiciousActivityLimit]
	}

	return &AuditInsights{
		Period:             w,
		DisabledStageStats: stats,
		SuspiciousActivity: suspicious,
		SettingsHealth:     health,
	}, nil
}
