package insights

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"printshop-backend/internal/storage"
)

type ProductTypeStat struct {
	ProductType string `json:"product_type"`
	ProductName string `json:"product_name"`
	// quantity-weighted
	OrderCount       int     `json:"order_count"`
	TotalRevenue     float64 `json:"total_revenue"`
	AvgPrice         float64 `json:"avg_price"`
	UniqueOrderCount int     `json:"unique_order_count"`
}

type ProductTypeRevenue struct {
	ProductType  string  `json:"product_type"`
	TotalRevenue float64 `json:"total_revenue"`
	OrderCount   int     `json:"order_count"`
}

type ProductSummary struct {
	TotalProducts      int `json:"total_products"`
	ActiveProducts     int `json:"active_products"`
	RarelyOrderedCount int `json:"rarely_ordered_count"`
}

type ProductInsights struct {
	Period                Window               `json:"period"`
	ProductTypeStats      []ProductTypeStat    `json:"product_type_stats"`
	RevenueByProductType  []ProductTypeRevenue `json:"revenue_by_product_type"`
	RarelyOrderedProducts []storage.Product    `json:"rarely_ordered_products"`
	Summary               ProductSummary       `json:"summary"`
}

const rarelyOrderedThreshold = 2

func (s *Service) ProductInsights(ctx context.Context, w Window) (*ProductInsights, error) {
	const op = "insights.ProductInsights"

	var (
		orders   []storage.Order
		products []storage.Product
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
		products, err = s.storage.ListProducts(gCtx)
		if err != nil {
			return fmt.Errorf("products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	typesByID := map[int64]storage.Product{}
	for _, p := range products {
		typesByID[p.ID] = p
	}

	type statKey struct {
		ptype string
		name  string
	}
	type statAcc struct {
		qty        int
		revenue    float64
		priceTotal float64
		priceN     int
		orders     map[int64]bool
	}
	stats := map[statKey]*statAcc{}

	type revAcc struct {
		revenue float64
		qty     int
	}
	byType := map[string]*revAcc{}

	// occurrences of each product across order items; products with two or
	// fewer are "rarely ordered"
	productUse := map[int64]int{}

	for i := range orders {
		o := &orders[i]
		for j := range o.Items {
			it := &o.Items[j]

			var key statKey
			if it.Product != nil {
				if p, ok := typesByID[*it.Product]; ok {
					key = statKey{ptype: p.Type, name: p.ProductName}
				}
				productUse[*it.Product]++
			}

			acc := stats[key]
			if acc == nil {
				acc = &statAcc{orders: map[int64]bool{}}
				stats[key] = acc
			}
			acc.qty += it.Quantity
			acc.revenue += it.PriceSnapshot * float64(it.Quantity)
			acc.priceTotal += it.PriceSnapshot
			acc.priceN++
			acc.orders[o.ID] = true

			tr := byType[key.ptype]
			if tr == nil {
				tr = &revAcc{}
				byType[key.ptype] = tr
			}
			tr.revenue += it.PriceSnapshot * float64(it.Quantity)
			tr.qty += it.Quantity
		}
	}

	typeStats := make([]ProductTypeStat, 0, len(stats))
	for key, acc := range stats {
		typeStats = append(typeStats, ProductTypeStat{
			ProductType:      key.ptype,
			ProductName:      key.name,
			OrderCount:       acc.qty,
			TotalRevenue:     acc.revenue,
			AvgPrice:         avg(acc.priceTotal, acc.priceN),
			UniqueOrderCount: len(acc.orders),
		})
	}
	sort.Slice(typeStats, func(i, j int) bool {
		if typeStats[i].OrderCount != typeStats[j].OrderCount {
			return typeStats[i].OrderCount > typeStats[j].OrderCount
		}
		return typeStats[i].ProductName < typeStats[j].ProductName
	})

	revenueByType := make([]ProductTypeRevenue, 0, len(byType))
	for ptype, acc := range byType {
		revenueByType = append(revenueByType, ProductTypeRevenue{
			ProductType:  ptype,
			TotalRevenue: acc.revenue,
			OrderCount:   acc.qty,
		})
	}
	sort.Slice(revenueByType, func(i, j int) bool {
		if revenueByType[i].TotalRevenue != revenueByType[j].TotalRevenue {
			return revenueByType[i].TotalRevenue > revenueByType[j].TotalRevenue
		}
		return revenueByType[i].ProductType < revenueByType[j].ProductType
	})

	rare := map[int64]bool{}
	for id, n := range productUse {
		if n <= rarelyOrderedThreshold {
			rare[id] = true
		}
	}
	var rarelyOrdered []storage.Product
	for _, p := range products {
		// With no orders against any product in the window, every product
		// counts as rarely ordered.
		if len(rare) == 0 || rare[p.ID] {
			rarelyOrdered = append(rarelyOrdered, p)
		}
	}

	return &ProductInsights{
		Period:                w,
		ProductTypeStats:      typeStats,
		RevenueByProductType:  revenueByType,
		RarelyOrderedProducts: rarelyOrdered,
		Summary: ProductSummary{
			TotalProducts:      len(products),
			ActiveProducts:     len(typeStats),
			RarelyOrderedCount: len(rarelyOrdered),
		},
	}, nil
}
