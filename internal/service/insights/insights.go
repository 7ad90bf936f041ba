// Package insights derives read-only operational reports from the order
// store: bottlenecks, workload, turnaround, revenue. Every report scans the
// orders created inside a bounded time window, flattens items and
// assignments and groups in memory; nothing is cached and nothing is
// mutated.
package insights

import (
	"context"
	"fmt"
	"math"
	"time"

	"printshop-backend/internal/storage"
)

type Storage interface {
	OrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]storage.Order, error)
	OrdersDueBetween(ctx context.Context, start, end time.Time) ([]storage.Order, error)
	ListEmployees(ctx context.Context) ([]storage.Employee, error)
	ListProducts(ctx context.Context) ([]storage.Product, error)
	CountEmployees(ctx context.Context) (int64, error)
	CountClients(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
}

type Service struct {
	storage Storage
	now     func() time.Time
}

func NewService(storage Storage) *Service {
	return &Service{storage: storage, now: time.Now}
}

// Window is the [start, end] range a report is scoped to.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

const defaultPeriod = 30 * 24 * time.Hour

var periods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// ResolveWindow turns the query parameters into a concrete window: explicit
// RFC 3339 start/end dates win, otherwise a named period token counted back
// from now, default 30d.
func ResolveWindow(startDate, endDate, period string, now time.Time) (Window, error) {
	const op = "insights.ResolveWindow"

	if startDate != "" && endDate != "" {
		start, err := time.Parse(time.RFC3339, startDate)
		if err != nil {
			return Window{}, fmt.Errorf("%s: invalid start date %q: %w", op, startDate, err)
		}
		end, err := time.Parse(time.RFC3339, endDate)
		if err != nil {
			return Window{}, fmt.Errorf("%s: invalid end date %q: %w", op, endDate, err)
		}
		if !end.After(start) {
			return Window{}, fmt.Errorf("%s: end date must be after start date", op)
		}
		return Window{Start: start, End: end}, nil
	}
	if startDate != "" || endDate != "" {
		return Window{}, fmt.Errorf("%s: start and end dates must be given together", op)
	}

	if period == "" {
		return Window{Start: now.Add(-defaultPeriod), End: now}, nil
	}
	d, ok := periods[period]
	if !ok {
		return Window{}, fmt.Errorf("%s: unknown period %q", op, period)
	}
	return Window{Start: now.Add(-d), End: now}, nil
}

// Duration decorates a millisecond value with coarser units and a human
// string; nil stands for "no data" and keeps zeroes out of the reports.
type Duration struct {
	Milliseconds int64  `json:"milliseconds"`
	Seconds      int64  `json:"seconds"`
	Minutes      int64  `json:"minutes"`
	Hours        int64  `json:"hours"`
	Days         int64  `json:"days"`
	Formatted    string `json:"formatted"`
}

func FormatDuration(ms float64) *Duration {
	if ms <= 0 || math.IsNaN(ms) {
		return nil
	}

	milliseconds := int64(math.Round(ms))
	seconds := milliseconds / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	var formatted string
	switch {
	case days > 0:
		formatted = fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		formatted = fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		formatted = fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		formatted = fmt.Sprintf("%ds", seconds)
	}

	return &Duration{
		Milliseconds: milliseconds,
		Seconds:      seconds,
		Minutes:      minutes,
		Hours:        hours,
		Days:         days,
		Formatted:    formatted,
	}
}

// assignmentCompleted reports whether the record represents finished work
// with a usable duration.
func assignmentCompleted(a *storage.Assignment) bool {
	return !a.IsActive && a.CompletedAt != nil
}

func avg(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func overdue(o *storage.Order, now time.Time) bool {
	return o.DueDate != nil && o.DueDate.Before(now) &&
		o.Status != storage.OrderDone && o.Status != storage.OrderCancelled
}

func clientName(o *storage.Order) string {
	if o.CustomerName != nil {
		return *o.CustomerName
	}
	return ""
}
