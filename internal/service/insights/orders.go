package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"printshop-backend/internal/storage"
)

type StatusCount struct {
	Status storage.OrderStatus `json:"status"`
	Count  int                 `json:"count"`
}

type PriorityCount struct {
	Priority storage.Priority `json:"priority"`
	Count    int              `json:"count"`
}

type OverdueOrder struct {
	OrderID      int64               `json:"order_id"`
	CustomerName string              `json:"customer_name"`
	DueDate      time.Time           `json:"due_date"`
	Status       storage.OrderStatus `json:"status"`
	Priority     storage.Priority    `json:"priority"`
}

type CompletionStats struct {
	AvgCompletionTime          float64   `json:"avg_completion_time"`
	TotalCompleted             int       `json:"total_completed"`
	AvgCompletionTimeFormatted *Duration `json:"avg_completion_time_formatted"`
}

// StageBottleneck separates work currently sitting in a stage from work that
// went through it: active records are aged as now-started_at, completed ones
// use the stored time_spent.
type StageBottleneck struct {
	Stage                          storage.ItemStatus `json:"stage"`
	ActiveAssignments              int                `json:"active_assignments"`
	CompletedAssignments           int                `json:"completed_assignments"`
	AvgTimeInStageActive           float64            `json:"avg_time_in_stage_active"`
	AvgTimeInStageCompleted        float64            `json:"avg_time_in_stage_completed"`
	AvgTimeInStageActiveFormatted  *Duration          `json:"avg_time_in_stage_active_formatted"`
	AvgTimeInStageCompletedFmt     *Duration          `json:"avg_time_in_stage_completed_formatted"`
}

type StageEmployeeCount struct {
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	ItemCount    int    `json:"item_count"`
}

type StageAssignmentOverview struct {
	Stage       storage.ItemStatus   `json:"stage"`
	Assignments []StageEmployeeCount `json:"assignments"`
	TotalItems  int                  `json:"total_items"`
}

type OrderInsights struct {
	Period                Window                    `json:"period"`
	OrdersByStatus        []StatusCount             `json:"orders_by_status"`
	OverdueOrders         []OverdueOrder            `json:"overdue_orders"`
	OrdersByPriority      []PriorityCount           `json:"orders_by_priority"`
	AverageCompletionTime CompletionStats           `json:"average_completion_time"`
	StageBottlenecks      []StageBottleneck         `json:"stage_bottlenecks"`
	AssignmentOverview    []StageAssignmentOverview `json:"assignment_overview"`
}

func (s *Service) OrderInsights(ctx context.Context, w Window) (*OrderInsights, error) {
	const op = "insights.OrderInsights"

	orders, err := s.storage.OrdersCreatedBetween(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()

	byStatus := map[storage.OrderStatus]int{}
	byPriority := map[storage.Priority]int{}
	var overdueOrders []OverdueOrder
	var completionTotal float64
	completed := 0

	type stageAcc struct {
		active, done             int
		activeTotal, doneTotal   float64
	}
	stages := map[storage.ItemStatus]*stageAcc{}
	type stageEmp struct {
		stage storage.ItemStatus
		id    int64
		name  string
	}
	stageEmployees := map[stageEmp]int{}

	for i := range orders {
		o := &orders[i]
		byStatus[o.Status]++
		byPriority[o.Priority]++

		if overdue(o, now) {
			overdueOrders = append(overdueOrders, OverdueOrder{
				OrderID:      o.ID,
				CustomerName: clientName(o),
				DueDate:      *o.DueDate,
				Status:       o.Status,
				Priority:     o.Priority,
			})
		}

		if o.Status == storage.OrderDone {
			completionTotal += float64(o.UpdatedAt.Sub(o.CreatedAt).Milliseconds())
			completed++
		}

		for j := range o.Items {
			for k := range o.Items[j].Assignments {
				a := &o.Items[j].Assignments[k]

				acc := stages[a.Stage]
				if acc == nil {
					acc = &stageAcc{}
					stages[a.Stage] = acc
				}
				switch {
				case a.IsActive && a.CompletedAt == nil:
					acc.active++
					if a.StartedAt != nil {
						acc.activeTotal += float64(now.Sub(*a.StartedAt).Milliseconds())
					}
				case assignmentCompleted(a):
					acc.done++
					if a.TimeSpent != nil {
						acc.doneTotal += float64(*a.TimeSpent)
					}
				}

				if a.AssignedTo != nil && a.AssignedToName != nil {
					stageEmployees[stageEmp{stage: a.Stage, id: *a.AssignedTo, name: *a.AssignedToName}]++
				}
			}
		}
	}

	statusCounts := make([]StatusCount, 0, len(byStatus))
	for st, n := range byStatus {
		statusCounts = append(statusCounts, StatusCount{Status: st, Count: n})
	}
	sort.Slice(statusCounts, func(i, j int) bool {
		if statusCounts[i].Count != statusCounts[j].Count {
			return statusCounts[i].Count > statusCounts[j].Count
		}
		return statusCounts[i].Status < statusCounts[j].Status
	})

	priorityCounts := make([]PriorityCount, 0, len(byPriority))
	for p, n := range byPriority {
		priorityCounts = append(priorityCounts, PriorityCount{Priority: p, Count: n})
	}
	sort.Slice(priorityCounts, func(i, j int) bool {
		if priorityCounts[i].Count != priorityCounts[j].Count {
			return priorityCounts[i].Count > priorityCounts[j].Count
		}
		return priorityCounts[i].Priority < priorityCounts[j].Priority
	})

	bottlenecks := make([]StageBottleneck, 0, len(stages))
	for stage, acc := range stages {
		b := StageBottleneck{
			Stage:                   stage,
			ActiveAssignments:       acc.active,
			CompletedAssignments:    acc.done,
			AvgTimeInStageActive:    avg(acc.activeTotal, acc.active),
			AvgTimeInStageCompleted: avg(acc.doneTotal, acc.done),
		}
		b.AvgTimeInStageActiveFormatted = FormatDuration(b.AvgTimeInStageActive)
		b.AvgTimeInStageCompletedFmt = FormatDuration(b.AvgTimeInStageCompleted)
		bottlenecks = append(bottlenecks, b)
	}
	sort.Slice(bottlenecks, func(i, j int) bool {
		if bottlenecks[i].ActiveAssignments != bottlenecks[j].ActiveAssignments {
			return bottlenecks[i].ActiveAssignments > bottlenecks[j].ActiveAssignments
		}
		if bottlenecks[i].CompletedAssignments != bottlenecks[j].CompletedAssignments {
			return bottlenecks[i].CompletedAssignments > bottlenecks[j].CompletedAssignments
		}
		return bottlenecks[i].Stage < bottlenecks[j].Stage
	})

	overviewByStage := map[storage.ItemStatus]*StageAssignmentOverview{}
	for key, n := range stageEmployees {
		ov := overviewByStage[key.stage]
		if ov == nil {
			ov = &StageAssignmentOverview{Stage: key.stage}
			overviewByStage[key.stage] = ov
		}
		ov.Assignments = append(ov.Assignments, StageEmployeeCount{
			EmployeeID:   key.id,
			EmployeeName: key.name,
			ItemCount:    n,
		})
		ov.TotalItems += n
	}
	overview := make([]StageAssignmentOverview, 0, len(overviewByStage))
	for _, ov := range overviewByStage {
		sort.Slice(ov.Assignments, func(i, j int) bool {
			if ov.Assignments[i].ItemCount != ov.Assignments[j].ItemCount {
				return ov.Assignments[i].ItemCount > ov.Assignments[j].ItemCount
			}
			return ov.Assignments[i].EmployeeID < ov.Assignments[j].EmployeeID
		})
		overview = append(overview, *ov)
	}
	sort.Slice(overview, func(i, j int) bool { return overview[i].Stage < overview[j].Stage })

	sort.Slice(overdueOrders, func(i, j int) bool { return overdueOrders[i].DueDate.Before(overdueOrders[j].DueDate) })

	avgCompletion := avg(completionTotal, completed)
	return &OrderInsights{
		Period:           w,
		OrdersByStatus:   statusCounts,
		OverdueOrders:    overdueOrders,
		OrdersByPriority: priorityCounts,
		AverageCompletionTime: CompletionStats{
			AvgCompletionTime:          avgCompletion,
			TotalCompleted:             completed,
			AvgCompletionTimeFormatted: FormatDuration(avgCompletion),
		},
		StageBottlenecks:   bottlenecks,
		AssignmentOverview: overview,
	}, nil
}
