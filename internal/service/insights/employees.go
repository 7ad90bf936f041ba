package insights

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"printshop-backend/internal/storage"
)

type EmployeeWorkload struct {
	EmployeeID           int64  `json:"employee_id"`
	EmployeeName         string `json:"employee_name"`
	Position             string `json:"position"`
	TotalAssignments     int    `json:"total_assignments"`
	ActiveAssignments    int    `json:"active_assignments"`
	CompletedAssignments int    `json:"completed_assignments"`
	// milliseconds over completed work only
	TotalTimeSpent int64 `json:"total_time_spent"`
	// live elapsed time of active work, now - started_at
	CurrentWorkTime      int64     `json:"current_work_time"`
	CompletionRate       float64   `json:"completion_rate"`
	AvgTimePerAssignment float64   `json:"avg_time_per_assignment"`
	TotalTimeSpentFmt    *Duration `json:"total_time_spent_formatted"`
	AvgTimePerAssignFmt  *Duration `json:"avg_time_per_assignment_formatted"`
	CurrentWorkTimeFmt   *Duration `json:"current_work_time_formatted"`
}

// StageTurnaround measures assignment lifetime per stage, from assigned_at
// to completed_at (not just the working episode).
type StageTurnaround struct {
	Stage                storage.ItemStatus `json:"stage"`
	CompletedAssignments int                `json:"completed_assignments"`
	ActiveAssignments    int                `json:"active_assignments"`
	AvgCompletionTime    float64            `json:"avg_completion_time"`
	AvgCurrentAge        float64            `json:"avg_current_assignment_age"`
	TotalCompletionTime  int64              `json:"total_completion_time"`
	MinCompletionTime    int64              `json:"min_completion_time"`
	MaxCompletionTime    int64              `json:"max_completion_time"`
	AvgCompletionTimeFmt *Duration          `json:"avg_completion_time_formatted"`
	AvgCurrentAgeFmt     *Duration          `json:"avg_current_assignment_age_formatted"`
	MinCompletionTimeFmt *Duration          `json:"min_completion_time_formatted"`
	MaxCompletionTimeFmt *Duration          `json:"max_completion_time_formatted"`
}

type EmployeeTurnaround struct {
	EmployeeID            int64             `json:"employee_id"`
	EmployeeName          string            `json:"employee_name"`
	StagePerformance      []StageTurnaround `json:"stage_performance"`
	OverallAvgCompletion  float64           `json:"overall_avg_completion_time"`
	TotalCompleted        int               `json:"total_completed_assignments"`
	TotalActive           int               `json:"total_active_assignments"`
	TotalWorkTime         int64             `json:"total_work_time"`
	OverallAvgCompletionF *Duration         `json:"overall_avg_completion_time_formatted"`
	TotalWorkTimeFmt      *Duration         `json:"total_work_time_formatted"`
}

type EmployeeActivity struct {
	storage.Employee
	IsActive bool `json:"is_active"`
}

type EmployeeSummary struct {
	TotalEmployees    int `json:"total_employees"`
	ActiveEmployees   int `json:"active_employees"`
	InactiveEmployees int `json:"inactive_employees"`
}

type EmployeeInsights struct {
	Period               Window               `json:"period"`
	WorkloadDistribution []EmployeeWorkload   `json:"workload_distribution"`
	TurnaroundTime       []EmployeeTurnaround `json:"employee_turnaround_time"`
	EmployeeActivity     []EmployeeActivity   `json:"employee_activity"`
	Summary              EmployeeSummary      `json:"summary"`
}

func (s *Service) EmployeeInsights(ctx context.Context, w Window) (*EmployeeInsights, error) {
	const op = "insights.EmployeeInsights"

	var (
		orders    []storage.Order
		employees []storage.Employee
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
		employees, err = s.storage.ListEmployees(gCtx)
		if err != nil {
			return fmt.Errorf("employees: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()

	type empKey struct {
		id   int64
		name string
	}
	type workAcc struct {
		total, active, done int
		spent, current      int64
	}
	workload := map[empKey]*workAcc{}

	type stageKey struct {
		id    int64
		name  string
		stage storage.ItemStatus
	}
	type turnAcc struct {
		done, active         int
		doneTotal, ageTotal  int64
		min, max             int64
	}
	turnaround := map[stageKey]*turnAcc{}
	activeIDs := map[int64]bool{}

	for i := range orders {
		for j := range orders[i].Items {
			for k := range orders[i].Items[j].Assignments {
				a := &orders[i].Items[j].Assignments[k]
				if a.AssignedTo == nil {
					continue
				}
				activeIDs[*a.AssignedTo] = true

				name := ""
				if a.AssignedToName != nil {
					name = *a.AssignedToName
				}

				wk := empKey{id: *a.AssignedTo, name: name}
				acc := workload[wk]
				if acc == nil {
					acc = &workAcc{}
					workload[wk] = acc
				}
				acc.total++
				switch {
				case a.IsActive && a.CompletedAt == nil:
					acc.active++
					if a.StartedAt != nil {
						acc.current += now.Sub(*a.StartedAt).Milliseconds()
					}
				case assignmentCompleted(a):
					acc.done++
					if a.TimeSpent != nil {
						acc.spent += *a.TimeSpent
					}
				}

				sk := stageKey{id: *a.AssignedTo, name: name, stage: a.Stage}
				ta := turnaround[sk]
				if ta == nil {
					ta = &turnAcc{}
					turnaround[sk] = ta
				}
				switch {
				case assignmentCompleted(a):
					dur := a.CompletedAt.Sub(a.AssignedAt).Milliseconds()
					ta.done++
					ta.doneTotal += dur
					if ta.done == 1 || dur < ta.min {
						ta.min = dur
					}
					if dur > ta.max {
						ta.max = dur
					}
				case a.IsActive && a.CompletedAt == nil:
					ta.active++
					ta.ageTotal += now.Sub(a.AssignedAt).Milliseconds()
				}
			}
		}
	}

	// Positions come from the employee list, not the assignment rows.
	positions := map[int64]string{}
	for i := range employees {
		positions[employees[i].ID] = employees[i].Position
	}

	distribution := make([]EmployeeWorkload, 0, len(workload))
	for key, acc := range workload {
		e := EmployeeWorkload{
			EmployeeID:           key.id,
			EmployeeName:         key.name,
			Position:             positions[key.id],
			TotalAssignments:     acc.total,
			ActiveAssignments:    acc.active,
			CompletedAssignments: acc.done,
			TotalTimeSpent:       acc.spent,
			CurrentWorkTime:      acc.current,
		}
		if acc.total > 0 {
			e.CompletionRate = float64(acc.done) / float64(acc.total) * 100
		}
		e.AvgTimePerAssignment = avg(float64(acc.spent), acc.done)
		e.TotalTimeSpentFmt = FormatDuration(float64(acc.spent))
		e.AvgTimePerAssignFmt = FormatDuration(e.AvgTimePerAssignment)
		e.CurrentWorkTimeFmt = FormatDuration(float64(acc.current))
		distribution = append(distribution, e)
	}
	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].TotalAssignments != distribution[j].TotalAssignments {
			return distribution[i].TotalAssignments > distribution[j].TotalAssignments
		}
		return distribution[i].EmployeeID < distribution[j].EmployeeID
	})

	perEmployee := map[empKey][]StageTurnaround{}
	for key, ta := range turnaround {
		st := StageTurnaround{
			Stage:                key.stage,
			CompletedAssignments: ta.done,
			ActiveAssignments:    ta.active,
			AvgCompletionTime:    avg(float64(ta.doneTotal), ta.done),
			AvgCurrentAge:        avg(float64(ta.ageTotal), ta.active),
			TotalCompletionTime:  ta.doneTotal,
			MinCompletionTime:    ta.min,
			MaxCompletionTime:    ta.max,
		}
		st.AvgCompletionTimeFmt = FormatDuration(st.AvgCompletionTime)
		st.AvgCurrentAgeFmt = FormatDuration(st.AvgCurrentAge)
		st.MinCompletionTimeFmt = FormatDuration(float64(ta.min))
		st.MaxCompletionTimeFmt = FormatDuration(float64(ta.max))
		ek := empKey{id: key.id, name: key.name}
		perEmployee[ek] = append(perEmployee[ek], st)
	}

	turnarounds := make([]EmployeeTurnaround, 0, len(perEmployee))
	for key, stages := range perEmployee {
		sort.Slice(stages, func(i, j int) bool { return stages[i].Stage < stages[j].Stage })
		et := EmployeeTurnaround{
			EmployeeID:       key.id,
			EmployeeName:     key.name,
			StagePerformance: stages,
		}
		var avgTotal float64
		avgN := 0
		for _, st := range stages {
			et.TotalCompleted += st.CompletedAssignments
			et.TotalActive += st.ActiveAssignments
			et.TotalWorkTime += st.TotalCompletionTime
			if st.CompletedAssignments > 0 {
				avgTotal += st.AvgCompletionTime
				avgN++
			}
		}
		et.OverallAvgCompletion = avg(avgTotal, avgN)
		et.OverallAvgCompletionF = FormatDuration(et.OverallAvgCompletion)
		et.TotalWorkTimeFmt = FormatDuration(float64(et.TotalWorkTime))
		turnarounds = append(turnarounds, et)
	}
	sort.Slice(turnarounds, func(i, j int) bool {
		if turnarounds[i].OverallAvgCompletion != turnarounds[j].OverallAvgCompletion {
			return turnarounds[i].OverallAvgCompletion < turnarounds[j].OverallAvgCompletion
		}
		return turnarounds[i].EmployeeID < turnarounds[j].EmployeeID
	})

	activity := make([]EmployeeActivity, 0, len(employees))
	activeTotal := 0
	for i := range employees {
		isActive := activeIDs[employees[i].ID]
		if isActive {
			activeTotal++
		}
		activity = append(activity, EmployeeActivity{Employee: employees[i], IsActive: isActive})
	}

	return &EmployeeInsights{
		Period:               w,
		WorkloadDistribution: distribution,
		TurnaroundTime:       turnarounds,
		EmployeeActivity:     activity,
		Summary: EmployeeSummary{
			TotalEmployees:    len(employees),
			ActiveEmployees:   activeTotal,
			InactiveEmployees: len(employees) - activeTotal,
		},
	}, nil
}
