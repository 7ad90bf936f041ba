package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"printshop-backend/internal/service/insights"
)

// Reporter is the read side of the insights service; every report is scoped
// to a resolved time window.
type Reporter interface {
	OrderInsights(ctx context.Context, w insights.Window) (*insights.OrderInsights, error)
	EmployeeInsights(ctx context.Context, w insights.Window) (*insights.EmployeeInsights, error)
	ClientInsights(ctx context.Context, w insights.Window) (*insights.ClientInsights, error)
	ProductInsights(ctx context.Context, w insights.Window) (*insights.ProductInsights, error)
	FinancialInsights(ctx context.Context, w insights.Window) (*insights.FinancialInsights, error)
	AuditInsights(ctx context.Context, w insights.Window) (*insights.AuditInsights, error)
	DashboardInsights(ctx context.Context, w insights.Window) (*insights.DashboardInsights, error)
}

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

const reportTimeout = 10 * time.Second

// report wraps one insights call with window resolution and the response
// envelope shared by all seven endpoints.
func report[T any](log *slog.Logger, op string,
	fn func(ctx context.Context, w insights.Window) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		window, err := insights.ResolveWindow(q.Get("startDate"), q.Get("endDate"), q.Get("period"), time.Now().UTC())
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, Response{Error: "invalid report window"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
		defer cancel()

		data, err := fn(ctx, window)
		if err != nil {
			log.Error("report failed", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to build report"})
			return
		}

		render.JSON(w, r, Response{Success: true, Data: data})
	}
}

func OrderInsights(log *slog.Logger, rep Reporter) http.HandlerFunc {
	return report(log, "handlers.insights.get.OrderInsights", rep.OrderInsights)
}

func EmployeeInsights(log *slog.Logger, rep Reporter) http.HandlerFunc {
	return report(log, "handlers.insights.get.EmployeeInsights", rep.EmployeeInsights)
}

func ClientInsights(log *slog.Logger, rep Reporter) http.HandlerFunc {
	return report(log, "handlers.insights.get.ClientInsights", rep.ClientInsights)
}

func ProductInsights(log *slog.Logger, rep Reporter) http.HandlerFunc {
	return report(log, "handlers.insights.get.ProductInsights", rep.ProductInsights)
}

func FinancialInsights(log *slog.Logger, rep Reporter) http.HandlerFunc {
	return report(log, "handlers.insights.get.FinancialInsights", rep.FinancialInsights)
}

func AuditInsights(log *slog.Logger, rep Reporter) http.HandlerFunc {
	return report(log, "handlers.insights.get.AuditInsights", rep.AuditInsights)
}

func DashboardInsights(log *slog.Logger, rep Reporter) http.HandlerFunc {
	return report(log, "handlers.insights.get.DashboardInsights", rep.DashboardInsights)
}
