package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"printshop-backend/internal/service/insights"
)

type GenerateExcelHandler interface {
	GenerateExcel(ctx context.Context, w insights.Window) ([]byte, error)
}

// GenerateReportExcel streams the xlsx order report for the requested
// window; it takes the same startDate/endDate/period parameters as the
// insights endpoints.
func GenerateReportExcel(log *slog.Logger, gen GenerateExcelHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.generate-report.GenerateReportExcel"

		q := r.URL.Query()
		window, err := insights.ResolveWindow(q.Get("startDate"), q.Get("endDate"), q.Get("period"), time.Now().UTC())
		if err != nil {
			http.Error(w, "invalid report window", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, window)
		if err != nil {
			log.Error("failed to generate excel", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("orders_report_%s.xlsx", time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		w.Write(excelBytes)
	}
}
