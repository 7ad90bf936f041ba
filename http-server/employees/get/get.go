package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"printshop-backend/internal/storage"
)

type EmployeeGetter interface {
	ListEmployees(ctx context.Context) ([]storage.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*storage.Employee, error)
}

func GetEmployees(log *slog.Logger, getter EmployeeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employees.get.GetEmployees"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		employees, err := getter.ListEmployees(ctx)
		if err != nil {
			log.Error("failed to list employees", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if employees == nil {
			employees = []storage.Employee{}
		}

		render.JSON(w, r, employees)
	}
}

func GetEmployee(log *slog.Logger, getter EmployeeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employees.get.GetEmployee"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		employee, err := getter.GetEmployee(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrEmployeeNotFound) {
				http.Error(w, "employee not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get employee", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, employee)
	}
}
