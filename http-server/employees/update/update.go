package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"printshop-backend/internal/storage"
)

type EmployeeUpdater interface {
	GetEmployee(ctx context.Context, id int64) (*storage.Employee, error)
	UpdateEmployee(ctx context.Context, e *storage.Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
}

type Request struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Email     *string    `json:"email"`
	Phone     *string    `json:"phone"`
	Position  *string    `json:"position"`
	HireDate  *time.Time `json:"hire_date"`
}

type Response struct {
	Success  bool              `json:"success"`
	Employee *storage.Employee `json:"employee,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func UpdateEmployee(log *slog.Logger, updater EmployeeUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employees.update.UpdateEmployee"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Position != nil && *req.Position != "employee" && *req.Position != "admin" {
			http.Error(w, "invalid position", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		employee, err := updater.GetEmployee(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrEmployeeNotFound) {
				http.Error(w, "employee not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get employee", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if req.FirstName != nil {
			employee.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			employee.LastName = *req.LastName
		}
		if req.Email != nil {
			employee.Email = *req.Email
		}
		if req.Phone != nil {
			employee.Phone = *req.Phone
		}
		if req.Position != nil {
			employee.Position = *req.Position
		}
		if req.HireDate != nil {
			employee.HireDate = req.HireDate
		}
		employee.UpdatedAt = time.Now().UTC()

		if err := updater.UpdateEmployee(ctx, employee); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, Response{Error: "email already in use"})
				return
			}
			log.Error("failed to update employee", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to update employee"})
			return
		}

		render.JSON(w, r, Response{Success: true, Employee: employee})
	}
}

func DeleteEmployee(log *slog.Logger, updater EmployeeUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employees.update.DeleteEmployee"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := updater.DeleteEmployee(ctx, id); err != nil {
			if errors.Is(err, storage.ErrEmployeeNotFound) {
				http.Error(w, "employee not found", http.StatusNotFound)
				return
			}
			log.Error("failed to delete employee", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Response{Success: true})
	}
}
