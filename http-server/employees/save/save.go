package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"printshop-backend/internal/storage"
)

type EmployeeSaver interface {
	CreateEmployee(ctx context.Context, e *storage.Employee) (int64, error)
	GetEmployee(ctx context.Context, id int64) (*storage.Employee, error)
}

type Request struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Position  string     `json:"position"`
	HireDate  *time.Time `json:"hire_date"`
	Password  string     `json:"password"`
}

type Response struct {
	Success  bool              `json:"success"`
	Employee *storage.Employee `json:"employee,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func SaveEmployee(log *slog.Logger, saver EmployeeSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employees.save.SaveEmployee"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
			http.Error(w, "first_name, last_name, email and password are required", http.StatusBadRequest)
			return
		}
		if req.Position == "" {
			req.Position = "employee"
		}
		if req.Position != "employee" && req.Position != "admin" {
			http.Error(w, "invalid position", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("failed to hash password", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		now := time.Now().UTC()
		employee := &storage.Employee{
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			Phone:        req.Phone,
			Position:     req.Position,
			HireDate:     req.HireDate,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		id, err := saver.CreateEmployee(ctx, employee)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, Response{Error: "email already in use"})
				return
			}
			log.Error("failed to create employee", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to create employee"})
			return
		}
		employee.ID = id

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Success: true, Employee: employee})
	}
}
