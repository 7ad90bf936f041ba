package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"printshop-backend/internal/storage"
)

type ClientSaver interface {
	CreateClient(ctx context.Context, c *storage.Client) (int64, error)
}

type Request struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Whatsapp  string `json:"whatsapp"`
	Email     string `json:"email"`
}

type Response struct {
	Success bool            `json:"success"`
	Client  *storage.Client `json:"client,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func SaveClient(log *slog.Logger, saver ClientSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.clients.save.SaveClient"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.FirstName == "" || req.LastName == "" {
			http.Error(w, "first_name and last_name are required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		now := time.Now().UTC()
		client := &storage.Client{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Whatsapp:  req.Whatsapp,
			Email:     req.Email,
			CreatedAt: now,
			UpdatedAt: now,
		}

		id, err := saver.CreateClient(ctx, client)
		if err != nil {
			log.Error("failed to create client", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to create client"})
			return
		}
		client.ID = id

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Success: true, Client: client})
	}
}
