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

type ClientUpdater interface {
	GetClient(ctx context.Context, id int64) (*storage.Client, error)
	UpdateClient(ctx context.Context, c *storage.Client) error
	DeleteClient(ctx context.Context, id int64) error
}

type Request struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Whatsapp  *string `json:"whatsapp"`
	Email     *string `json:"email"`
}

type Response struct {
	Success bool            `json:"success"`
	Client  *storage.Client `json:"client,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func UpdateClient(log *slog.Logger, updater ClientUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.clients.update.UpdateClient"

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		client, err := updater.GetClient(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrClientNotFound) {
				http.Error(w, "client not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get client", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if req.FirstName != nil {
			client.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			client.LastName = *req.LastName
		}
		if req.Phone != nil {
			client.Phone = *req.Phone
		}
		if req.Whatsapp != nil {
			client.Whatsapp = *req.Whatsapp
		}
		if req.Email != nil {
			client.Email = *req.Email
		}
		client.UpdatedAt = time.Now().UTC()

		if err := updater.UpdateClient(ctx, client); err != nil {
			log.Error("failed to update client", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to update client"})
			return
		}

		render.JSON(w, r, Response{Success: true, Client: client})
	}
}

func DeleteClient(log *slog.Logger, updater ClientUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.clients.update.DeleteClient"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := updater.DeleteClient(ctx, id); err != nil {
			if errors.Is(err, storage.ErrClientNotFound) {
				http.Error(w, "client not found", http.StatusNotFound)
				return
			}
			log.Error("failed to delete client", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Response{Success: true})
	}
}
