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

type ClientGetter interface {
	ListClients(ctx context.Context) ([]storage.Client, error)
	GetClient(ctx context.Context, id int64) (*storage.Client, error)
}

func GetClients(log *slog.Logger, getter ClientGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.clients.get.GetClients"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		clients, err := getter.ListClients(ctx)
		if err != nil {
			log.Error("failed to list clients", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if clients == nil {
			clients = []storage.Client{}
		}

		render.JSON(w, r, clients)
	}
}

func GetClient(log *slog.Logger, getter ClientGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.clients.get.GetClient"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		client, err := getter.GetClient(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrClientNotFound) {
				http.Error(w, "client not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get client", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, client)
	}
}
