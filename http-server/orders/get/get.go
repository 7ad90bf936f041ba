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
	"printshop-backend/internal/storage/mysql"
)

type OrderGetter interface {
	GetOrder(ctx context.Context, id int64) (*storage.Order, error)
	ListOrders(ctx context.Context, f mysql.OrderFilter) ([]storage.Order, error)
}

func GetOrder(log *slog.Logger, getter OrderGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.get.GetOrder"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := getter.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get order", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, order)
	}
}

func GetOrders(log *slog.Logger, getter OrderGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.get.GetOrders"

		q := r.URL.Query()
		filter := mysql.OrderFilter{
			Status:   storage.OrderStatus(q.Get("status")),
			Priority: storage.Priority(q.Get("priority")),
		}
		if filter.Status != "" && !storage.ValidOrderStatus(filter.Status) {
			http.Error(w, "invalid status filter", http.StatusBadRequest)
			return
		}
		if filter.Priority != "" && !storage.ValidPriority(filter.Priority) {
			http.Error(w, "invalid priority filter", http.StatusBadRequest)
			return
		}
		filter.Search = q.Get("search")
		if v := q.Get("customer"); v != "" {
			customer, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				http.Error(w, "invalid customer filter", http.StatusBadRequest)
				return
			}
			filter.Customer = customer
		}
		if v := q.Get("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			filter.Limit = limit
		}
		if v := q.Get("offset"); v != "" {
			offset, err := strconv.Atoi(v)
			if err != nil || offset < 0 {
				http.Error(w, "invalid offset", http.StatusBadRequest)
				return
			}
			filter.Offset = offset
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		orders, err := getter.ListOrders(ctx, filter)
		if err != nil {
			log.Error("failed to list orders", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if orders == nil {
			orders = []storage.Order{}
		}

		render.JSON(w, r, orders)
	}
}
