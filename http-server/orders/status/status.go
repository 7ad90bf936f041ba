package status

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

	"printshop-backend/internal/middleware/auth"
	"printshop-backend/internal/service/workflow"
	"printshop-backend/internal/storage"
)

type OrderStore interface {
	GetOrder(ctx context.Context, id int64) (*storage.Order, error)
	UpdateOrder(ctx context.Context, o *storage.Order) error
}

type Response struct {
	Success bool           `json:"success"`
	Order   *storage.Order `json:"order,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type orderStatusRequest struct {
	Status storage.OrderStatus `json:"status"`
}

type itemStatusRequest struct {
	ItemStatus storage.ItemStatus `json:"item_status"`
}

// UpdateOrderStatus sets the order status directly. Completing an order
// cascades: every item goes to DONE and all open assignments are closed.
func UpdateOrderStatus(log *slog.Logger, store OrderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.status.UpdateOrderStatus"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var req orderStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if !storage.ValidOrderStatus(req.Status) {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := store.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get order", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := time.Now().UTC()
		if req.Status == storage.OrderDone && order.Status != storage.OrderDone {
			workflow.CompleteOrder(order, now)
		}
		order.Status = req.Status
		order.UpdatedAt = now

		if err := store.UpdateOrder(ctx, order); err != nil {
			log.Error("failed to update order status", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to update order status"})
			return
		}

		render.JSON(w, r, Response{Success: true, Order: order})
	}
}

// UpdateItemStatus moves one item to a new stage and lets the workflow
// engine rewrite the assignment records. The authenticated employee is
// recorded as the actor.
func UpdateItemStatus(log *slog.Logger, store OrderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.status.UpdateItemStatus"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		itemID := chi.URLParam(r, "itemID")

		var req itemStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if !storage.ValidItemStatus(req.ItemStatus) {
			http.Error(w, "invalid item status", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := store.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get order", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := time.Now().UTC()
		actor := auth.EmployeeID(ctx)
		if err := workflow.TransitionItem(order, itemID, req.ItemStatus, actor, now); err != nil {
			if errors.Is(err, storage.ErrItemNotFound) {
				http.Error(w, "item not found", http.StatusNotFound)
				return
			}
			log.Error("failed to transition item", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		order.UpdatedAt = now

		if err := store.UpdateOrder(ctx, order); err != nil {
			log.Error("failed to persist item transition", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to update item status"})
			return
		}

		render.JSON(w, r, Response{Success: true, Order: order})
	}
}
