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
	"github.com/google/uuid"

	"printshop-backend/internal/service/workflow"
	"printshop-backend/internal/storage"
)

type OrderUpdater interface {
	GetOrder(ctx context.Context, id int64) (*storage.Order, error)
	UpdateOrder(ctx context.Context, o *storage.Order) error
	DeleteOrder(ctx context.Context, id int64) error
}

type Response struct {
	Success bool           `json:"success"`
	Order   *storage.Order `json:"order,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// UpdateRequest carries the editable order fields; items, when present,
// replace the stored ones. Assignment history of kept items survives the
// replacement because the whole aggregate is sent back.
type UpdateRequest struct {
	DueDate         *time.Time               `json:"due_date"`
	ReceivedThrough *storage.ReceivedThrough `json:"received_through"`
	Customer        *int64                   `json:"customer"`
	CustomerCompany *int64                   `json:"customer_company"`
	Priority        *storage.Priority        `json:"priority"`
	Description     *string                  `json:"description"`
	Items           []storage.OrderItem      `json:"items"`
}

func UpdateOrder(log *slog.Logger, updater OrderUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.update.UpdateOrder"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("invalid request body", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Priority != nil && !storage.ValidPriority(*req.Priority) {
			http.Error(w, "invalid priority", http.StatusBadRequest)
			return
		}
		if req.ReceivedThrough != nil && *req.ReceivedThrough != "" && !storage.ValidReceivedThrough(*req.ReceivedThrough) {
			http.Error(w, "invalid received_through", http.StatusBadRequest)
			return
		}
		for i := range req.Items {
			if req.Items[i].ItemStatus != "" && !storage.ValidItemStatus(req.Items[i].ItemStatus) {
				http.Error(w, "invalid item status", http.StatusBadRequest)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := updater.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get order", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		apply(order, &req)
		order.Status = workflow.DeriveOrderStatus(order.Items)
		order.UpdatedAt = time.Now().UTC()

		if err := updater.UpdateOrder(ctx, order); err != nil {
			log.Error("failed to update order", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to update order"})
			return
		}

		updated, err := updater.GetOrder(ctx, id)
		if err != nil {
			log.Error("failed to load updated order", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to load updated order"})
			return
		}

		render.JSON(w, r, Response{Success: true, Order: updated})
	}
}

func DeleteOrder(log *slog.Logger, updater OrderUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.update.DeleteOrder"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := updater.DeleteOrder(ctx, id); err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			log.Error("failed to delete order", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Response{Success: true})
	}
}

func apply(order *storage.Order, req *UpdateRequest) {
	if req.DueDate != nil {
		order.DueDate = req.DueDate
	}
	if req.ReceivedThrough != nil {
		order.ReceivedThrough = *req.ReceivedThrough
	}
	if req.Customer != nil && *req.Customer != 0 {
		order.Customer = *req.Customer
	}
	if req.CustomerCompany != nil {
		order.CustomerCompany = req.CustomerCompany
	}
	if req.Priority != nil {
		order.Priority = *req.Priority
	}
	if req.Description != nil {
		order.Description = *req.Description
	}
	if req.Items != nil {
		for i := range req.Items {
			it := &req.Items[i]
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			if it.Quantity <= 0 {
				it.Quantity = 1
			}
			if it.ItemStatus == "" {
				it.ItemStatus = storage.ItemToDo
			}
			// keep the assignment history of items that were already there
			if prev := order.Item(it.ID); prev != nil && it.Assignments == nil {
				it.Assignments = prev.Assignments
			}
		}
		order.Items = req.Items
	}
}
