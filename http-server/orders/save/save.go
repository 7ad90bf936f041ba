package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"printshop-backend/internal/service/workflow"
	"printshop-backend/internal/storage"
)

type OrderSaver interface {
	CreateOrder(ctx context.Context, o *storage.Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (*storage.Order, error)
	GetProduct(ctx context.Context, id int64) (*storage.Product, error)
}

type Response struct {
	Success bool           `json:"success"`
	Order   *storage.Order `json:"order,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// SaveOrder creates an order aggregate. Item ids are minted here, product
// snapshots are copied from the catalog, and the order status is derived
// from the item statuses.
func SaveOrder(log *slog.Logger, saver OrderSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.save.SaveOrder"

		var req storage.Order
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("invalid request body", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if msg := validate(&req); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		now := time.Now().UTC()
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
			if err := snapshotProduct(ctx, saver, it); err != nil {
				if errors.Is(err, storage.ErrProductNotFound) {
					http.Error(w, "unknown product", http.StatusBadRequest)
					return
				}
				log.Error("product lookup failed", slog.String("op", op), slog.String("error", err.Error()))
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
		}

		req.Status = workflow.DeriveOrderStatus(req.Items)
		req.CreatedAt = now
		req.UpdatedAt = now

		id, err := saver.CreateOrder(ctx, &req)
		if err != nil {
			log.Error("failed to create order", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to create order"})
			return
		}

		created, err := saver.GetOrder(ctx, id)
		if err != nil {
			log.Error("failed to load created order", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to load created order"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Success: true, Order: created})
	}
}

func validate(o *storage.Order) string {
	if o.Customer == 0 {
		return "customer is required"
	}
	if o.Priority == "" {
		o.Priority = storage.PriorityNormal
	}
	if !storage.ValidPriority(o.Priority) {
		return "invalid priority"
	}
	if o.ReceivedThrough != "" && !storage.ValidReceivedThrough(o.ReceivedThrough) {
		return "invalid received_through"
	}
	for i := range o.Items {
		it := &o.Items[i]
		if it.ItemStatus != "" && !storage.ValidItemStatus(it.ItemStatus) {
			return "invalid item status"
		}
		for _, stage := range it.DisabledStages {
			if !storage.ValidItemStatus(stage) {
				return "invalid disabled stage"
			}
		}
	}
	return ""
}

// snapshotProduct copies catalog name, description and price into the item
// so later catalog edits don't rewrite history.
func snapshotProduct(ctx context.Context, saver OrderSaver, it *storage.OrderItem) error {
	if it.Product == nil {
		return nil
	}
	p, err := saver.GetProduct(ctx, *it.Product)
	if err != nil {
		return err
	}
	if it.ProductNameSnapshot == "" {
		it.ProductNameSnapshot = p.ProductName
	}
	if it.DescriptionSnapshot == "" {
		it.DescriptionSnapshot = p.Description
	}
	if it.PriceSnapshot == 0 {
		it.PriceSnapshot = p.Price
	}
	return nil
}
