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

type ProductUpdater interface {
	GetProduct(ctx context.Context, id int64) (*storage.Product, error)
	UpdateProduct(ctx context.Context, p *storage.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type Request struct {
	Type        *string  `json:"type"`
	ProductName *string  `json:"product_name"`
	ProductCode *string  `json:"product_code"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

type Response struct {
	Success bool             `json:"success"`
	Product *storage.Product `json:"product,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// UpdateProduct edits the catalog row only; price snapshots inside existing
// orders are not touched.
func UpdateProduct(log *slog.Logger, updater ProductUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.update.UpdateProduct"

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
		if req.Price != nil && *req.Price < 0 {
			http.Error(w, "price must not be negative", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		product, err := updater.GetProduct(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				http.Error(w, "product not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get product", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if req.Type != nil {
			product.Type = *req.Type
		}
		if req.ProductName != nil {
			product.ProductName = *req.ProductName
		}
		if req.ProductCode != nil {
			product.ProductCode = *req.ProductCode
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.Price != nil {
			product.Price = *req.Price
		}
		product.UpdatedAt = time.Now().UTC()

		if err := updater.UpdateProduct(ctx, product); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, Response{Error: "product code already in use"})
				return
			}
			log.Error("failed to update product", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to update product"})
			return
		}

		render.JSON(w, r, Response{Success: true, Product: product})
	}
}

func DeleteProduct(log *slog.Logger, updater ProductUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.update.DeleteProduct"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := updater.DeleteProduct(ctx, id); err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				http.Error(w, "product not found", http.StatusNotFound)
				return
			}
			log.Error("failed to delete product", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Response{Success: true})
	}
}
