package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"printshop-backend/internal/storage"
)

type ProductSaver interface {
	CreateProduct(ctx context.Context, p *storage.Product) (int64, error)
}

type Request struct {
	Type        string  `json:"type"`
	ProductName string  `json:"product_name"`
	ProductCode string  `json:"product_code"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type Response struct {
	Success bool             `json:"success"`
	Product *storage.Product `json:"product,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func SaveProduct(log *slog.Logger, saver ProductSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.save.SaveProduct"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.ProductName == "" || req.ProductCode == "" {
			http.Error(w, "product_name and product_code are required", http.StatusBadRequest)
			return
		}
		if req.Price < 0 {
			http.Error(w, "price must not be negative", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		now := time.Now().UTC()
		product := &storage.Product{
			Type:        req.Type,
			ProductName: req.ProductName,
			ProductCode: req.ProductCode,
			Description: req.Description,
			Price:       req.Price,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		id, err := saver.CreateProduct(ctx, product)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, Response{Error: "product code already in use"})
				return
			}
			log.Error("failed to create product", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to create product"})
			return
		}
		product.ID = id

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Success: true, Product: product})
	}
}
