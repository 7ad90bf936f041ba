package storage

import "time"

type Product struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type,omitempty"`
	ProductName string    `json:"product_name"`
	ProductCode string    `json:"product_code"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
