package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	MinQuantity int64           `json:"min_quantity"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Barcode     string          `json:"barcode,omitempty"`
	Supplier    string          `json:"supplier,omitempty"`
}

// ProductResponse representación de un producto en respuestas.
type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	MinQuantity int64           `json:"min_quantity"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Barcode     string          `json:"barcode,omitempty"`
	Supplier    string          `json:"supplier,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateWarehouseRequest body para POST /api/warehouses.
type CreateWarehouseRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}
