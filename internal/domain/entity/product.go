package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo.
// Identidad inmutable una vez creado (ID y SKU); el stock por ubicación vive en InventoryItem.
// MinQuantity es el umbral de stock bajo usado por el clasificador de estado.
type Product struct {
	ID          string
	SKU         string // código único
	Name        string
	Category    string
	MinQuantity int64           // umbral de alerta, >= 0
	Price       decimal.Decimal // precio de venta (metadato)
	Cost        decimal.Decimal // costo unitario (metadato)
	Barcode     string
	Supplier    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
