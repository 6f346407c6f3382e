package entity

import "time"

// Estados de stock de un InventoryItem. Proyección denormalizada de
// Quantity contra Product.MinQuantity, recalculada en cada mutación
// para que dashboards y alertas puedan filtrar por status sin recalcular.
const (
	StockStatusNormal     = "normal"
	StockStatusLow        = "low"
	StockStatusOutOfStock = "out_of_stock"
)

// InventoryItem es el registro mutable de stock actual.
// Clave única: (ProductID, WarehouseID, Location). Invariante: Quantity >= 0 siempre.
// Se crea en la primera entrada a una ubicación; solo lo muta el motor de transacciones.
type InventoryItem struct {
	ProductID   string
	WarehouseID string
	Location    string
	Quantity    int64
	Status      string // normal, low, out_of_stock
	UpdatedAt   time.Time
}
