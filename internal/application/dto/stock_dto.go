package dto

import "time"

// ApplyTransactionRequest body para POST /api/stock/transactions.
// Type es "in" o "out"; Items no puede estar vacío. WarehouseID vacío usa la
// bodega por defecto.
type ApplyTransactionRequest struct {
	Type      string            `json:"type"`
	Reference string            `json:"reference,omitempty"`
	Source    string            `json:"source,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Items     []LineItemRequest `json:"items"`
}

// LineItemRequest una línea del movimiento. Quantity es la magnitud (> 0);
// el signo lo da el Type de la cabecera.
type LineItemRequest struct {
	ProductID      string     `json:"product_id"`
	WarehouseID    string     `json:"warehouse_id,omitempty"`
	Location       string     `json:"location"`
	Quantity       int64      `json:"quantity"`
	ProductionDate *time.Time `json:"production_date,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
}

// TransactionDTO respuesta de una transacción confirmada.
type TransactionDTO struct {
	TransactionID string               `json:"transaction_id"`
	DocumentID    string               `json:"document_id"`
	Type          string               `json:"type"`
	Reference     string               `json:"reference,omitempty"`
	Source        string               `json:"source,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	CreatedBy     string               `json:"created_by,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	Items         []TransactionItemDTO `json:"items"`
}

// TransactionItemDTO línea confirmada con el estado de stock resultante.
type TransactionItemDTO struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Location    string `json:"location"`
	Quantity    int64  `json:"quantity"`
	NewQuantity int64  `json:"new_quantity"`
	NewStatus   string `json:"new_status"`
}

// LocationStockDTO stock de un producto en una ubicación concreta.
type LocationStockDTO struct {
	WarehouseID string    `json:"warehouse_id"`
	Location    string    `json:"location"`
	Quantity    int64     `json:"quantity"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InventorySnapshotDTO vista agregada del stock de un producto para display.
type InventorySnapshotDTO struct {
	ProductID     string             `json:"product_id"`
	SKU           string             `json:"sku"`
	Name          string             `json:"name"`
	MinQuantity   int64              `json:"min_quantity"`
	TotalQuantity int64              `json:"total_quantity"`
	Status        string             `json:"status"`
	Locations     []LocationStockDTO `json:"locations"`
}

// LowStockItemDTO fila de la lista de alertas de stock bajo.
type LowStockItemDTO struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	WarehouseID string `json:"warehouse_id"`
	Location    string `json:"location"`
	Quantity    int64  `json:"quantity"`
	MinQuantity int64  `json:"min_quantity"`
	Status      string `json:"status"`
}

// ActivityDTO entrada del feed de actividad reciente.
type ActivityDTO struct {
	TransactionID string    `json:"transaction_id"`
	DocumentID    string    `json:"document_id"`
	Type          string    `json:"type"`
	Summary       string    `json:"summary"`
	CreatedAt     time.Time `json:"created_at"`
}
