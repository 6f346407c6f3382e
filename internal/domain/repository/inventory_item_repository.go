package repository

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// InventoryItemRepository define el puerto para el registro de stock actual,
// con clave (productID, warehouseID, location). La ausencia de fila no es error:
// Get y GetForUpdate devuelven (nil, nil) si la ubicación nunca tuvo stock.
type InventoryItemRepository interface {
	Get(ctx context.Context, productID, warehouseID, location string) (*entity.InventoryItem, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para serializar escritores
	// concurrentes sobre la misma clave. Solo se llama dentro de una transacción.
	GetForUpdate(ctx context.Context, productID, warehouseID, location string) (*entity.InventoryItem, error)
	Upsert(ctx context.Context, item *entity.InventoryItem) error
	ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryItem, error)
	// ListByStatus lista filas cuyo status esté en statuses (para alertas de stock
	// bajo), con los datos del producto ya unidos en una sola consulta.
	ListByStatus(ctx context.Context, statuses []string, limit, offset int) ([]*LowStockRow, error)
}

// LowStockRow fila del listado de alertas: el item de stock más los campos del
// producto que el listado muestra (sin vuelta extra por producto).
type LowStockRow struct {
	Item        entity.InventoryItem
	SKU         string
	Name        string
	MinQuantity int64
}
