package stock

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza atomicidad para el motor de stock: si fn devuelve error
// no queda visible ningún cambio (cabecera, líneas ni stock).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.InventoryItemRepository,
		txRepo repository.TransactionRepository,
	) error) error
}
