package repository

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// TransactionRepository define el puerto del libro de movimientos (append-only).
// No existen operaciones de update ni delete: una transacción confirmada es inmutable.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	CreateItem(ctx context.Context, item *entity.TransactionItem) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// ListRecent devuelve las últimas transacciones (createdAt desc) con sus líneas cargadas.
	ListRecent(ctx context.Context, limit int) ([]*entity.Transaction, error)
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Transaction, error)
}
