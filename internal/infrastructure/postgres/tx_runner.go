package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Ensure TxRunner implements stock.TxRunner.
var _ stock.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED).
// LockTimeout acota la espera de los SELECT FOR UPDATE del motor: si se agota,
// PostgreSQL aborta la espera (55P03) y la unidad completa hace rollback limpio.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout string // intervalo de PostgreSQL, ej. "3s"
}

// NewTxRunner construye el runner con el pool. lockTimeoutMS <= 0 usa 3000ms.
func NewTxRunner(pool *pgxpool.Pool, lockTimeoutMS int) *TxRunner {
	if lockTimeoutMS <= 0 {
		lockTimeoutMS = 3000
	}
	return &TxRunner{pool: pool, lockTimeout: fmt.Sprintf("%dms", lockTimeoutMS)}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit
// o Rollback. El rollback diferido garantiza que un fallo en cualquier línea
// descarta cabecera, líneas y upserts de stock a la vez.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	txRepo repository.TransactionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET LOCAL aplica solo a esta transacción.
	if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = '"+r.lockTimeout+"'"); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	itemRepo := NewInventoryItemRepository(tx)
	txRepo := NewTransactionRepository(tx)

	if err := fn(itemRepo, txRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
