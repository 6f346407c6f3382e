package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación del libro de movimientos sobre PostgreSQL
// (usable con pool o tx). Solo inserta y lee; nunca actualiza ni borra.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create persiste la cabecera de una transacción.
func (r *TransactionRepo) Create(ctx context.Context, tx *entity.Transaction) error {
	query := `
		INSERT INTO transactions (id, document_id, type, reference, source, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	createdBy := (*string)(nil)
	if tx.CreatedBy != "" {
		createdBy = &tx.CreatedBy
	}
	_, err := r.q.Exec(ctx, query,
		tx.ID, tx.DocumentID, tx.Type, tx.Reference, tx.Source, tx.Notes, createdBy, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// CreateItem persiste una línea del libro.
func (r *TransactionRepo) CreateItem(ctx context.Context, item *entity.TransactionItem) error {
	query := `
		INSERT INTO transaction_items (id, transaction_id, product_id, warehouse_id, location, quantity, production_date, expiry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.TransactionID, item.ProductID, item.WarehouseID, item.Location,
		item.Quantity, item.ProductionDate, item.ExpiryDate, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction item: %w", err)
	}
	return nil
}

// GetByID obtiene una transacción con sus líneas. (nil, nil) si no existe.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	query := `
		SELECT id, document_id, type, reference, source, notes, created_by, created_at
		FROM transactions WHERE id = $1`
	tx, err := r.scanHeader(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if err := r.loadItems(ctx, []*entity.Transaction{tx}); err != nil {
		return nil, err
	}
	return tx, nil
}

// ListRecent lista las últimas transacciones (createdAt desc) con sus líneas.
func (r *TransactionRepo) ListRecent(ctx context.Context, limit int) ([]*entity.Transaction, error) {
	query := `
		SELECT id, document_id, type, reference, source, notes, created_by, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()

	list, err := r.scanHeaders(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListByProduct lista transacciones que incluyen líneas de un producto.
func (r *TransactionRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Transaction, error) {
	query := `
		SELECT DISTINCT t.id, t.document_id, t.type, t.reference, t.source, t.notes, t.created_by, t.created_at
		FROM transactions t
		JOIN transaction_items ti ON ti.transaction_id = t.id
		WHERE ti.product_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions by product: %w", err)
	}
	defer rows.Close()

	list, err := r.scanHeaders(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// loadItems carga las líneas de un lote de cabeceras en una sola consulta.
func (r *TransactionRepo) loadItems(ctx context.Context, txs []*entity.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Transaction, len(txs))
	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
		ids = append(ids, tx.ID)
	}

	query := `
		SELECT id, transaction_id, product_id, warehouse_id, location, quantity, production_date, expiry_date, created_at
		FROM transaction_items
		WHERE transaction_id = ANY($1)
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load transaction items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.TransactionItem
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.ProductID, &item.WarehouseID,
			&item.Location, &item.Quantity, &item.ProductionDate, &item.ExpiryDate, &item.CreatedAt); err != nil {
			return fmt.Errorf("scan transaction item: %w", err)
		}
		if tx, ok := byID[item.TransactionID]; ok {
			tx.Items = append(tx.Items, item)
		}
	}
	return rows.Err()
}

func (r *TransactionRepo) scanHeader(row pgx.Row) (*entity.Transaction, error) {
	var tx entity.Transaction
	var createdBy *string
	if err := row.Scan(&tx.ID, &tx.DocumentID, &tx.Type, &tx.Reference, &tx.Source,
		&tx.Notes, &createdBy, &tx.CreatedAt); err != nil {
		return nil, err
	}
	if createdBy != nil {
		tx.CreatedBy = *createdBy
	}
	return &tx, nil
}

func (r *TransactionRepo) scanHeaders(rows pgx.Rows) ([]*entity.Transaction, error) {
	var list []*entity.Transaction
	for rows.Next() {
		tx, err := r.scanHeader(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, tx)
	}
	return list, rows.Err()
}
