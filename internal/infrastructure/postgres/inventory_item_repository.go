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

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

// InventoryItemRepo implementación de InventoryItemRepository sobre PostgreSQL
// (usable con pool o tx). La clave de la tabla es (product_id, warehouse_id, location).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

const inventoryItemColumns = "product_id, warehouse_id, location, quantity, status, updated_at"

// Get obtiene la fila de stock de una clave. (nil, nil) si la ubicación nunca tuvo stock.
func (r *InventoryItemRepo) Get(ctx context.Context, productID, warehouseID, location string) (*entity.InventoryItem, error) {
	query := `
		SELECT ` + inventoryItemColumns + `
		FROM inventory_items
		WHERE product_id = $1 AND warehouse_id = $2 AND location = $3`
	return r.scanOne(ctx, query, productID, warehouseID, location)
}

// GetForUpdate obtiene la fila y la bloquea (SELECT FOR UPDATE) para serializar
// escritores concurrentes sobre la misma clave. (nil, nil) si no existe; en ese
// caso el motor decide crear o abortar según el tipo.
//
// Cuando la fila aún no existe, FOR UPDATE no bloquea nada y dos creadores
// concurrentes de la misma clave se pisarían el upsert (el segundo sobrescribe
// con su cantidad absoluta calculada sobre nil). Para serializar también la
// creación se toma un advisory lock transaccional sobre el hash de la clave y
// se relee: si otro creador confirmó mientras esperábamos, la relectura ve su
// fila y la bloquea. El advisory lock se libera solo al terminar la tx.
//
// Si lock_timeout expira esperando cualquiera de los dos bloqueos devuelve
// domain.ErrLockTimeout.
func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, productID, warehouseID, location string) (*entity.InventoryItem, error) {
	item, err := r.lockRow(ctx, productID, warehouseID, location)
	if err != nil || item != nil {
		return item, err
	}
	lockQuery := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := r.q.Exec(ctx, lockQuery, productID+"|"+warehouseID+"|"+location); err != nil {
		if isLockNotAvailable(err) || errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrLockTimeout
		}
		return nil, fmt.Errorf("advisory lock inventory key: %w", err)
	}
	return r.lockRow(ctx, productID, warehouseID, location)
}

func (r *InventoryItemRepo) lockRow(ctx context.Context, productID, warehouseID, location string) (*entity.InventoryItem, error) {
	query := `
		SELECT ` + inventoryItemColumns + `
		FROM inventory_items
		WHERE product_id = $1 AND warehouse_id = $2 AND location = $3
		FOR UPDATE`
	item, err := r.scanOne(ctx, query, productID, warehouseID, location)
	if err != nil {
		if isLockNotAvailable(err) || errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrLockTimeout
		}
		return nil, err
	}
	return item, nil
}

// Upsert inserta o actualiza cantidad y status de la clave. Solo lo llama el
// motor de stock dentro de su transacción. El CHECK quantity >= 0 de la tabla
// respalda la invariante que el motor ya verificó.
func (r *InventoryItemRepo) Upsert(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (product_id, warehouse_id, location, quantity, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, warehouse_id, location)
		DO UPDATE SET quantity = EXCLUDED.quantity, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		item.ProductID, item.WarehouseID, item.Location, item.Quantity, item.Status, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert inventory item: %w", err)
	}
	return nil
}

// ListByProduct lista las ubicaciones con stock registrado de un producto.
func (r *InventoryItemRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryItem, error) {
	query := `
		SELECT ` + inventoryItemColumns + `
		FROM inventory_items
		WHERE product_id = $1
		ORDER BY warehouse_id, location`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list inventory items by product: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListByStatus lista filas por status con el producto unido en la misma consulta
// (para alertas). Ordena peor estado primero.
func (r *InventoryItemRepo) ListByStatus(ctx context.Context, statuses []string, limit, offset int) ([]*repository.LowStockRow, error) {
	query := `
		SELECT i.product_id, i.warehouse_id, i.location, i.quantity, i.status, i.updated_at,
		       p.sku, p.name, p.min_quantity
		FROM inventory_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.status = ANY($1)
		ORDER BY i.quantity ASC, i.updated_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, statuses, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list inventory items by status: %w", err)
	}
	defer rows.Close()

	var list []*repository.LowStockRow
	for rows.Next() {
		var row repository.LowStockRow
		if err := rows.Scan(&row.Item.ProductID, &row.Item.WarehouseID, &row.Item.Location,
			&row.Item.Quantity, &row.Item.Status, &row.Item.UpdatedAt,
			&row.SKU, &row.Name, &row.MinQuantity); err != nil {
			return nil, fmt.Errorf("scan low stock row: %w", err)
		}
		list = append(list, &row)
	}
	return list, rows.Err()
}

func (r *InventoryItemRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&item.ProductID, &item.WarehouseID, &item.Location,
		&item.Quantity, &item.Status, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return &item, nil
}

func (r *InventoryItemRepo) scanAll(rows pgx.Rows) ([]*entity.InventoryItem, error) {
	var list []*entity.InventoryItem
	for rows.Next() {
		var item entity.InventoryItem
		if err := rows.Scan(&item.ProductID, &item.WarehouseID, &item.Location,
			&item.Quantity, &item.Status, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		list = append(list, &item)
	}
	return list, rows.Err()
}
