package stock

import (
	"context"
	"fmt"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

const defaultActivityLimit = 20

// QueryUseCase vistas de solo lectura sobre el stock y el libro de movimientos
// (totales, alertas de stock bajo, actividad reciente). Sus repositorios van
// atados al pool, nunca a una tx: las lecturas no toman el bloqueo por fila del
// motor y ven solo el último snapshot confirmado.
type QueryUseCase struct {
	itemRepo    repository.InventoryItemRepository
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
}

// NewQueryUseCase construye las vistas de lectura.
func NewQueryUseCase(
	itemRepo repository.InventoryItemRepository,
	productRepo repository.ProductRepository,
	txRepo repository.TransactionRepository,
) *QueryUseCase {
	return &QueryUseCase{itemRepo: itemRepo, productRepo: productRepo, txRepo: txRepo}
}

// GetInventorySnapshot devuelve el total por producto con el detalle por ubicación.
// El status agregado se clasifica sobre el total contra MinQuantity del producto;
// cada ubicación conserva el status persistido por el motor.
func (uc *QueryUseCase) GetInventorySnapshot(ctx context.Context, productID string) (*dto.InventorySnapshotDTO, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.StockNotFoundError{ProductID: productID}
	}

	items, err := uc.itemRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	snapshot := &dto.InventorySnapshotDTO{
		ProductID:   product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		MinQuantity: product.MinQuantity,
	}
	for _, item := range items {
		snapshot.TotalQuantity += item.Quantity
		snapshot.Locations = append(snapshot.Locations, dto.LocationStockDTO{
			WarehouseID: item.WarehouseID,
			Location:    item.Location,
			Quantity:    item.Quantity,
			Status:      item.Status,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	snapshot.Status = inventory.ClassifyStatus(snapshot.TotalQuantity, product.MinQuantity)
	return snapshot, nil
}

// ListLowStock lista las filas con status low u out_of_stock para alertas.
// Filtra directamente por el status persistido; el repositorio trae el producto
// unido en la misma consulta, sin una vuelta por fila.
func (uc *QueryUseCase) ListLowStock(ctx context.Context, limit, offset int) ([]dto.LowStockItemDTO, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := uc.itemRepo.ListByStatus(ctx,
		[]string{entity.StockStatusLow, entity.StockStatusOutOfStock}, limit, offset)
	if err != nil {
		return nil, err
	}

	list := make([]dto.LowStockItemDTO, 0, len(rows))
	for _, row := range rows {
		list = append(list, dto.LowStockItemDTO{
			ProductID:   row.Item.ProductID,
			SKU:         row.SKU,
			Name:        row.Name,
			WarehouseID: row.Item.WarehouseID,
			Location:    row.Item.Location,
			Quantity:    row.Item.Quantity,
			MinQuantity: row.MinQuantity,
			Status:      row.Item.Status,
		})
	}
	return list, nil
}

// ListRecentTransactions devuelve las últimas N transacciones para el feed de
// actividad, con un resumen legible armado con la primera línea.
func (uc *QueryUseCase) ListRecentTransactions(ctx context.Context, limit int) ([]dto.ActivityDTO, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	txs, err := uc.txRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	feed := make([]dto.ActivityDTO, 0, len(txs))
	for _, tx := range txs {
		feed = append(feed, dto.ActivityDTO{
			TransactionID: tx.ID,
			DocumentID:    tx.DocumentID,
			Type:          tx.Type,
			Summary:       summarize(tx),
			CreatedAt:     tx.CreatedAt,
		})
	}
	return feed, nil
}

// GetTransaction devuelve una transacción confirmada con sus líneas.
func (uc *QueryUseCase) GetTransaction(ctx context.Context, id string) (*entity.Transaction, error) {
	tx, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.ErrNotFound
	}
	return tx, nil
}

// summarize arma el resumen del feed: primera línea + cuántas más hay.
func summarize(tx *entity.Transaction) string {
	if len(tx.Items) == 0 {
		return tx.DocumentID
	}
	first := tx.Items[0]
	verb := "entrada"
	if tx.Type == entity.TransactionTypeOut {
		verb = "salida"
	}
	summary := fmt.Sprintf("%s de %d en %s", verb, first.Quantity, first.Location)
	if extra := len(tx.Items) - 1; extra > 0 {
		summary = fmt.Sprintf("%s (+%d líneas)", summary, extra)
	}
	return summary
}
