package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// ApplyTransactionUseCase es el motor de aplicación de stock: registra movimientos
// multi-línea (in/out) de forma transaccional con bloqueo de fila (SELECT FOR UPDATE)
// y Commit/Rollback. Es el único punto de escritura sobre InventoryItem; ningún
// caller muta cantidades directamente.
type ApplyTransactionUseCase struct {
	txRunner           TxRunner
	productRepo        repository.ProductRepository
	warehouseRepo      repository.WarehouseRepository
	defaultWarehouseID string
}

// NewApplyTransactionUseCase construye el motor. defaultWarehouseID se usa cuando
// una línea no indica bodega.
func NewApplyTransactionUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	defaultWarehouseID string,
) *ApplyTransactionUseCase {
	return &ApplyTransactionUseCase{
		txRunner:           txRunner,
		productRepo:        productRepo,
		warehouseRepo:      warehouseRepo,
		defaultWarehouseID: defaultWarehouseID,
	}
}

// TransactionInput entrada para aplicar una transacción de stock.
type TransactionInput struct {
	Type      string // in, out
	Reference string
	Source    string
	Notes     string
	CreatedBy string
	Items     []LineItemInput
}

// LineItemInput una línea del movimiento. Quantity es la magnitud (> 0).
type LineItemInput struct {
	ProductID      string
	WarehouseID    string // vacío = bodega por defecto
	Location       string
	Quantity       int64
	ProductionDate *time.Time
	ExpiryDate     *time.Time
}

// Apply ejecuta el algoritmo todo-o-nada:
//
//  1. Valida la entrada y resuelve productos/bodegas antes de tomar ningún bloqueo.
//  2. Abre una transacción, crea la cabecera (invisible hasta el commit).
//  3. Por cada línea en orden: bloquea la fila de InventoryItem, calcula la nueva
//     cantidad, rechaza si quedaría negativa, reclasifica el status y deja en la tx
//     el upsert del stock y la línea del libro.
//  4. Commit: cabecera, líneas y stock quedan visibles juntos.
//  5. Cualquier fallo descarta todo; nunca hay aplicación parcial aunque líneas
//     anteriores de la misma petición hubieran podido aplicarse.
func (uc *ApplyTransactionUseCase) Apply(ctx context.Context, input TransactionInput) (*dto.TransactionDTO, error) {
	if err := uc.validate(input); err != nil {
		return nil, err
	}

	// Productos y bodegas se validan fuera de la tx: son de solo lectura para el motor.
	products, err := uc.resolveProducts(input.Items)
	if err != nil {
		return nil, err
	}
	if err := uc.resolveWarehouses(input.Items); err != nil {
		return nil, err
	}

	now := time.Now()
	header := &entity.Transaction{
		ID:         uuid.New().String(),
		DocumentID: newDocumentID(now),
		Type:       input.Type,
		Reference:  input.Reference,
		Source:     input.Source,
		Notes:      input.Notes,
		CreatedBy:  input.CreatedBy,
		CreatedAt:  now,
	}

	result := &dto.TransactionDTO{
		TransactionID: header.ID,
		DocumentID:    header.DocumentID,
		Type:          header.Type,
		Reference:     header.Reference,
		Source:        header.Source,
		Notes:         header.Notes,
		CreatedBy:     header.CreatedBy,
		CreatedAt:     now,
	}

	run := func() error {
		return uc.txRunner.Run(ctx, func(
			itemRepo repository.InventoryItemRepository,
			txRepo repository.TransactionRepository,
		) error {
			if err := txRepo.Create(ctx, header); err != nil {
				return err
			}
			for _, line := range input.Items {
				warehouseID := line.WarehouseID
				if warehouseID == "" {
					warehouseID = uc.defaultWarehouseID
				}
				committed, err := uc.applyLine(ctx, itemRepo, txRepo, header, products[line.ProductID], warehouseID, line, now)
				if err != nil {
					return err
				}
				result.Items = append(result.Items, *committed)
			}
			return nil
		})
	}

	err = run()
	if errors.Is(err, domain.ErrDuplicate) {
		// Colisión del consecutivo generado: nada quedó escrito (rollback total),
		// se regenera el documento y se reintenta una sola vez.
		header.DocumentID = newDocumentID(now)
		result.DocumentID = header.DocumentID
		result.Items = nil
		log.Warn().Str("document_id", header.DocumentID).
			Msg("document_id en colisión, reintentando con uno nuevo")
		err = run()
	}
	if err != nil {
		log.Debug().Err(err).Str("type", input.Type).Int("lines", len(input.Items)).
			Msg("transacción de stock abortada")
		return nil, err
	}

	log.Info().Str("transaction_id", header.ID).Str("document_id", header.DocumentID).
		Str("type", header.Type).Int("lines", len(result.Items)).
		Msg("transacción de stock confirmada")
	return result, nil
}

// applyLine aplica una línea dentro de la tx: bloqueo, delta, invariante >= 0, status.
func (uc *ApplyTransactionUseCase) applyLine(
	ctx context.Context,
	itemRepo repository.InventoryItemRepository,
	txRepo repository.TransactionRepository,
	header *entity.Transaction,
	product *entity.Product,
	warehouseID string,
	line LineItemInput,
	now time.Time,
) (*dto.TransactionItemDTO, error) {
	// Bloquea la fila (SELECT FOR UPDATE); nil = la ubicación nunca tuvo stock.
	item, err := itemRepo.GetForUpdate(ctx, line.ProductID, warehouseID, line.Location)
	if err != nil {
		return nil, err
	}
	if item == nil {
		if header.Type == entity.TransactionTypeOut {
			return nil, &domain.StockNotFoundError{ProductID: line.ProductID, Location: line.Location}
		}
		// Primera entrada a esta ubicación: la fila se crea con la cantidad de la línea.
		item = &entity.InventoryItem{
			ProductID:   line.ProductID,
			WarehouseID: warehouseID,
			Location:    line.Location,
			Quantity:    0,
		}
	}

	delta := line.Quantity
	if header.Type == entity.TransactionTypeOut {
		delta = -delta
	}
	newQuantity := item.Quantity + delta
	if newQuantity < 0 {
		return nil, &domain.InsufficientStockError{
			ProductID: line.ProductID,
			Location:  line.Location,
			Available: item.Quantity,
			Requested: line.Quantity,
		}
	}

	item.Quantity = newQuantity
	item.Status = inventory.ClassifyStatus(newQuantity, product.MinQuantity)
	item.UpdatedAt = now
	if err := itemRepo.Upsert(ctx, item); err != nil {
		return nil, err
	}

	txItem := &entity.TransactionItem{
		ID:             uuid.New().String(),
		TransactionID:  header.ID,
		ProductID:      line.ProductID,
		WarehouseID:    warehouseID,
		Location:       line.Location,
		Quantity:       line.Quantity,
		ProductionDate: line.ProductionDate,
		ExpiryDate:     line.ExpiryDate,
		CreatedAt:      now,
	}
	if err := txRepo.CreateItem(ctx, txItem); err != nil {
		return nil, err
	}

	return &dto.TransactionItemDTO{
		ProductID:   line.ProductID,
		WarehouseID: warehouseID,
		Location:    line.Location,
		Quantity:    line.Quantity,
		NewQuantity: newQuantity,
		NewStatus:   item.Status,
	}, nil
}

// validate rechaza la petición antes de tomar ningún bloqueo.
func (uc *ApplyTransactionUseCase) validate(input TransactionInput) error {
	if input.Type != entity.TransactionTypeIn && input.Type != entity.TransactionTypeOut {
		return domain.ErrInvalidInput
	}
	if len(input.Items) == 0 {
		return domain.ErrInvalidInput
	}
	for _, line := range input.Items {
		if line.ProductID == "" || line.Location == "" {
			return domain.ErrInvalidInput
		}
		if line.Quantity <= 0 {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

// resolveProducts carga cada producto referenciado una sola vez.
func (uc *ApplyTransactionUseCase) resolveProducts(items []LineItemInput) (map[string]*entity.Product, error) {
	products := make(map[string]*entity.Product, len(items))
	for _, line := range items {
		if _, ok := products[line.ProductID]; ok {
			continue
		}
		product, err := uc.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, &domain.StockNotFoundError{ProductID: line.ProductID}
		}
		products[line.ProductID] = product
	}
	return products, nil
}

// resolveWarehouses verifica que cada bodega referenciada exista.
func (uc *ApplyTransactionUseCase) resolveWarehouses(items []LineItemInput) error {
	seen := make(map[string]bool, 1)
	for _, line := range items {
		warehouseID := line.WarehouseID
		if warehouseID == "" {
			warehouseID = uc.defaultWarehouseID
		}
		if seen[warehouseID] {
			continue
		}
		wh, err := uc.warehouseRepo.GetByID(warehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.ErrNotFound
		}
		seen[warehouseID] = true
	}
	return nil
}

// newDocumentID genera el consecutivo legible de la transacción (no es clave de
// idempotencia: cada llamada a Apply es un evento lógico nuevo).
func newDocumentID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("DOC-%s-%s", now.Format("20060102"), suffix)
}
