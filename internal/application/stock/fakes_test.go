package stock_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria detrás de los puertos del motor. El TxRunner fake replica la
// semántica transaccional real: fn trabaja sobre una copia del stock y el commit
// publica todo junto; un error descarta la copia (rollback), así los tests pueden
// verificar que nunca queda aplicación parcial.
// ──────────────────────────────────────────────────────────────────────────────

func itemKey(productID, warehouseID, location string) string {
	return productID + "|" + warehouseID + "|" + location
}

type memStore struct {
	mu           sync.Mutex
	products     map[string]*entity.Product
	warehouses   map[string]*entity.Warehouse
	items        map[string]*entity.InventoryItem
	transactions []*entity.Transaction

	// failNextCreate hace fallar una sola vez el Create de cabecera dentro de la
	// siguiente unidad de trabajo (simula p. ej. una colisión de document_id).
	failNextCreate error
}

func newMemStore() *memStore {
	return &memStore{
		products:   make(map[string]*entity.Product),
		warehouses: make(map[string]*entity.Warehouse),
		items:      make(map[string]*entity.InventoryItem),
	}
}

func (s *memStore) addProduct(p *entity.Product) { s.products[p.ID] = p }

func (s *memStore) addWarehouse(id string) {
	s.warehouses[id] = &entity.Warehouse{ID: id, Name: id}
}

// seedItem siembra stock confirmado directamente (estado inicial de un test).
func (s *memStore) seedItem(item *entity.InventoryItem) {
	s.items[itemKey(item.ProductID, item.WarehouseID, item.Location)] = item
}

func (s *memStore) getItem(productID, warehouseID, location string) *entity.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemKey(productID, warehouseID, location)]
	if !ok {
		return nil
	}
	copied := *item
	return &copied
}

// netQuantity calcula la suma neta firmada del libro para una clave.
func (s *memStore) netQuantity(productID, warehouseID, location string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var net int64
	for _, tx := range s.transactions {
		for _, item := range tx.Items {
			if item.ProductID != productID || item.WarehouseID != warehouseID || item.Location != location {
				continue
			}
			if tx.Type == entity.TransactionTypeOut {
				net -= item.Quantity
			} else {
				net += item.Quantity
			}
		}
	}
	return net
}

func (s *memStore) transactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

// ── Repos de solo lectura (productos y bodegas, fuera de la tx) ───────────────

type memProductRepo struct{ store *memStore }

var _ repository.ProductRepository = (*memProductRepo)(nil)

func (r *memProductRepo) Create(p *entity.Product) error { r.store.products[p.ID] = p; return nil }
func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.store.products[id], nil
}
func (r *memProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	for _, p := range r.store.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}
func (r *memProductRepo) Update(p *entity.Product) error { r.store.products[p.ID] = p; return nil }
func (r *memProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	var list []*entity.Product
	for _, p := range r.store.products {
		list = append(list, p)
	}
	return list, nil
}

type memWarehouseRepo struct{ store *memStore }

var _ repository.WarehouseRepository = (*memWarehouseRepo)(nil)

func (r *memWarehouseRepo) Create(w *entity.Warehouse) error {
	r.store.warehouses[w.ID] = w
	return nil
}
func (r *memWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	return r.store.warehouses[id], nil
}
func (r *memWarehouseRepo) List() ([]*entity.Warehouse, error) {
	var list []*entity.Warehouse
	for _, w := range r.store.warehouses {
		list = append(list, w)
	}
	return list, nil
}

// ── Etapa transaccional ───────────────────────────────────────────────────────

// txStage es la vista de trabajo dentro de una tx: copia del stock + buffers del libro.
type txStage struct {
	items     map[string]*entity.InventoryItem
	txs       []*entity.Transaction
	createErr error
}

type stagedItemRepo struct{ stage *txStage }

var _ repository.InventoryItemRepository = (*stagedItemRepo)(nil)

func (r *stagedItemRepo) Get(_ context.Context, productID, warehouseID, location string) (*entity.InventoryItem, error) {
	item, ok := r.stage.items[itemKey(productID, warehouseID, location)]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (r *stagedItemRepo) GetForUpdate(ctx context.Context, productID, warehouseID, location string) (*entity.InventoryItem, error) {
	// El runner serializa con su mutex; aquí basta con leer la copia de trabajo.
	return r.Get(ctx, productID, warehouseID, location)
}

func (r *stagedItemRepo) Upsert(_ context.Context, item *entity.InventoryItem) error {
	copied := *item
	r.stage.items[itemKey(item.ProductID, item.WarehouseID, item.Location)] = &copied
	return nil
}

func (r *stagedItemRepo) ListByProduct(_ context.Context, productID string) ([]*entity.InventoryItem, error) {
	return listItems(r.stage.items, func(i *entity.InventoryItem) bool { return i.ProductID == productID }), nil
}

func (r *stagedItemRepo) ListByStatus(context.Context, []string, int, int) ([]*repository.LowStockRow, error) {
	return nil, nil // el motor nunca lista alertas dentro de la tx
}

func listItems(items map[string]*entity.InventoryItem, match func(*entity.InventoryItem) bool) []*entity.InventoryItem {
	var list []*entity.InventoryItem
	for _, item := range items {
		if match(item) {
			copied := *item
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(a, b int) bool {
		return itemKey(list[a].ProductID, list[a].WarehouseID, list[a].Location) <
			itemKey(list[b].ProductID, list[b].WarehouseID, list[b].Location)
	})
	return list
}

type stagedTxRepo struct{ stage *txStage }

var _ repository.TransactionRepository = (*stagedTxRepo)(nil)

func (r *stagedTxRepo) Create(_ context.Context, tx *entity.Transaction) error {
	if err := r.stage.createErr; err != nil {
		r.stage.createErr = nil
		return err
	}
	copied := *tx
	copied.Items = nil
	r.stage.txs = append(r.stage.txs, &copied)
	return nil
}

func (r *stagedTxRepo) CreateItem(_ context.Context, item *entity.TransactionItem) error {
	for _, tx := range r.stage.txs {
		if tx.ID == item.TransactionID {
			tx.Items = append(tx.Items, *item)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *stagedTxRepo) GetByID(context.Context, string) (*entity.Transaction, error) {
	return nil, nil
}
func (r *stagedTxRepo) ListRecent(context.Context, int) ([]*entity.Transaction, error) {
	return nil, nil
}
func (r *stagedTxRepo) ListByProduct(context.Context, string, int, int) ([]*entity.Transaction, error) {
	return nil, nil
}

// ── TxRunner fake ─────────────────────────────────────────────────────────────

type memTxRunner struct{ store *memStore }

func (r *memTxRunner) Run(_ context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	txRepo repository.TransactionRepository,
) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stage := &txStage{
		items:     make(map[string]*entity.InventoryItem, len(r.store.items)),
		createErr: r.store.failNextCreate,
	}
	r.store.failNextCreate = nil
	for k, v := range r.store.items {
		copied := *v
		stage.items[k] = &copied
	}

	if err := fn(&stagedItemRepo{stage: stage}, &stagedTxRepo{stage: stage}); err != nil {
		// Rollback: la copia de trabajo se descarta completa.
		return err
	}

	// Commit: stock y libro quedan visibles juntos.
	r.store.items = stage.items
	r.store.transactions = append(r.store.transactions, stage.txs...)
	return nil
}

// alwaysDuplicateRunner simula un consecutivo que colisiona en todos los intentos.
type alwaysDuplicateRunner struct{}

func (r *alwaysDuplicateRunner) Run(context.Context, func(
	itemRepo repository.InventoryItemRepository,
	txRepo repository.TransactionRepository,
) error) error {
	return domain.ErrDuplicate
}

// ── Repos confirmados (vistas de lectura, fuera de toda tx) ───────────────────

type committedItemRepo struct{ store *memStore }

var _ repository.InventoryItemRepository = (*committedItemRepo)(nil)

func (r *committedItemRepo) Get(ctx context.Context, productID, warehouseID, location string) (*entity.InventoryItem, error) {
	return r.store.getItem(productID, warehouseID, location), nil
}
func (r *committedItemRepo) GetForUpdate(ctx context.Context, productID, warehouseID, location string) (*entity.InventoryItem, error) {
	return r.Get(ctx, productID, warehouseID, location)
}
func (r *committedItemRepo) Upsert(_ context.Context, item *entity.InventoryItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *item
	r.store.items[itemKey(item.ProductID, item.WarehouseID, item.Location)] = &copied
	return nil
}
func (r *committedItemRepo) ListByProduct(_ context.Context, productID string) ([]*entity.InventoryItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return listItems(r.store.items, func(i *entity.InventoryItem) bool { return i.ProductID == productID }), nil
}
func (r *committedItemRepo) ListByStatus(_ context.Context, statuses []string, limit, offset int) ([]*repository.LowStockRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	match := func(i *entity.InventoryItem) bool {
		for _, s := range statuses {
			if i.Status == s {
				return true
			}
		}
		return false
	}
	var rows []*repository.LowStockRow
	for _, item := range listItems(r.store.items, match) {
		row := &repository.LowStockRow{Item: *item}
		if p := r.store.products[item.ProductID]; p != nil {
			row.SKU = p.SKU
			row.Name = p.Name
			row.MinQuantity = p.MinQuantity
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type committedTxRepo struct{ store *memStore }

var _ repository.TransactionRepository = (*committedTxRepo)(nil)

func (r *committedTxRepo) Create(context.Context, *entity.Transaction) error {
	return domain.ErrForbidden // el libro confirmado solo se escribe vía TxRunner
}
func (r *committedTxRepo) CreateItem(context.Context, *entity.TransactionItem) error {
	return domain.ErrForbidden
}
func (r *committedTxRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, tx := range r.store.transactions {
		if tx.ID == id {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, nil
}
func (r *committedTxRepo) ListRecent(_ context.Context, limit int) ([]*entity.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	list := make([]*entity.Transaction, len(r.store.transactions))
	copy(list, r.store.transactions)
	sort.Slice(list, func(a, b int) bool { return list[a].CreatedAt.After(list[b].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
func (r *committedTxRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var list []*entity.Transaction
	for _, tx := range r.store.transactions {
		for _, item := range tx.Items {
			if item.ProductID == productID {
				list = append(list, tx)
				break
			}
		}
	}
	return list, nil
}

// testProduct produce un producto de catálogo mínimo.
func testProduct(id, sku string, minQuantity int64) *entity.Product {
	now := time.Now()
	return &entity.Product{
		ID:          id,
		SKU:         sku,
		Name:        "Producto " + sku,
		MinQuantity: minQuantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
