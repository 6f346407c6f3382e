package stock_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

const (
	testProductID   = "00000000-0000-0000-0000-0000000000aa"
	testProductID2  = "00000000-0000-0000-0000-0000000000bb"
	testWarehouseID = "principal"
)

// buildEngine construye el motor contra el store en memoria.
func buildEngine(store *memStore) *stock.ApplyTransactionUseCase {
	return stock.NewApplyTransactionUseCase(
		&memTxRunner{store: store},
		&memProductRepo{store: store},
		&memWarehouseRepo{store: store},
		testWarehouseID,
	)
}

func seededStore(t *testing.T) *memStore {
	t.Helper()
	store := newMemStore()
	store.addWarehouse(testWarehouseID)
	store.addProduct(testProduct(testProductID, "SKU-001", 10))
	store.addProduct(testProduct(testProductID2, "SKU-002", 5))
	return store
}

func inLine(productID, location string, qty int64) stock.LineItemInput {
	return stock.LineItemInput{ProductID: productID, Location: location, Quantity: qty}
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas
// ──────────────────────────────────────────────────────────────────────────────

// Una entrada a una ubicación sin fila previa la crea con la cantidad de la línea.
func TestApply_EntradaCreaItemNuevo(t *testing.T) {
	store := seededStore(t)
	uc := buildEngine(store)

	result, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type:  entity.TransactionTypeIn,
		Items: []stock.LineItemInput{inLine(testProductID, "A-01", 50)},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	assert.NotEmpty(t, result.TransactionID)
	assert.NotEmpty(t, result.DocumentID)
	assert.Equal(t, int64(50), result.Items[0].NewQuantity)
	assert.Equal(t, entity.StockStatusNormal, result.Items[0].NewStatus)

	item := store.getItem(testProductID, testWarehouseID, "A-01")
	require.NotNil(t, item)
	assert.Equal(t, int64(50), item.Quantity)
	assert.Equal(t, entity.StockStatusNormal, item.Status)
	assert.Equal(t, 1, store.transactionCount())
}

// Una entrada que deja la cantidad en (0, minQuantity] clasifica low.
func TestApply_EntradaBajoUmbralClasificaLow(t *testing.T) {
	store := seededStore(t)
	uc := buildEngine(store)

	result, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type:  entity.TransactionTypeIn,
		Items: []stock.LineItemInput{inLine(testProductID, "A-01", 7)}, // minQuantity = 10
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StockStatusLow, result.Items[0].NewStatus)
}

// Una línea sin warehouse_id usa la bodega por defecto.
func TestApply_BodegaPorDefecto(t *testing.T) {
	store := seededStore(t)
	uc := buildEngine(store)

	result, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type:  entity.TransactionTypeIn,
		Items: []stock.LineItemInput{inLine(testProductID, "A-01", 5)},
	})
	require.NoError(t, err)
	assert.Equal(t, testWarehouseID, result.Items[0].WarehouseID)
	assert.NotNil(t, store.getItem(testProductID, testWarehouseID, "A-01"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Salidas
// ──────────────────────────────────────────────────────────────────────────────

// Una salida mayor al disponible falla con InsufficientStockError y no cambia nada.
func TestApply_SalidaInsuficiente(t *testing.T) {
	store := seededStore(t)
	store.seedItem(&entity.InventoryItem{
		ProductID: testProductID, WarehouseID: testWarehouseID, Location: "A-01",
		Quantity: 50, Status: entity.StockStatusNormal,
	})
	uc := buildEngine(store)

	_, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type:  entity.TransactionTypeOut,
		Items: []stock.LineItemInput{inLine(testProductID, "A-01", 60)},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(50), insufficient.Available)
	assert.Equal(t, int64(60), insufficient.Requested)
	assert.Equal(t, "A-01", insufficient.Location)

	// Rollback: la cantidad sigue intacta y el libro no registró nada.
	assert.Equal(t, int64(50), store.getItem(testProductID, testWarehouseID, "A-01").Quantity)
	assert.Equal(t, 0, store.transactionCount())
}

// Una salida por exactamente el disponible deja la fila en 0 con out_of_stock; no es error.
func TestApply_SalidaExactaDejaCero(t *testing.T) {
	store := seededStore(t)
	store.seedItem(&entity.InventoryItem{
		ProductID: testProductID, WarehouseID: testWarehouseID, Location: "A-01",
		Quantity: 50, Status: entity.StockStatusNormal,
	})
	uc := buildEngine(store)

	result, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type:  entity.TransactionTypeOut,
		Items: []stock.LineItemInput{inLine(testProductID, "A-01", 50)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Items[0].NewQuantity)
	assert.Equal(t, entity.StockStatusOutOfStock, result.Items[0].NewStatus)

	item := store.getItem(testProductID, testWarehouseID, "A-01")
	assert.Equal(t, int64(0), item.Quantity)
	assert.Equal(t, entity.StockStatusOutOfStock, item.Status)
}

// Una salida contra una ubicación nunca abastecida falla con NotFound (nunca crea la fila).
func TestApply_SalidaUbicacionInexistente(t *testing.T) {
	store := seededStore(t)
	uc := buildEngine(store)

	_, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type:  entity.TransactionTypeOut,
		Items: []stock.LineItemInput{inLine(testProductID, "B-99", 1)},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	var notFound *domain.StockNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, testProductID, notFound.ProductID)
	assert.Equal(t, "B-99", notFound.Location)
	assert.Nil(t, store.getItem(testProductID, testWarehouseID, "B-99"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Todo o nada
// ──────────────────────────────────────────────────────────────────────────────

// Si la línea k falla, las líneas 1..k-1 no dejan ningún efecto aunque fueran
// satisfacibles por sí solas.
func TestApply_MultilineaTodoONada(t *testing.T) {
	store := seededStore(t)
	store.seedItem(&entity.InventoryItem{
		ProductID: testProductID, WarehouseID: testWarehouseID, Location: "A-01",
		Quantity: 100, Status: entity.StockStatusNormal,
	})
	store.seedItem(&entity.InventoryItem{
		ProductID: testProductID2, WarehouseID: testWarehouseID, Location: "A-02",
		Quantity: 3, Status: entity.StockStatusLow,
	})
	uc := buildEngine(store)

	_, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type: entity.TransactionTypeOut,
		Items: []stock.LineItemInput{
			inLine(testProductID, "A-01", 10), // satisfacible
			inLine(testProductID2, "A-02", 5), // insuficiente
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	// La primera línea no dejó rastro.
	assert.Equal(t, int64(100), store.getItem(testProductID, testWarehouseID, "A-01").Quantity)
	assert.Equal(t, int64(3), store.getItem(testProductID2, testWarehouseID, "A-02").Quantity)
	assert.Equal(t, 0, store.transactionCount())
}

// La cantidad de cada clave siempre es la suma neta firmada del libro confirmado.
func TestApply_InvarianteSumaDelLibro(t *testing.T) {
	store := seededStore(t)
	uc := buildEngine(store)
	ctx := context.Background()

	moves := []struct {
		txType string
		qty    int64
		ok     bool
	}{
		{entity.TransactionTypeIn, 40, true},
		{entity.TransactionTypeOut, 15, true},
		{entity.TransactionTypeIn, 5, true},
		{entity.TransactionTypeOut, 100, false}, // insuficiente, no debe contar
		{entity.TransactionTypeOut, 30, true},
	}
	for _, mv := range moves {
		_, err := uc.Apply(ctx, stock.TransactionInput{
			Type:  mv.txType,
			Items: []stock.LineItemInput{inLine(testProductID, "A-01", mv.qty)},
		})
		if mv.ok {
			require.NoError(t, err)
		} else {
			require.Error(t, err)
		}
	}

	item := store.getItem(testProductID, testWarehouseID, "A-01")
	require.NotNil(t, item)
	net := store.netQuantity(testProductID, testWarehouseID, "A-01")
	assert.Equal(t, net, item.Quantity)
	assert.Equal(t, int64(0), item.Quantity) // 40-15+5-30
	assert.GreaterOrEqual(t, item.Quantity, int64(0))
	assert.Equal(t, entity.StockStatusOutOfStock, item.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación y referencias
// ──────────────────────────────────────────────────────────────────────────────

// Las peticiones inválidas se rechazan antes de tomar ningún bloqueo.
func TestApply_Validaciones(t *testing.T) {
	store := seededStore(t)
	uc := buildEngine(store)
	ctx := context.Background()

	cases := []struct {
		name  string
		input stock.TransactionInput
	}{
		{"tipo inválido", stock.TransactionInput{
			Type:  "transfer",
			Items: []stock.LineItemInput{inLine(testProductID, "A-01", 1)},
		}},
		{"sin líneas", stock.TransactionInput{
			Type: entity.TransactionTypeIn,
		}},
		{"cantidad cero", stock.TransactionInput{
			Type:  entity.TransactionTypeIn,
			Items: []stock.LineItemInput{inLine(testProductID, "A-01", 0)},
		}},
		{"cantidad negativa", stock.TransactionInput{
			Type:  entity.TransactionTypeOut,
			Items: []stock.LineItemInput{inLine(testProductID, "A-01", -5)},
		}},
		{"sin producto", stock.TransactionInput{
			Type:  entity.TransactionTypeIn,
			Items: []stock.LineItemInput{inLine("", "A-01", 1)},
		}},
		{"sin ubicación", stock.TransactionInput{
			Type:  entity.TransactionTypeIn,
			Items: []stock.LineItemInput{inLine(testProductID, "", 1)},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Apply(ctx, tc.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, store.transactionCount())
}

// Un producto inexistente en el catálogo aborta antes de abrir la tx.
func TestApply_ProductoInexistente(t *testing.T) {
	store := seededStore(t)
	uc := buildEngine(store)

	_, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type:  entity.TransactionTypeIn,
		Items: []stock.LineItemInput{inLine("no-existe", "A-01", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, store.transactionCount())
}

// Una bodega inexistente también aborta la transacción completa.
func TestApply_BodegaInexistente(t *testing.T) {
	store := seededStore(t)
	uc := buildEngine(store)

	_, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type: entity.TransactionTypeIn,
		Items: []stock.LineItemInput{{
			ProductID: testProductID, WarehouseID: "no-existe", Location: "A-01", Quantity: 1,
		}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// Dos salidas concurrentes de 30 contra 50: exactamente una gana, la otra recibe
// InsufficientStockError y la cantidad final es 20 (nunca negativa, nunca doble
// decremento).
func TestApply_SalidasConcurrentesNoPierdenActualizaciones(t *testing.T) {
	store := seededStore(t)
	store.seedItem(&entity.InventoryItem{
		ProductID: testProductID, WarehouseID: testWarehouseID, Location: "A-01",
		Quantity: 50, Status: entity.StockStatusNormal,
	})
	uc := buildEngine(store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Apply(context.Background(), stock.TransactionInput{
				Type:  entity.TransactionTypeOut,
				Items: []stock.LineItemInput{inLine(testProductID, "A-01", 30)},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, insufficient int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		if errors.Is(err, domain.ErrInsufficientStock) {
			insufficient++
		}
	}
	assert.Equal(t, 1, successes, "exactamente una salida debe ganar")
	assert.Equal(t, 1, insufficient, "la otra debe fallar por stock insuficiente")

	item := store.getItem(testProductID, testWarehouseID, "A-01")
	assert.Equal(t, int64(20), item.Quantity)
	assert.Equal(t, 1, store.transactionCount())
	assert.Equal(t, int64(-30), store.netQuantity(testProductID, testWarehouseID, "A-01"))
}

// Una colisión del consecutivo de documento se reintenta una vez con uno nuevo;
// el movimiento termina confirmado y sin duplicados en el libro.
func TestApply_ColisionDeDocumentoReintentaUnaVez(t *testing.T) {
	store := seededStore(t)
	store.failNextCreate = domain.ErrDuplicate
	uc := buildEngine(store)

	result, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type:  entity.TransactionTypeIn,
		Items: []stock.LineItemInput{inLine(testProductID, "A-01", 50)},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.NotEmpty(t, result.DocumentID)

	assert.Equal(t, 1, store.transactionCount(), "el intento fallido no deja rastro")
	item := store.getItem(testProductID, testWarehouseID, "A-01")
	require.NotNil(t, item)
	assert.Equal(t, int64(50), item.Quantity)
}

// Si la colisión persiste tras el reintento, el error llega al caller.
func TestApply_ColisionPersistenteDevuelveDuplicado(t *testing.T) {
	store := seededStore(t)
	uc := stock.NewApplyTransactionUseCase(
		&alwaysDuplicateRunner{}, &memProductRepo{store: store}, &memWarehouseRepo{store: store}, testWarehouseID)

	_, err := uc.Apply(context.Background(), stock.TransactionInput{
		Type:  entity.TransactionTypeIn,
		Items: []stock.LineItemInput{inLine(testProductID, "A-01", 50)},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}
