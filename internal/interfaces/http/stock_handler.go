package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// StockHandler maneja las peticiones HTTP del motor de stock y sus vistas (protegido).
type StockHandler struct {
	apply   *stock.ApplyTransactionUseCase
	queries *stock.QueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(apply *stock.ApplyTransactionUseCase, queries *stock.QueryUseCase) *StockHandler {
	return &StockHandler{apply: apply, queries: queries}
}

// insufficientStockResponse extiende ErrorResponse con disponible vs solicitado
// para que la UI muestre un mensaje preciso.
type insufficientStockResponse struct {
	dto.ErrorResponse
	ProductID string `json:"product_id"`
	Location  string `json:"location"`
	Available int64  `json:"available"`
	Requested int64  `json:"requested"`
}

// ApplyTransaction godoc
// @Summary      Aplicar transacción de stock (in/out, multi-línea, todo o nada)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyTransactionRequest  true  "type (in|out) e items; warehouse_id vacío usa la bodega por defecto"
// @Success      201   {object}  dto.TransactionDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/transactions [post]
func (h *StockHandler) ApplyTransaction(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ApplyTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.apply.ApplyFromRequest(c.Context(), userID, in)
	if err != nil {
		return h.writeStockError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// writeStockError traduce la taxonomía de errores del motor a HTTP.
// LOCK_TIMEOUT es transitorio: el caller puede reintentar la transacción completa
// porque no quedó ningún estado parcial.
func (h *StockHandler) writeStockError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(insufficientStockResponse{
			ErrorResponse: dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: insufficient.Error()},
			ProductID:     insufficient.ProductID,
			Location:      insufficient.Location,
			Available:     insufficient.Available,
			Requested:     insufficient.Requested,
		})
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrLockTimeout):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: "bloqueo de fila no disponible, reintente la transacción"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_DOCUMENT", Message: "colisión de consecutivo de documento, reintente la transacción"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// GetSnapshot godoc
// @Summary      Snapshot de stock de un producto (total + ubicaciones)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  dto.InventorySnapshotDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id} [get]
func (h *StockHandler) GetSnapshot(c *fiber.Ctx) error {
	snapshot, err := h.queries.GetInventorySnapshot(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(snapshot)
}

// ListLowStock godoc
// @Summary      Lista de alertas de stock bajo (status low u out_of_stock)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.LowStockItemDTO
// @Router       /api/stock/low [get]
func (h *StockHandler) ListLowStock(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err == nil {
		page.DefaultPage()
	}
	list, err := h.queries.ListLowStock(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"total": len(list), "items": list})
}

// ListRecentTransactions godoc
// @Summary      Actividad reciente del libro de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo de transacciones (default 20)"
// @Success      200  {array}  dto.ActivityDTO
// @Router       /api/stock/transactions [get]
func (h *StockHandler) ListRecentTransactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	feed, err := h.queries.ListRecentTransactions(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"total": len(feed), "transactions": feed})
}

// GetTransaction godoc
// @Summary      Detalle de una transacción confirmada
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Transaction ID"
// @Success      200  {object}  entity.Transaction
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/transactions/{id} [get]
func (h *StockHandler) GetTransaction(c *fiber.Ctx) error {
	tx, err := h.queries.GetTransaction(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "transacción no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(tx)
}
