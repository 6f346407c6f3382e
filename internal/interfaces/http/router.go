package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/application/usecase"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC   *usecase.ProductUseCase
	WarehouseUC *usecase.WarehouseUseCase
	ApplyTx     *stock.ApplyTransactionUseCase
	StockQuery  *stock.QueryUseCase
	AuthUC      *auth.AuthUseCase
	JWTSecret   string
}

// Router registra las rutas de la API. Toda escritura de stock pasa por el motor
// de transacciones; no existe ninguna ruta que mute InventoryItem directamente.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Warehouses (protegido, crear solo admin)
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", RequireRole(entity.RoleAdmin), warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)

	// Stock: motor de transacciones + vistas de lectura (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.ApplyTx, deps.StockQuery)
	stockGroup.Post("/transactions", stockHandler.ApplyTransaction)
	stockGroup.Get("/transactions", stockHandler.ListRecentTransactions)
	stockGroup.Get("/transactions/:id", stockHandler.GetTransaction)
	stockGroup.Get("/products/:id", stockHandler.GetSnapshot)
	stockGroup.Get("/low", stockHandler.ListLowStock)
}
