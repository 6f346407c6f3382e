package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrLockTimeout        = errors.New("tiempo de espera por bloqueo de fila agotado")
)

// StockNotFoundError indica que una salida referencia un producto o una ubicación
// que nunca ha tenido stock. Compatible con errors.Is(err, ErrNotFound).
type StockNotFoundError struct {
	ProductID string
	Location  string
}

func (e *StockNotFoundError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("producto %s no encontrado", e.ProductID)
	}
	return fmt.Sprintf("sin stock registrado para producto %s en ubicación %s", e.ProductID, e.Location)
}

// Is permite detectar el error con el sentinel ErrNotFound.
func (e *StockNotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError indica que una línea de salida dejaría la cantidad en negativo.
// Available y Requested permiten al caller mostrar un mensaje preciso.
// Compatible con errors.Is(err, ErrInsufficientStock).
type InsufficientStockError struct {
	ProductID string
	Location  string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en %s: disponible %d, solicitado %d",
		e.ProductID, e.Location, e.Available, e.Requested)
}

// Is permite detectar el error con el sentinel ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
