package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario.
// Los movimientos que no indican bodega usan la bodega por defecto configurada.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
