package entity

import "time"

// Tipos de transacción de stock.
const (
	TransactionTypeIn  = "in"  // entrada
	TransactionTypeOut = "out" // salida
)

// Transaction es la cabecera inmutable del libro de movimientos (append-only).
// Una vez confirmada nunca se modifica ni se borra. DocumentID es el consecutivo
// legible para humanos; no se usa como clave de idempotencia en reintentos.
type Transaction struct {
	ID         string
	DocumentID string
	Type       string // in, out
	Reference  string // factura, orden, nota, etc.
	Source     string
	Notes      string
	CreatedBy  string // UserID, puede estar vacío
	CreatedAt  time.Time
	Items      []TransactionItem
}

// TransactionItem es una línea del libro. Quantity es la magnitud del movimiento
// (siempre > 0); el signo lo da el Type de la cabecera. Se crea atómicamente con
// su Transaction y es inmutable después.
type TransactionItem struct {
	ID             string
	TransactionID  string
	ProductID      string
	WarehouseID    string
	Location       string
	Quantity       int64
	ProductionDate *time.Time
	ExpiryDate     *time.Time
	CreatedAt      time.Time
}
