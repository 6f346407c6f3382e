package inventory

import "github.com/jhoicas/Almacen-api/internal/domain/entity"

// ClassifyStatus clasifica el estado de stock (servicio de dominio, función pura).
//
//	quantity <= 0           -> out_of_stock
//	quantity <= minQuantity -> low
//	en otro caso            -> normal
//
// Se recalcula de forma síncrona dentro del motor de transacciones después de
// cada cambio de cantidad y se persiste junto con ella; nunca se calcula en lectura.
func ClassifyStatus(quantity, minQuantity int64) string {
	if quantity <= 0 {
		return entity.StockStatusOutOfStock
	}
	if quantity <= minQuantity {
		return entity.StockStatusLow
	}
	return entity.StockStatusNormal
}
