package pharmacy

import "github.com/clinicadev/clinica-api/internal/domain/entity"

// DeriveStockStatus calcula el estado de stock como función pura (servicio de dominio):
// out_of_stock si el stock es 0; low_stock si 0 < stock ≤ mínimo; in_stock en otro caso.
func DeriveStockStatus(currentStock, minimumStock int) string {
	switch {
	case currentStock == 0:
		return entity.StockStatusOutOfStock
	case currentStock <= minimumStock:
		return entity.StockStatusLowStock
	default:
		return entity.StockStatusInStock
	}
}
