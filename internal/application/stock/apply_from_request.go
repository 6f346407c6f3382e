package stock

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
)

// ApplyFromRequest adapta el request HTTP al caso de uso Apply(ctx, TransactionInput).
// Usar desde handlers HTTP que ya tienen el userID del token.
func (uc *ApplyTransactionUseCase) ApplyFromRequest(ctx context.Context, userID string, in dto.ApplyTransactionRequest) (*dto.TransactionDTO, error) {
	input := TransactionInput{
		Type:      in.Type,
		Reference: in.Reference,
		Source:    in.Source,
		Notes:     in.Notes,
		CreatedBy: userID,
	}
	for _, item := range in.Items {
		input.Items = append(input.Items, LineItemInput{
			ProductID:      item.ProductID,
			WarehouseID:    item.WarehouseID,
			Location:       item.Location,
			Quantity:       item.Quantity,
			ProductionDate: item.ProductionDate,
			ExpiryDate:     item.ExpiryDate,
		})
	}
	return uc.Apply(ctx, input)
}
