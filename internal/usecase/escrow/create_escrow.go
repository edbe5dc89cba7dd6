package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

type CreateEscrowInput struct {
	PurchaseID        uuid.UUID
	BuyerID           uuid.UUID
	SellerID          uuid.UUID
	Amount            decimal.Decimal
	ReleaseConditions *entity.ReleaseConditions
}

type CreateEscrowUseCase struct {
	deps Deps
}

func NewCreateEscrowUseCase(deps Deps) *CreateEscrowUseCase {
	return &CreateEscrowUseCase{deps: deps.withDefaults()}
}

// Execute создаёт escrow в статусе held. Одна покупка, один escrow.
func (uc *CreateEscrowUseCase) Execute(ctx context.Context, input CreateEscrowInput) (*entity.EscrowTransaction, error) {
	escrow, err := entity.NewEscrowTransaction(input.PurchaseID, input.BuyerID, input.SellerID, input.Amount, input.ReleaseConditions, uc.deps.Now())
	if err != nil {
		return nil, err
	}

	for _, id := range []uuid.UUID{input.BuyerID, input.SellerID} {
		if _, err := uc.deps.Accounts.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}

	existing, err := uc.deps.Escrows.FindByPurchaseID(ctx, input.PurchaseID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "escrow для этой покупки уже существует")
	}

	if err := uc.deps.Escrows.Create(ctx, escrow); err != nil {
		return nil, err
	}

	uc.deps.Log.WithFields(logrus.Fields{
		"escrow_id":   escrow.ID,
		"purchase_id": escrow.PurchaseID,
		"amount":      escrow.Amount.StringFixed(2),
	}).Info("escrow создан")
	return escrow, nil
}
