package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// EscrowFloor минимальная сумма покупки, для которой применяется escrow.
var EscrowFloor = decimal.NewFromInt(100)

// NewAmount разбирает денежную сумму из строки без потери точности.
func NewAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.Validation("некорректная сумма")
	}
	if amount.IsNegative() {
		return decimal.Zero, apperror.Validation("сумма не может быть отрицательной")
	}
	return amount, nil
}

// QualifiesForEscrow сообщает, достаточно ли суммы для защищённой сделки.
func QualifiesForEscrow(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(EscrowFloor)
}
