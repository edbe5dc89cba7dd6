package repository

import "context"

// Transactor выполняет fn в одной транзакции. Репозитории берут транзакцию из ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
