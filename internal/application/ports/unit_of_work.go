// Package ports - UnitOfWork паттерн для управления транзакциями.
//
// Pattern: Unit of Work
// - Один UnitOfWork = одна БД-транзакция
// - Автоматический rollback при ошибке
package ports

import "context"

// UnitOfWork определяет контракт для управления транзакциями.
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    partner, err := partners.FindByID(txCtx, tenantID, id)
//	    if err != nil {
//	        return err // rollback
//	    }
//	    if err := partner.Approve(); err != nil {
//	        return err
//	    }
//	    if err := partners.Update(txCtx, partner); err != nil {
//	        return err
//	    }
//	    return publisher.Publish(txCtx, event) // outbox, same tx
//	})
type UnitOfWork interface {
	// Execute выполняет fn внутри транзакции.
	// nil -> COMMIT, error -> ROLLBACK.
	// Все операции внутри fn должны использовать переданный context!
	Execute(ctx context.Context, fn func(context.Context) error) error
}
