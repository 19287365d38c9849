// Package postgres - вспомогательные функции для работы с PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// txKey - ключ для хранения транзакции в context.
type txKey struct{}

// injectTx добавляет транзакцию в context.
// Используется UnitOfWork для передачи транзакции в repositories.
func injectTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// extractTx извлекает транзакцию из context. nil если транзакции нет.
func extractTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// querier - общий интерфейс pool и transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QueryObserver получает длительность каждого запроса (для метрик).
type QueryObserver func(operation string, duration time.Duration)

// observe returns a func to defer around a query.
func observe(o QueryObserver, operation string) func() {
	if o == nil {
		return func() {}
	}
	start := time.Now()
	return func() { o(operation, time.Since(start)) }
}

// PostgreSQL error codes
const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgNotNullViolation = "23502"
)

func pgErrorCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", ""
	}
	return pgErr.Code, pgErr.ConstraintName
}

// isUniqueViolation проверяет нарушение UNIQUE constraint.
// Пустое constraintName совпадает с любым.
func isUniqueViolation(err error, constraintName string) bool {
	code, constraint := pgErrorCode(err)
	return code == pgUniqueViolation && (constraintName == "" || constraint == constraintName)
}

// isConstraintViolation - CHECK или NOT NULL.
func isConstraintViolation(err error) bool {
	code, _ := pgErrorCode(err)
	return code == pgCheckViolation || code == pgNotNullViolation
}
