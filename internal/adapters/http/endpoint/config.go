package endpoint

import (
	"errors"
	"fmt"
	"time"
)

// RateLimit - лимит запросов маршрута: Max запросов за Window
// с одного IP.
type RateLimit struct {
	Max    int
	Window time.Duration
}

// BodyValidator проверяет разобранное тело запроса.
//
// nil - тело валидно. Текст ошибки становится сообщением VALIDATION_ERROR
// (пустой текст заменяется на "Request body validation failed").
// *errors.Error с Field сохраняет поле.
type BodyValidator func(body Body) error

// Config - политика маршрута. Нулевое значение: все проверки выключены.
type Config struct {
	RequireAuth bool
	// RequireAdmin подразумевает RequireAuth
	RequireAdmin bool
	RateLimit    *RateLimit
	// ValidateBody не вызывается для GET
	ValidateBody BodyValidator
	// Timeout ограничивает время бизнес-функции, 0 - без ограничения
	Timeout time.Duration
}

var (
	errNoVerifier = errors.New("endpoint: auth required but no credential verifier configured")
	errNoRoles    = errors.New("endpoint: admin required but no role checker configured")
	errNoLimiter  = errors.New("endpoint: rate limit declared but no limiter configured (set DisableRateLimit to opt out)")
)

// Check проверяет, что политику маршрута можно исполнить с текущими Deps.
//
// Маршрут, требующий проверку без соответствующей capability, не
// регистрируется: молча пропустить проверку нельзя.
func (w *Wrapper) Check(cfg Config) error {
	if (cfg.RequireAuth || cfg.RequireAdmin) && w.deps.Verifier == nil {
		return errNoVerifier
	}
	if cfg.RequireAdmin && w.deps.Roles == nil {
		return errNoRoles
	}
	if rl := cfg.RateLimit; rl != nil {
		if rl.Max < 1 || rl.Window <= 0 {
			return fmt.Errorf("endpoint: invalid rate limit %d per %s", rl.Max, rl.Window)
		}
		if w.deps.Limiter == nil && !w.deps.DisableRateLimit {
			return errNoLimiter
		}
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("endpoint: negative timeout %s", cfg.Timeout)
	}
	return nil
}
