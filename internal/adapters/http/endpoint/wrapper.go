// Package endpoint превращает бизнес-функцию в gin handler.
//
// Обёртка исполняет политику маршрута (rate limit, аутентификация,
// проверка роли, валидация тела) и гарантирует, что любой выход из
// handler-а - успех, отказ политики, ошибка или паника - даёт корректный
// envelope.Response со статусом, выведенным из кода ошибки.
//
// Порядок стадий:
//  1. rate limit
//  2. аутентификация (RequireAuth или RequireAdmin)
//  3. проверка роли (RequireAdmin)
//  4. валидация тела (ValidateBody, кроме GET)
//  5. бизнес-функция
//  6. трансляция ошибок и паник в envelope
//
// Pattern: Decorator
package endpoint

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/adapters/http/middleware"
	"github.com/Haleralex/vowdesk/internal/auth"
	"github.com/Haleralex/vowdesk/internal/ratelimit"
)

// Func - бизнес-функция маршрута.
//
// Ошибка (или паника) транслируется в envelope с ошибкой; предпочтительно
// возвращать *envelope.ErrorRecord или *errors.Error.
type Func[T any] func(req *Request) (envelope.Response[T], error)

// Deps - capabilities, которые обёртка получает при создании.
type Deps struct {
	Logger   *slog.Logger
	Verifier auth.CredentialVerifier
	Roles    auth.RoleChecker
	Limiter  ratelimit.Limiter
	// DisableRateLimit - явный отказ от rate limiting (тесты, локальная
	// разработка). Маршруты с RateLimit логируют предупреждение.
	DisableRateLimit bool
}

// Wrapper строит handler-ы маршрутов. Безопасен для конкурентного использования.
type Wrapper struct {
	deps Deps
	log  *slog.Logger
}

// New creates a Wrapper.
func New(deps Deps) *Wrapper {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Wrapper{deps: deps, log: log.With(slog.String("component", "endpoint"))}
}

// Handle оборачивает fn без проверки метода.
//
// Паникует, если cfg не проходит Check: ошибка конфигурации маршрута
// должна останавливать запуск, а не всплывать на первом запросе.
func Handle[T any](w *Wrapper, cfg Config, fn Func[T]) gin.HandlerFunc {
	w.mustCheck(cfg)
	return func(c *gin.Context) {
		serve(w, c, cfg, fn)
	}
}

func (w *Wrapper) mustCheck(cfg Config) {
	if err := w.Check(cfg); err != nil {
		panic(err)
	}
	if cfg.RateLimit != nil && w.deps.DisableRateLimit {
		w.log.Warn("Rate limit declared but rate limiting is disabled",
			slog.Int("max", cfg.RateLimit.Max),
			slog.Duration("window", cfg.RateLimit.Window),
		)
	}
}

func serve[T any](w *Wrapper, c *gin.Context, cfg Config, fn Func[T]) {
	req := newRequest(c)

	defer func() {
		if p := recover(); p != nil {
			w.log.LogAttrs(req.Context(), slog.LevelError, "Panic recovered in handler",
				slog.String("panic", fmt.Sprintf("%v", p)),
				slog.String("method", req.Method()),
				slog.String("route", c.FullPath()),
				slog.String("stack", string(debug.Stack())),
			)
			if !c.Writer.Written() {
				w.fail(c, envelope.NewError(envelope.CodeInternal, "An unexpected error occurred"))
			}
		}
	}()

	if rec := w.gate(c, req, cfg); rec != nil {
		w.fail(c, rec)
		return
	}

	if cfg.Timeout > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
	}

	resp, err := fn(req)
	if err != nil {
		rec := Translate(err)
		w.logError(req, c, rec, err)
		w.fail(c, rec)
		return
	}

	if !resp.Valid() {
		w.log.ErrorContext(req.Context(), "Handler returned malformed envelope",
			slog.String("route", c.FullPath()),
			slog.Bool("success", resp.Success),
		)
		w.fail(c, envelope.NewError(envelope.CodeInternal, "An unexpected error occurred"))
		return
	}

	if resp.Meta.RequestID == "" {
		resp.Meta.RequestID = req.RequestID()
	}
	if resp.Meta.Timestamp.IsZero() {
		resp.Meta.Timestamp = time.Now().UTC()
	}
	if !resp.Success {
		middleware.RecordAPIError(string(resp.Error.Code))
	}

	c.JSON(resp.Status(), resp)
}

// gate исполняет стадии 1-4. nil - запрос можно передавать в бизнес-функцию.
func (w *Wrapper) gate(c *gin.Context, req *Request, cfg Config) *envelope.ErrorRecord {
	ctx := req.Context()

	if cfg.RateLimit != nil && !w.deps.DisableRateLimit {
		key := c.ClientIP() + ":" + c.Request.Method + ":" + routeOf(c)
		res, err := w.deps.Limiter.Allow(ctx, key, cfg.RateLimit.Max, cfg.RateLimit.Window)
		if err != nil {
			w.log.WarnContext(ctx, "Rate limiter unavailable, allowing request", slog.String("error", err.Error()))
		} else {
			middleware.SetRateLimitHeaders(c.Writer.Header(), res)
			if !res.Allowed {
				return middleware.RateLimitExceeded(res)
			}
		}
	}

	if cfg.RequireAuth || cfg.RequireAdmin {
		p, rec := middleware.Authenticate(ctx, req.Header("Authorization"), w.deps.Verifier)
		if rec != nil {
			return rec
		}
		req.authenticate(p)
		ctx = req.Context()
	}

	if cfg.RequireAdmin {
		ok, err := w.deps.Roles.IsAdmin(ctx, req.Principal())
		if err != nil {
			rec := Translate(err)
			w.logError(req, c, rec, err)
			return rec
		}
		if !ok {
			return envelope.NewForbiddenError("access admin resources")
		}
	}

	if cfg.ValidateBody != nil && req.Method() != http.MethodGet {
		body, rec := req.object()
		if rec != nil {
			return rec
		}
		if err := cfg.ValidateBody(body); err != nil {
			return validationRecord(err)
		}
	}

	return nil
}

// fail пишет envelope с ошибкой.
func (w *Wrapper) fail(c *gin.Context, rec *envelope.ErrorRecord) {
	middleware.AbortWithError(c, rec)
}

func (w *Wrapper) logError(req *Request, c *gin.Context, rec *envelope.ErrorRecord, err error) {
	level := slog.LevelWarn
	if rec.Status() >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	w.log.LogAttrs(req.Context(), level, "Handler error",
		slog.String("code", string(rec.Code)),
		slog.String("error", err.Error()),
		slog.String("method", req.Method()),
		slog.String("route", c.FullPath()),
	)
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}
