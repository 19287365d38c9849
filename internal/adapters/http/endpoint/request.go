package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/adapters/http/middleware"
	"github.com/Haleralex/vowdesk/internal/auth"
	"github.com/Haleralex/vowdesk/internal/pkg/logger"
)

// MaxBodyBytes - максимальный размер тела запроса.
const MaxBodyBytes = 1 << 20

// Body - тело запроса, разобранное как JSON объект.
type Body map[string]any

// Request - то, что видит бизнес-функция.
//
// Тело читается из потока не более одного раза и кешируется, поэтому
// валидатор и бизнес-функция могут оба обращаться к нему.
type Request struct {
	c         *gin.Context
	principal *auth.Principal

	bodyRead bool
	body     []byte
	bodyErr  error

	parsed Body
}

func newRequest(c *gin.Context) *Request {
	if middleware.GetRequestID(c) == "" {
		id := middleware.NewRequestID()
		c.Set(middleware.RequestIDContextKey, id)
		c.Header(middleware.RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
	}
	return &Request{c: c}
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.c.Request.Method }

// Header returns a request header.
func (r *Request) Header(name string) string { return r.c.GetHeader(name) }

// Query returns a query string parameter.
func (r *Request) Query(name string) string { return r.c.Query(name) }

// Param returns a path parameter.
func (r *Request) Param(name string) string { return r.c.Param(name) }

// RequestID returns the correlation id of this request.
func (r *Request) RequestID() string { return middleware.GetRequestID(r.c) }

// Principal returns the authenticated caller, or nil when the route has no auth gate.
func (r *Request) Principal() *auth.Principal { return r.principal }

// Context returns the request context. It is cancelled when the client goes away.
func (r *Request) Context() context.Context { return r.c.Request.Context() }

// Body возвращает сырое тело запроса (читается один раз).
func (r *Request) Body() ([]byte, error) {
	if !r.bodyRead {
		r.bodyRead = true
		if r.c.Request.Body != nil {
			r.body, r.bodyErr = io.ReadAll(http.MaxBytesReader(r.c.Writer, r.c.Request.Body, MaxBodyBytes))
		}
	}
	return r.body, r.bodyErr
}

// Decode разбирает JSON тело в v.
//
// Ошибка разбора возвращается как INVALID_INPUT запись, её можно
// вернуть из бизнес-функции как есть.
func (r *Request) Decode(v any) error {
	raw, err := r.Body()
	if err != nil {
		return bodyReadError(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return envelope.NewError(envelope.CodeInvalidInput, "Invalid JSON in request body")
	}
	return nil
}

// object разбирает тело как JSON объект для валидаторов.
func (r *Request) object() (Body, *envelope.ErrorRecord) {
	if r.parsed != nil {
		return r.parsed, nil
	}

	raw, err := r.Body()
	if err != nil {
		return nil, bodyReadError(err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, envelope.NewError(envelope.CodeInvalidInput, "Invalid JSON in request body")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, envelope.NewError(envelope.CodeInvalidInput, "Request body must be a JSON object")
	}

	r.parsed = Body(obj)
	return r.parsed, nil
}

// authenticate сохраняет вызывающего в Request, gin и context.Context.
func (r *Request) authenticate(p *auth.Principal) {
	r.principal = p
	middleware.SetPrincipal(r.c, p)

	ctx := auth.WithPrincipal(r.c.Request.Context(), p)
	ctx = logger.WithCaller(ctx, p.UserID, p.TenantID)
	r.c.Request = r.c.Request.WithContext(ctx)
}

func bodyReadError(err error) *envelope.ErrorRecord {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return envelope.NewError(envelope.CodeInvalidInput, "Request body is too large")
	}
	return envelope.NewError(envelope.CodeInvalidInput, "Unable to read request body")
}
