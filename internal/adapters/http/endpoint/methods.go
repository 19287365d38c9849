package endpoint

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
)

// GET оборачивает fn и отклоняет все методы, кроме GET.
func GET[T any](w *Wrapper, cfg Config, fn Func[T]) gin.HandlerFunc {
	return only(w, http.MethodGet, cfg, fn)
}

// POST оборачивает fn и отклоняет все методы, кроме POST.
func POST[T any](w *Wrapper, cfg Config, fn Func[T]) gin.HandlerFunc {
	return only(w, http.MethodPost, cfg, fn)
}

// PATCH оборачивает fn и отклоняет все методы, кроме PATCH.
func PATCH[T any](w *Wrapper, cfg Config, fn Func[T]) gin.HandlerFunc {
	return only(w, http.MethodPatch, cfg, fn)
}

// DELETE оборачивает fn и отклоняет все методы, кроме DELETE.
func DELETE[T any](w *Wrapper, cfg Config, fn Func[T]) gin.HandlerFunc {
	return only(w, http.MethodDelete, cfg, fn)
}

func only[T any](w *Wrapper, method string, cfg Config, fn Func[T]) gin.HandlerFunc {
	h := Handle(w, cfg, fn)
	return func(c *gin.Context) {
		if c.Request.Method != method {
			w.rejectMethod(c, method)
			return
		}
		h(c)
	}
}

// MultiMethod выбирает бизнес-функцию по HTTP методу. Все функции
// работают под одной политикой cfg.
func MultiMethod[T any](w *Wrapper, cfg Config, fns map[string]Func[T]) gin.HandlerFunc {
	handlers := make(map[string]gin.HandlerFunc, len(fns))
	allowed := make([]string, 0, len(fns))
	for method, fn := range fns {
		method = strings.ToUpper(method)
		handlers[method] = Handle(w, cfg, fn)
		allowed = append(allowed, method)
	}
	slices.Sort(allowed)

	return func(c *gin.Context) {
		h, ok := handlers[c.Request.Method]
		if !ok {
			w.rejectMethod(c, allowed...)
			return
		}
		h(c)
	}
}

// rejectMethod отвечает INVALID_INPUT до любых проверок политики.
func (w *Wrapper) rejectMethod(c *gin.Context, allowed ...string) {
	newRequest(c)
	c.Header("Allow", strings.Join(allowed, ", "))
	w.fail(c, envelope.NewError(envelope.CodeInvalidInput, "Method not allowed"))
}
