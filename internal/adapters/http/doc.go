// Package http содержит HTTP адаптеры (REST API).
//
// Структура пакета:
// - envelope/: Единый формат ответа и таксономия кодов ошибок
// - endpoint/: Обёртка бизнес-функций (auth, admin, rate limit, валидация, трансляция ошибок)
// - middleware/: HTTP middleware (request id, logging, recovery, metrics, CORS, rate limit)
// - handlers/: HTTP handlers для каждого ресурса
// - router.go: Конфигурация маршрутов
// - server.go: HTTP server lifecycle
//
// Pattern: Adapter (Hexagonal Architecture)
// - HTTP - внешний адаптер, который преобразует HTTP запросы в вызовы Use Cases
// - Не содержит бизнес-логики
package http
