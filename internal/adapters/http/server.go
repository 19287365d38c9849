// Package http - HTTP Server configuration and lifecycle management.
//
// Server управляет жизненным циклом HTTP сервера:
// - Graceful startup
// - Graceful shutdown (HTTP, затем shutdown hooks в обратном порядке)
// - Timeout configuration
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ============================================
// Server Configuration
// ============================================

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	// Host для прослушивания (e.g., "0.0.0.0", "localhost")
	Host string
	// Port для прослушивания, "0" - случайный
	Port string
	// ReadTimeout - максимальное время чтения запроса
	ReadTimeout time.Duration
	// ReadHeaderTimeout - максимальное время чтения заголовков
	ReadHeaderTimeout time.Duration
	// WriteTimeout - максимальное время записи ответа
	WriteTimeout time.Duration
	// IdleTimeout - максимальное время ожидания следующего запроса
	IdleTimeout time.Duration
	// ShutdownTimeout - время на graceful shutdown
	ShutdownTimeout time.Duration
	// Logger для логирования
	Logger *slog.Logger
}

// DefaultServerConfig - конфигурация по умолчанию.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:              "0.0.0.0",
		Port:              "8080",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		Logger:            slog.Default(),
	}
}

// Address возвращает адрес для прослушивания.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ============================================
// Server
// ============================================

// ShutdownHook освобождает ресурс после остановки HTTP (relay, пулы, брокер).
type ShutdownHook func(ctx context.Context) error

// Server - HTTP сервер с graceful shutdown.
type Server struct {
	config     *ServerConfig
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
	hooks    []ShutdownHook
}

// NewServer создаёт новый HTTP сервер.
func NewServer(config *ServerConfig, handler http.Handler) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           handler,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}

	return &Server{
		config:     config,
		httpServer: httpServer,
	}
}

// OnShutdown регистрирует hook. Hooks выполняются после остановки HTTP
// в обратном порядке регистрации.
func (s *Server) OnShutdown(hook ShutdownHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Listen открывает сокет. Повторный вызов ничего не делает.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Address(), err)
	}
	s.listener = ln
	return nil
}

// Handler возвращает корневой handler (роутер).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr возвращает фактический адрес (полезно при Port "0").
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return s.config.Address()
	}
	return s.listener.Addr().String()
}

// Start запускает сервер и блокируется до его остановки.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.config.Logger.Info("Starting HTTP server",
		slog.String("address", s.Addr()),
	)

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown выполняет graceful shutdown сервера и hooks.
func (s *Server) Shutdown(ctx context.Context) error {
	s.config.Logger.Info("Shutting down HTTP server...")

	// Создаём контекст с таймаутом для shutdown
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.config.Logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	s.mu.Lock()
	hooks := append([]ShutdownHook(nil), s.hooks...)
	if s.listener != nil {
		// Serve закрывает listener сам, здесь - случай Listen без Start
		_ = s.listener.Close()
	}
	s.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			s.config.Logger.Error("Shutdown hook failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		s.config.Logger.Info("HTTP server stopped gracefully")
	}
	return errors.Join(errs...)
}

// ============================================
// Run with Graceful Shutdown
// ============================================

// Run запускает сервер и останавливает его по отмене ctx или сигналу.
//
// Сигналы для остановки:
// - SIGINT (Ctrl+C)
// - SIGTERM (kill)
//
// При остановке:
// 1. Прекращает приём новых соединений
// 2. Дожидается завершения активных запросов
// 3. Выполняет shutdown hooks
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Канал для ошибок сервера
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	// Ждём либо ошибку, либо остановку
	select {
	case err := <-errChan:
		if err != nil {
			return errors.Join(err, s.Shutdown(context.Background()))
		}
		return nil
	case <-ctx.Done():
		s.config.Logger.Info("Shutdown requested", slog.String("cause", context.Cause(ctx).Error()))
	}

	return s.Shutdown(context.Background())
}
