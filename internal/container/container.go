// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание (Initialize / Builder)
// - Доступ (getters)
// - Закрытие (shutdown hooks HTTP сервера)
//
// Pattern: Composition Root
// - Все зависимости собираются в одном месте
// - Опциональная инфраструктура (Redis, NATS, трейсинг) включается конфигом
// - Легко заменять реализации
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	natsgo "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/Haleralex/vowdesk/internal/adapters/http"
	"github.com/Haleralex/vowdesk/internal/adapters/http/endpoint"
	"github.com/Haleralex/vowdesk/internal/adapters/http/handlers"
	"github.com/Haleralex/vowdesk/internal/adapters/http/middleware"
	"github.com/Haleralex/vowdesk/internal/application/ports"
	"github.com/Haleralex/vowdesk/internal/application/usecases/partner"
	"github.com/Haleralex/vowdesk/internal/auth"
	"github.com/Haleralex/vowdesk/internal/config"
	"github.com/Haleralex/vowdesk/internal/domain/events"
	"github.com/Haleralex/vowdesk/internal/infrastructure/messaging"
	"github.com/Haleralex/vowdesk/internal/infrastructure/messaging/nats"
	"github.com/Haleralex/vowdesk/internal/infrastructure/persistence/postgres"
	"github.com/Haleralex/vowdesk/internal/infrastructure/tracing"
	"github.com/Haleralex/vowdesk/internal/pkg/logger"
	"github.com/Haleralex/vowdesk/internal/ratelimit"
)

// devPrincipal - субъект всех запросов при auth.allow_insecure.
var devPrincipal = auth.Principal{UserID: "dev-user", TenantID: "dev-tenant", Email: "dev@vowdesk.local"}

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool   *pgxpool.Pool
	redis  *redis.Client
	nats   *natsgo.Conn
	checks []handlers.Pinger

	// Repositories
	partnerRepo ports.PartnerRepository
	outboxRepo  *postgres.OutboxRepository

	// Unit of Work
	uow ports.UnitOfWork

	// Events: use cases пишут в outbox, relay доставляет в sink
	eventSink ports.EventPublisher
	relay     *messaging.Relay

	// HTTP edge
	limiter ratelimit.Limiter
	wrapper *endpoint.Wrapper

	// Use Cases
	createPartnerUC *partner.CreatePartnerUseCase
	getPartnerUC    *partner.GetPartnerUseCase
	listPartnersUC  *partner.ListPartnersUseCase
	updatePartnerUC *partner.UpdatePartnerUseCase
	reviewPartnerUC *partner.ReviewPartnerUseCase
	deletePartnerUC *partner.DeletePartnerUseCase

	// HTTP
	httpServer *http.Server

	// Lifecycle
	closers     []http.ShutdownHook
	releaseOnce sync.Once
	releaseErr  error
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
// При ошибке уже открытые ресурсы закрываются.
func (c *Container) Initialize(ctx context.Context) (err error) {
	c.logger = c.initLogger()
	c.logger.Info("Initializing application container...")

	defer func() {
		if err != nil {
			_ = c.release(context.Background())
		}
	}()

	// 1. Tracing
	if err := c.initTracing(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 2. Database
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	// 3. Rate limit store
	if err := c.initRateLimiter(ctx); err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	// 4. Event broker
	if err := c.initEventSink(); err != nil {
		return fmt.Errorf("failed to initialize event broker: %w", err)
	}

	return c.wire()
}

// wire собирает всё, что не требует сетевых подключений.
func (c *Container) wire() error {
	// Repositories
	c.initRepositories()
	c.logger.Info("Repositories initialized")

	// Auth + endpoint wrapper
	if err := c.initAuth(); err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}

	// Use Cases
	c.initUseCases()
	c.logger.Info("Use cases initialized")

	// HTTP Server
	if err := c.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	c.logger.Info("HTTP server initialized")

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger инициализирует логгер и делает его default.
func (c *Container) initLogger() *slog.Logger {
	return logger.Setup(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		Output:    os.Stdout,
		AddSource: c.config.App.Debug,
	})
}

// initTracing устанавливает глобальный TracerProvider.
func (c *Container) initTracing(ctx context.Context) error {
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     c.config.Tracing.Enabled,
		Endpoint:    c.config.Tracing.Endpoint,
		Insecure:    c.config.Tracing.Insecure,
		SampleRatio: c.config.Tracing.SampleRatio,
		ServiceName: serviceName,
		Version:     c.config.App.Version,
		Environment: c.config.App.Environment,
	})
	if err != nil {
		return err
	}
	c.addCloser(http.ShutdownHook(shutdown))
	return nil
}

// initDatabase инициализирует подключение к БД.
func (c *Container) initDatabase(ctx context.Context) error {
	pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
		DSN:             c.config.Database.DSN(),
		MaxConns:        c.config.Database.MaxConnections,
		MinConns:        c.config.Database.MinConnections,
		MaxConnLifetime: c.config.Database.MaxConnLifetime,
		MaxConnIdleTime: c.config.Database.MaxConnIdleTime,
	})
	if err != nil {
		return err
	}
	c.usePool(pool)
	c.addCloser(func(context.Context) error {
		pool.Close()
		c.logger.Info("Database connection closed")
		return nil
	})
	return nil
}

func (c *Container) usePool(pool *pgxpool.Pool) {
	c.pool = pool
	c.checks = append(c.checks, postgres.Pinger{Pool: pool})
}

// initRateLimiter выбирает хранилище лимитов: Redis, если настроен, иначе память процесса.
func (c *Container) initRateLimiter(ctx context.Context) error {
	if c.config.RateLimit.Disabled {
		c.logger.Warn("Rate limiting disabled by configuration")
		return nil
	}

	if !c.config.Redis.Enabled() {
		c.limiter = ratelimit.NewMemory()
		c.logger.Info("Rate limiter uses in-process store")
		return nil
	}

	client, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisConfig{
		Addr:        c.config.Redis.Addr,
		Password:    c.config.Redis.Password,
		DB:          c.config.Redis.DB,
		DialTimeout: c.config.Redis.DialTimeout,
	})
	if err != nil {
		return err
	}
	c.redis = client
	c.checks = append(c.checks, ratelimit.RedisPinger{Client: client})
	c.addCloser(func(context.Context) error { return client.Close() })

	limiter, err := ratelimit.NewRedis(client, c.config.Redis.KeyPrefix)
	if err != nil {
		return err
	}
	c.limiter = limiter
	c.logger.Info("Rate limiter uses Redis store", slog.String("addr", c.config.Redis.Addr))
	return nil
}

// initEventSink подключает NATS. Без NATS события из outbox пишутся в лог.
func (c *Container) initEventSink() error {
	if !c.config.NATS.Enabled() {
		c.eventSink = events.NewLogPublisher(c.logger)
		c.logger.Info("NATS not configured, domain events go to the log")
		return nil
	}

	conn, err := nats.Connect(nats.Config{
		URL:           c.config.NATS.URL,
		Name:          serviceName,
		SubjectPrefix: c.config.NATS.SubjectPrefix,
		ConnectWait:   c.config.NATS.ConnectWait,
	}, c.logger)
	if err != nil {
		return err
	}
	c.nats = conn
	c.eventSink = nats.NewPublisher(conn, c.config.NATS.SubjectPrefix)
	c.checks = append(c.checks, nats.Pinger{Conn: conn})
	c.addCloser(func(context.Context) error {
		// Drain дожидается отправки буфера публикаций
		return conn.Drain()
	})
	c.logger.Info("NATS connected", slog.String("url", conn.ConnectedUrlRedacted()))
	return nil
}

// initRepositories инициализирует репозитории.
func (c *Container) initRepositories() {
	c.partnerRepo = postgres.NewPartnerRepository(c.pool, dbObserver("partners"))
	c.outboxRepo = postgres.NewOutboxRepository(c.pool, dbObserver("outbox"))

	// Unit of Work
	c.uow = postgres.NewUnitOfWork(c.pool)

	if c.eventSink == nil {
		c.eventSink = events.NewLogPublisher(c.logger)
	}
	c.relay = messaging.NewRelay(c.outboxRepo, c.uow, c.eventSink, messaging.RelayConfig{
		Interval:  c.config.NATS.RelayInterval,
		BatchSize: c.config.NATS.RelayBatchSize,
	}, c.logger)
}

// initAuth выбирает verifier и RoleChecker и собирает endpoint.Wrapper.
func (c *Container) initAuth() error {
	var (
		verifier auth.CredentialVerifier
		roles    auth.RoleChecker
	)

	if c.config.Auth.AllowInsecure {
		if c.config.App.IsProduction() {
			return errors.New("insecure auth is not allowed in production")
		}
		principal := devPrincipal
		principal.Roles = c.config.Auth.AdminRoles
		verifier = auth.InsecureAllowAllVerifier{Principal: principal}
		roles = auth.InsecureAllowAllRoles{}
		c.logger.Warn("Insecure auth enabled: every bearer token is accepted as an admin",
			slog.String("user_id", principal.UserID),
			slog.String("tenant_id", principal.TenantID),
		)
	} else {
		jwtVerifier, err := auth.NewJWTVerifier(c.config.Auth.JWTSecret, c.config.Auth.JWTIssuer)
		if err != nil {
			return err
		}
		verifier = jwtVerifier
		roles = auth.NewClaimsRoleChecker(c.config.Auth.AdminRoles...)
	}

	c.wrapper = endpoint.New(endpoint.Deps{
		Logger:           c.logger,
		Verifier:         verifier,
		Roles:            roles,
		Limiter:          c.limiter,
		DisableRateLimit: c.config.RateLimit.Disabled,
	})
	return nil
}

// initUseCases инициализирует use cases.
// Use cases публикуют в outbox внутри своей транзакции.
func (c *Container) initUseCases() {
	c.createPartnerUC = partner.NewCreatePartnerUseCase(c.partnerRepo, c.outboxRepo, c.uow)
	c.getPartnerUC = partner.NewGetPartnerUseCase(c.partnerRepo)
	c.listPartnersUC = partner.NewListPartnersUseCase(c.partnerRepo)
	c.updatePartnerUC = partner.NewUpdatePartnerUseCase(c.partnerRepo, c.uow)
	c.reviewPartnerUC = partner.NewReviewPartnerUseCase(c.partnerRepo, c.outboxRepo, c.uow)
	c.deletePartnerUC = partner.NewDeletePartnerUseCase(c.partnerRepo, c.outboxRepo, c.uow)
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() error {
	routerConfig := c.routerConfig()

	router, err := http.NewRouter(routerConfig, &http.PartnerUseCases{
		Create: c.createPartnerUC,
		Get:    c.getPartnerUC,
		List:   c.listPartnersUC,
		Update: c.updatePartnerUC,
		Review: c.reviewPartnerUC,
		Delete: c.deletePartnerUC,
	})
	if err != nil {
		return err
	}

	// Server Config
	serverConfig := &http.ServerConfig{
		Host:              c.config.Server.Host,
		Port:              strconv.Itoa(c.config.Server.Port),
		ReadTimeout:       c.config.Server.ReadTimeout,
		ReadHeaderTimeout: c.config.Server.ReadHeaderTimeout,
		WriteTimeout:      c.config.Server.WriteTimeout,
		IdleTimeout:       c.config.Server.IdleTimeout,
		ShutdownTimeout:   c.config.Server.ShutdownTimeout,
		Logger:            c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, router)
	c.httpServer.OnShutdown(c.release)
	return nil
}

func (c *Container) routerConfig() *http.RouterConfig {
	cfg := http.DefaultRouterConfig()
	cfg.Logger = c.logger
	cfg.Wrapper = c.wrapper
	cfg.Pool = c.pool
	cfg.Checks = c.checks
	cfg.Version = c.config.App.Version
	cfg.ServiceName = serviceName
	cfg.Environment = c.config.App.Environment
	cfg.AllowedOrigins = c.config.CORS.AllowedOrigins
	cfg.Partners.Timeout = c.config.Server.RequestTimeout

	if c.config.RateLimit.Disabled || c.limiter == nil {
		cfg.Limiter = nil
		cfg.Partners.ListRateLimit = nil
		return cfg
	}
	cfg.Limiter = c.limiter
	cfg.GlobalRateLimit = endpoint.RateLimit{Max: c.config.RateLimit.GlobalPerMinute, Window: time.Minute}
	cfg.Partners.ListRateLimit = &endpoint.RateLimit{Max: c.config.RateLimit.ListPerMinute, Window: time.Minute}
	return cfg
}

// dbObserver пишет длительность запросов к таблице в Prometheus.
func dbObserver(table string) postgres.QueryObserver {
	return func(operation string, duration time.Duration) {
		middleware.RecordDBQuery(operation, table, duration)
	}
}

const serviceName = "vowdesk"

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool возвращает пул соединений к БД.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

// PartnerRepository возвращает репозиторий партнёров.
func (c *Container) PartnerRepository() ports.PartnerRepository {
	return c.partnerRepo
}

// UnitOfWork возвращает Unit of Work.
func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

// Relay возвращает outbox relay.
func (c *Container) Relay() *messaging.Relay {
	return c.relay
}

// Checks возвращает readiness проверки подключённой инфраструктуры.
func (c *Container) Checks() []handlers.Pinger {
	return c.checks
}

// ============================================
// Run / Shutdown
// ============================================

// Run запускает outbox relay и HTTP сервер и блокируется до отмены ctx
// или SIGINT/SIGTERM. Ресурсы закрываются shutdown hook-ом сервера.
func (c *Container) Run(ctx context.Context) error {
	if c.httpServer == nil {
		return errors.New("container is not initialized")
	}

	c.logger.Info("Starting VowDesk API Server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	relayCtx, stopRelay := context.WithCancel(context.WithoutCancel(ctx))
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := c.relay.Run(relayCtx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("Outbox relay stopped", slog.String("error", err.Error()))
		}
	}()

	// Relay останавливается первым: hooks выполняются в обратном порядке
	c.httpServer.OnShutdown(func(ctx context.Context) error {
		stopRelay()
		select {
		case <-relayDone:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("outbox relay: %w", ctx.Err())
		}
	})

	return c.httpServer.Run(ctx)
}

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.httpServer != nil {
		return c.httpServer.Shutdown(ctx)
	}
	return c.release(ctx)
}

func (c *Container) addCloser(fn http.ShutdownHook) {
	c.closers = append(c.closers, fn)
}

// release закрывает инфраструктуру в обратном порядке открытия. Повторный вызов
// возвращает результат первого.
func (c *Container) release(ctx context.Context) error {
	c.releaseOnce.Do(func() {
		var errs []error
		for i := len(c.closers) - 1; i >= 0; i-- {
			if err := c.closers[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		c.releaseErr = errors.Join(errs...)
		if c.logger != nil {
			c.logger.Info("Container shutdown complete")
		}
	})
	return c.releaseErr
}

// ============================================
// Builder Pattern (Alternative)
// ============================================

// ContainerBuilder - builder для создания контейнера с кастомными компонентами.
//
// Используется в тестах: готовый pool (testcontainers) и sink вместо NATS.
type ContainerBuilder struct {
	cfg       *config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	eventSink ports.EventPublisher
	limiter   ratelimit.Limiter
}

// NewBuilder создаёт новый builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{
		cfg: cfg,
	}
}

// WithLogger устанавливает кастомный логгер.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithPool устанавливает готовый пул соединений. Контейнер его не закрывает.
func (b *ContainerBuilder) WithPool(pool *pgxpool.Pool) *ContainerBuilder {
	b.pool = pool
	return b
}

// WithEventSink устанавливает получателя событий из outbox вместо NATS.
func (b *ContainerBuilder) WithEventSink(sink ports.EventPublisher) *ContainerBuilder {
	b.eventSink = sink
	return b
}

// WithLimiter устанавливает хранилище лимитов вместо Redis.
func (b *ContainerBuilder) WithLimiter(limiter ratelimit.Limiter) *ContainerBuilder {
	b.limiter = limiter
	return b
}

// Build создаёт контейнер.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	if b.cfg == nil {
		return nil, errors.New("container: config is required")
	}
	c := New(b.cfg)

	// Use provided or initialize
	if b.logger != nil {
		c.logger = b.logger
	} else {
		c.logger = c.initLogger()
	}

	if b.pool != nil {
		c.usePool(b.pool)
	} else if err := c.initDatabase(ctx); err != nil {
		return nil, err
	}

	if b.limiter != nil {
		c.limiter = b.limiter
	} else if err := c.initRateLimiter(ctx); err != nil {
		_ = c.release(ctx)
		return nil, err
	}

	if b.eventSink != nil {
		c.eventSink = b.eventSink
	} else if err := c.initEventSink(); err != nil {
		_ = c.release(ctx)
		return nil, err
	}

	if err := c.wire(); err != nil {
		_ = c.release(ctx)
		return nil, err
	}
	return c, nil
}
