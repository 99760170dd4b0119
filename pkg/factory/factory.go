package factory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"blogapi/internal/concurrent"
	"blogapi/internal/config"
	"blogapi/internal/database"
	"blogapi/internal/domain"
	"blogapi/internal/repository"
	"blogapi/internal/service"
	"blogapi/pkg/cache"
	"blogapi/pkg/circuitbreaker"
	"blogapi/pkg/logger"
	"blogapi/pkg/tracing"
)

type Factory interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config
	GetDB() *sql.DB
	GetRedisClient() *redis.Client
	GetCache() cache.Cache
	GetCircuitBreaker() *circuitbreaker.CircuitBreaker
	GetWarmUpManager() *cache.WarmUpManager
	GetAuditPool() *concurrent.WorkerPool

	GetUserRepository() domain.UserRepository
	GetPostRepository() domain.PostRepository
	GetAuditLogRepository() domain.AuditLogRepository

	GetUserService() domain.UserService
	GetPostService() domain.PostService
	GetAuditLogService() domain.AuditLogService

	Close(ctx context.Context) error
}

type AppFactory struct {
	config         *config.Config
	logger         logger.Logger
	db             *sql.DB
	redisClient    *redis.Client
	cache          cache.Cache
	cacheManager   cache.CacheStrategy
	circuitBreaker *circuitbreaker.CircuitBreaker
	warmUpManager  *cache.WarmUpManager
	auditPool      *concurrent.WorkerPool
	shutdownTracer func(context.Context) error

	userRepository     domain.UserRepository
	postRepository     domain.PostRepository
	auditLogRepository domain.AuditLogRepository

	userService     domain.UserService
	postService     domain.PostService
	auditLogService domain.AuditLogService
}

// NewFactory builds the whole object graph. log may be nil, in which case a
// logger is created from cfg. Redis is optional: an empty address or an
// unreachable server leaves the cache disabled.
func NewFactory(ctx context.Context, cfg *config.Config, log logger.Logger) (Factory, error) {
	if log == nil {
		log = logger.New(logger.LogLevel(cfg.LogLevel), nil)
	}

	f := &AppFactory{
		config: cfg,
		logger: log,
	}

	shutdown, err := tracing.Init(ctx, cfg.ServiceName, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	f.shutdownTracer = shutdown

	if err := f.initAuditDB(ctx); err != nil {
		f.Close(ctx)
		return nil, err
	}

	f.initCache(ctx)
	f.initRepositories()
	f.initServices()

	if f.warmUpManager != nil {
		if err := f.warmUpManager.WarmUpUsers(ctx); err != nil {
			log.Warn("Cache arranca vazia", map[string]interface{}{"error": err.Error()})
		}
	}

	return f, nil
}

func (f *AppFactory) initAuditDB(ctx context.Context) error {
	db, err := database.Open(ctx, f.config.Audit.Driver, f.config.Audit.DSN)
	if err != nil {
		return err
	}
	f.db = db

	migrations := database.NewMigrationService(db, f.config.Audit.Driver, f.logger)
	if err := migrations.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrações não aplicadas: %w", err)
	}

	return nil
}

func (f *AppFactory) initCache(ctx context.Context) {
	if !f.config.Redis.Enabled() {
		f.logger.Info("Cache de utilizadores desativada", map[string]interface{}{})
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     f.config.Redis.Addr,
		Password: f.config.Redis.Password,
		DB:       f.config.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		f.logger.Warn("Redis indisponível, cache desativada", map[string]interface{}{
			"addr":  f.config.Redis.Addr,
			"error": err.Error(),
		})
		client.Close()
		return
	}

	f.circuitBreaker = circuitbreaker.New(circuitbreaker.Settings{
		Name:         "redis",
		IsSuccessful: cache.IsCacheSuccess,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			f.logger.Warn("Circuit breaker mudou de estado", map[string]interface{}{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})

	f.redisClient = client
	f.cache = cache.NewBreakerCache(cache.NewRedisCache(client, f.logger, f.config.ServiceName), f.circuitBreaker)
	f.cacheManager = cache.NewCacheManager(f.cache, f.logger)
}

func (f *AppFactory) initRepositories() {
	users := repository.NewUserRepository(repository.SeedUsers(), f.logger)
	if f.cache != nil {
		users = repository.NewCachedUserRepository(users, f.cache, f.cacheManager, f.config.Redis.CacheTTL, f.logger)
		f.warmUpManager = cache.NewWarmUpManager(f.cache, f.logger, users, f.config.Redis.CacheTTL)
	}

	f.userRepository = users
	f.postRepository = repository.NewPostRepository(domain.PostIDPolicy(f.config.Posts.IDPolicy), f.logger)
	f.auditLogRepository = repository.NewAuditLogRepository(f.db, f.logger)
}

func (f *AppFactory) initServices() {
	f.auditPool = concurrent.NewWorkerPool(
		f.config.Audit.Workers,
		f.config.Audit.QueueSize,
		f.auditLogRepository.Create,
		f.logger,
	)
	f.auditPool.Start()

	f.auditLogService = service.NewAuditLogService(f.auditLogRepository, f.auditPool, f.logger)
	f.userService = service.NewUserService(f.userRepository, f.postRepository, f.auditLogService, f.logger)
	f.postService = service.NewPostService(f.postRepository, f.userRepository, f.auditLogService, f.logger)
}

// Close drains the audit queue before closing the database, then releases
// Redis and flushes pending spans.
func (f *AppFactory) Close(ctx context.Context) error {
	var errs []error

	if f.auditPool != nil {
		f.auditPool.Stop()
	}
	if f.db != nil {
		if err := f.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("base de dados: %w", err))
		}
	}
	if f.redisClient != nil {
		if err := f.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if f.shutdownTracer != nil {
		if err := f.shutdownTracer(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (f *AppFactory) GetLogger() logger.Logger {
	return f.logger
}

func (f *AppFactory) GetConfig() *config.Config {
	return f.config
}

func (f *AppFactory) GetDB() *sql.DB {
	return f.db
}

func (f *AppFactory) GetRedisClient() *redis.Client {
	return f.redisClient
}

// GetCache returns nil while the cache is disabled.
func (f *AppFactory) GetCache() cache.Cache {
	return f.cache
}

func (f *AppFactory) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return f.circuitBreaker
}

func (f *AppFactory) GetWarmUpManager() *cache.WarmUpManager {
	return f.warmUpManager
}

func (f *AppFactory) GetAuditPool() *concurrent.WorkerPool {
	return f.auditPool
}

func (f *AppFactory) GetUserRepository() domain.UserRepository {
	return f.userRepository
}

func (f *AppFactory) GetPostRepository() domain.PostRepository {
	return f.postRepository
}

func (f *AppFactory) GetAuditLogRepository() domain.AuditLogRepository {
	return f.auditLogRepository
}

func (f *AppFactory) GetUserService() domain.UserService {
	return f.userService
}

func (f *AppFactory) GetPostService() domain.PostService {
	return f.postService
}

func (f *AppFactory) GetAuditLogService() domain.AuditLogService {
	return f.auditLogService
}
