// Package di wires the module's components together. The container manages
// singleton instances of the cache backend, the invalidation coordinator and
// the domain services, so embedding applications construct everything from
// one place.
package di

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-academy-core/academy"
	"github.com/goliatone/go-academy-core/cache"
	"github.com/goliatone/go-academy-core/courses"
	"github.com/goliatone/go-academy-core/internal/bunstore"
	"github.com/goliatone/go-academy-core/internal/cacheinfra"
	"github.com/goliatone/go-academy-core/notes"
	"github.com/goliatone/go-academy-core/repositorycache"
	"github.com/goliatone/go-academy-core/scope"
	"github.com/goliatone/go-academy-core/years"
)

// Container provides dependency injection for the academy core.
type Container struct {
	config   cache.Config
	kv       cache.KeyValue
	coord    *repositorycache.Coordinator
	resolver *scope.YearResolver
	years    *years.Service
	courses  *courses.Service
	grades   *notes.Coordinator
	logger   *slog.Logger
}

// NewDB wraps an opened *sql.DB with the dialect the durable stores expect.
func NewDB(sqldb *sql.DB) *bun.DB {
	return bunstore.New(sqldb)
}

// CreateSchema creates every table the module persists. Intended for example
// binaries and tests; production schemas are managed externally.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	return bunstore.CreateSchema(ctx, db)
}

// NewContainer builds a container backed by the in-memory sturdyc cache.
func NewContainer(db *bun.DB, config cache.Config, logger *slog.Logger) (*Container, error) {
	kv, err := cacheinfra.NewSturdycStore(config)
	if err != nil {
		return nil, err
	}
	return NewContainerWithBackend(db, kv, config, logger)
}

// NewContainerWithDefaults builds a container with the default cache
// configuration. Convenience constructor for typical setups.
func NewContainerWithDefaults(db *bun.DB, logger *slog.Logger) (*Container, error) {
	return NewContainer(db, cache.DefaultConfig(), logger)
}

// RedisConfig configures the shared-cluster cache backend.
type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

// NewContainerWithRedis builds a container backed by redis, for deployments
// where several nodes share one cache. Connectivity is verified up front so
// a misconfigured address fails at startup, not on the first degraded read.
func NewContainerWithRedis(ctx context.Context, db *bun.DB, redisCfg RedisConfig, config cache.Config, logger *slog.Logger) (*Container, error) {
	store := cacheinfra.NewRedisStore(cacheinfra.RedisConfig{
		Addr:     redisCfg.Addr,
		DB:       redisCfg.DB,
		Password: redisCfg.Password,
	})
	if err := store.Ping(ctx); err != nil {
		return nil, err
	}
	return NewContainerWithBackend(db, store, config, logger)
}

// NewContainerWithBackend builds a container around a caller-provided cache
// backend, e.g. the redis store for shared deployments.
func NewContainerWithBackend(db *bun.DB, kv cache.KeyValue, config cache.Config, logger *slog.Logger) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	coord := repositorycache.NewCoordinator(kv, logger)
	clock := academy.ClockFunc(time.Now)

	yearStore := bunstore.NewAcademicYearStore(db)
	resolver := scope.NewYearResolver(yearStore, kv, config, logger)

	return &Container{
		config:   config,
		kv:       kv,
		coord:    coord,
		resolver: resolver,
		years:    years.NewService(yearStore, kv, config, coord, resolver, clock, logger),
		courses:  courses.NewService(bunstore.NewCourseStore(db), kv, config, coord, clock, logger),
		grades: notes.NewCoordinator(notes.Stores{
			Students:    bunstore.NewStudentStore(db),
			Courses:     bunstore.NewCourseStore(db),
			Trimesters:  bunstore.NewTrimesterStore(db),
			Tests:       bunstore.NewTestStore(db),
			Enrollments: bunstore.NewEnrollmentStore(db),
			Notes:       bunstore.NewNoteStore(db),
		}, kv, config, coord, clock, logger),
		logger: logger,
	}, nil
}

// ResolveScope derives the request scope for one authenticated call: tenant
// from the principal, academic year explicit or current. Resolution failures
// abort the request before any business logic runs.
func (c *Container) ResolveScope(ctx context.Context, p scope.Principal, explicitYearID string, yearRequired bool) (scope.RequestScope, error) {
	tenantID, err := scope.ResolveTenant(p, true)
	if err != nil {
		return scope.RequestScope{}, err
	}
	return c.resolver.Resolve(ctx, tenantID, explicitYearID, yearRequired)
}

// KeyValue returns the cache backend, for advanced use cases.
func (c *Container) KeyValue() cache.KeyValue { return c.kv }

// Config returns a copy of the cache configuration used by this container.
func (c *Container) Config() cache.Config { return c.config }

// Invalidations returns the shared invalidation coordinator.
func (c *Container) Invalidations() *repositorycache.Coordinator { return c.coord }

// YearResolver returns the academic-year context resolver.
func (c *Container) YearResolver() *scope.YearResolver { return c.resolver }

// Years returns the academic-year service.
func (c *Container) Years() *years.Service { return c.years }

// Courses returns the course catalog service.
func (c *Container) Courses() *courses.Service { return c.courses }

// Grades returns the grade recording coordinator.
func (c *Container) Grades() *notes.Coordinator { return c.grades }
