package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Tasklist/internal/config"
	"Tasklist/internal/events"
	"Tasklist/internal/logging"
	"Tasklist/internal/store"
	"Tasklist/internal/tasks"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg          config.Config
	log          *logging.Logger
	db           *pgxpool.Pool
	redis        *redis.Client
	manager      *tasks.Manager
	cancelEvents func()
	router       *gin.Engine
}

func New(cfg config.Config) (*App, error) {
	log := logging.New()
	level, err := logging.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	a := &App{cfg: cfg, log: log.WithComponent("app")}

	if cfg.NeedsRedis() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
	}

	if cfg.Store.Driver == config.DriverPostgres {
		if cfg.PG.Migrate {
			if err := runMigrations(cfg.PG.DSN, cfg.PG.MigrationsDir); err != nil {
				a.closeConns()
				return nil, err
			}
		}
		db, err := newPostgres(cfg.PG.DSN)
		if err != nil {
			a.closeConns()
			return nil, err
		}
		a.db = db
	}

	st, err := a.newStore()
	if err != nil {
		a.closeConns()
		return nil, err
	}

	a.manager = tasks.New(st, tasks.Options{
		UndoWindow:  cfg.Undo.Window.Duration(),
		SaveTimeout: cfg.Store.Timeout.Duration(),
		Logger:      log,
	})
	if cfg.Redis.EventsChannel != "" {
		pub := events.NewRedisPublisher(a.redis, cfg.Redis.EventsChannel, log)
		a.cancelEvents = pub.Attach(a.manager)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout.Duration())
	defer cancel()
	if err := a.manager.Initialize(ctx); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	a.router = newRouter(cfg, a.manager)
	a.log.Info("app_ready", logging.Fields{"store": cfg.Store.Driver, "undo_window": cfg.Undo.Window.Duration().String()})
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Manager() *tasks.Manager {
	return a.manager
}

// Close flushes the task snapshot and then closes connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.manager != nil {
		if err := a.manager.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tasks close: %w", err))
		}
	}
	// After the manager so its final events still go out.
	if a.cancelEvents != nil {
		a.cancelEvents()
	}
	a.closeConns()
	return errors.Join(errs...)
}

func (a *App) closeConns() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *App) newStore() (store.Store, error) {
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		a.log.Warn("memory_store", logging.Fields{"note": "tasks are lost on restart"})
		return store.NewMemoryStore(), nil
	case config.DriverRedis:
		return store.NewRedisStore(a.redis, a.cfg.Store.Key), nil
	case config.DriverPostgres:
		return store.NewPGStore(a.db, a.cfg.Store.Key), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
}

func newPostgres(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func runMigrations(dsn string, migrationsDir string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func newRouter(cfg config.Config, mgr *tasks.Manager) *gin.Engine {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, mgr)
	return r
}
