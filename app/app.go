package app

import (
	"context"
	"fmt"
	"time"

	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/lending"
	"Gin_postgres_redis_library/notify"
	"Gin_postgres_redis_library/session"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router  *gin.Engine
	DB      *gorm.DB
	RDB     *redis.Client
	WA      *webauthn.WebAuthn
	Config  config.Config
	Log     *zap.Logger
	Repo    *db.Repo
	Notify  *notify.Sink
	Lending *lending.Service

	appSess *session.AppSessionStore
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

// NewLogger picks a development or production zap config from APP_ENV.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// New wires an App around already opened connections.
func New(cfg config.Config, log *zap.Logger, conn *gorm.DB, rdb *redis.Client) (*App, error) {
	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Library Passkeys",
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("webauthn: %w", err)
	}

	repo := db.NewRepo(conn)
	sink := notify.NewSink(repo, rdb, log.Named("notify"))
	svc := lending.NewService(repo, lending.PolicyFrom(cfg.Lending),
		lending.WithNotifier(sink), lending.WithLogger(log.Named("lending")))

	gin.SetMode(gin.ReleaseMode)
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(RequestLogger(log.Named("http")), gin.Recovery())
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router: r, DB: conn, RDB: rdb, WA: wa, Config: cfg, Log: log,
		Repo: repo, Notify: sink, Lending: svc,
		appSess: session.NewAppSessionStore(rdb, 24*time.Hour),
	}, nil
}

// MustNew connects to Postgres and Redis from cfg and exits on failure.
func MustNew(cfg config.Config, log *zap.Logger) *App {
	for _, w := range cfg.Warnings {
		log.Warn("config", zap.String("detail", w))
	}

	dbConn := db.ConnectDB(cfg.DatabaseURL, log)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	a, err := New(cfg, log, dbConn, rdb)
	if err != nil {
		log.Fatal("init app", zap.Error(err))
	}
	return a
}

func (a *App) Close() { _ = a.RDB.Close() }
