package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/formalin/internal/adapter/handler"
	"github.com/rl1809/formalin/internal/adapter/storage"
	"github.com/rl1809/formalin/internal/config"
	"github.com/rl1809/formalin/internal/core/service"
	"github.com/rl1809/formalin/internal/core/timefmt"
	"github.com/rl1809/formalin/internal/port"
	"github.com/rl1809/formalin/internal/scheduler"
	"github.com/rl1809/formalin/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQL store
	db, dialect, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		baseLogger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	sqlAdapter := storage.NewSQLAdapter(db, dialect)
	if err := sqlAdapter.Migrate(ctx); err != nil {
		baseLogger.Fatal("failed to migrate schema", zap.Error(err))
	}
	baseLogger.Info("connected to database", zap.String("driver", cfg.Database.Driver))

	// Initialize Redis (optional)
	var cache port.CacheRepository
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			baseLogger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		cache = storage.NewRedisAdapter(rdb)
		baseLogger.Info("idempotency keys enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		baseLogger.Warn("REDIS_ADDR not set, idempotency keys disabled")
	}

	// Initialize MongoDB (optional)
	var reports port.ReportRepository
	if cfg.MongoDB.URI != "" {
		mongoAdapter, err := storage.NewMongoAdapter(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb", zap.Error(err))
		}
		defer func() {
			if err := mongoAdapter.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		reports = mongoAdapter
	} else {
		baseLogger.Warn("MONGODB_URI not set, expiry reports are only logged")
	}

	// Initialize services
	normalizer := timefmt.New(cfg.Time.UTCOffset)
	itemSvc := service.NewItemService(sqlAdapter, sqlAdapter, cache, normalizer, logger.Named(baseLogger, "svc.items"))
	expirySvc := service.NewExpiryService(sqlAdapter, normalizer)
	userSvc := service.NewUserService(sqlAdapter, logger.Named(baseLogger, "svc.users"))

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, expirySvc, reports, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Start gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterItemServiceServer(grpcServer, handler.NewGRPCHandler(itemSvc, logger.Named(baseLogger, "handlers.grpc")))

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		baseLogger.Fatal("failed to listen", zap.String("port", cfg.Server.GRPCPort), zap.Error(err))
	}

	go func() {
		baseLogger.Info("grpc server starting", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			baseLogger.Error("grpc server error", zap.Error(err))
		}
	}()

	// Start HTTP server
	engine := handler.NewRouter(
		handler.NewHTTPHandler(itemSvc, expirySvc, logger.Named(baseLogger, "handlers.items")),
		handler.NewUserHandler(userSvc, logger.Named(baseLogger, "handlers.users")),
		logger.Named(baseLogger, "router"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("http server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	baseLogger.Info("servers stopped")
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, storage.Dialect, error) {
	switch cfg.Driver {
	case "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = storage.MySQLDSN(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
		}
		db, err := storage.OpenMySQL(ctx, dsn)
		return db, storage.DialectMySQL, err
	default:
		db, err := storage.OpenSQLite(ctx, cfg.DSN)
		return db, storage.DialectSQLite, err
	}
}
