package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Leganyst/booking-core/internal/booking"
	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/config"
	"github.com/Leganyst/booking-core/internal/db"
	"github.com/Leganyst/booking-core/internal/events"
	"github.com/Leganyst/booking-core/internal/handlers"
	"github.com/Leganyst/booking-core/internal/logger"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/mq"
	"github.com/Leganyst/booking-core/internal/repository"
	"github.com/Leganyst/booking-core/internal/service"
	"github.com/Leganyst/booking-core/internal/snapshot"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 0. .env необязателен.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	// 1. Конфиг и логгер.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("booking core stopped", zap.Error(err))
	}
	lg.Info("booking core stopped")
}

func run(ctx context.Context, cfg config.App, lg *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	grid, err := cfg.Grid()
	if err != nil {
		return err
	}

	// 2. Хранилище снимка и журнал аудита.
	store, audit, closeStore, err := openStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Публикация событий: аудит в БД и RabbitMQ, если заданы.
	pubs := events.Multi{}
	if audit != nil {
		pubs = append(pubs, audit)
	}
	if cfg.AMQPURL != "" {
		amqpPub, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer amqpPub.Close()
		pubs = append(pubs, amqpPub)
		lg.Info("publishing events to rabbitmq", zap.String("exchange", cfg.AMQPExchange))
	}

	// 4. Календарь и реестр броней, восстановление из снимка.
	cal := calendar.New(calendar.SystemClock{}, calendar.WithLocation(loc))
	reg := booking.NewRegistry(cal, store,
		booking.WithReservationTTL(cfg.ReservationTTL),
		booking.WithGrid(grid),
		booking.WithPublishTimeout(cfg.PublishTimeout),
		booking.WithPublisher(pubs),
		booking.WithLogger(lg.Named("booking")),
	)
	if err := reg.Restore(ctx); err != nil {
		return err
	}

	defaults := booking.SlotQuery{
		DaysAhead:       cfg.DaysAhead,
		Start:           grid.Start,
		End:             grid.End,
		IntervalMinutes: grid.IntervalMinutes,
	}

	// 5. gRPC-сервер.
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		service.RecoveryInterceptor(lg.Named("grpc")),
		service.LoggingInterceptor(lg.Named("grpc")),
	))
	service.RegisterBookingServer(grpcServer, service.NewBookingService(reg, defaults, lg))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	// 6. HTTP-сервер.
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	var auditLog handlers.AuditLog
	if audit != nil {
		auditLog = audit
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handlers.NewRouter(handlers.NewBookingHandler(reg, defaults, auditLog), lg.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 7. Запускаем всё и ждём сигнала.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("core gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		lg.Info("core HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reg.RunSweeper(gctx, cfg.SweepInterval)
	})

	// 8. Грейсфул-шатдаун.
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down servers...")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	return g.Wait()
}

// openStore выбирает SnapshotStore по SNAPSHOT_BACKEND. Журнал аудита
// доступен только с бэкендом db.
func openStore(ctx context.Context, cfg config.App, lg *zap.Logger) (snapshot.Store, *repository.GormEventRepository, func(), error) {
	noop := func() {}

	switch cfg.SnapshotBackend {
	case config.SnapshotDB:
		dbCfg, err := config.LoadDBConfig()
		if err != nil {
			return nil, nil, noop, err
		}
		gormDB, err := db.NewGormDB(dbCfg)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := model.AutoMigrate(gormDB); err != nil {
			return nil, nil, noop, err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, noop, err
		}
		lg.Info("snapshot backend: database", zap.String("driver", dbCfg.Driver))
		return repository.NewGormSnapshotRepository(gormDB, cfg.SnapshotKey),
			repository.NewGormEventRepository(gormDB),
			func() { _ = sqlDB.Close() },
			nil

	case config.SnapshotRedis:
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		client, err := snapshot.NewRedisClient(pingCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, noop, err
		}
		lg.Info("snapshot backend: redis", zap.String("addr", cfg.RedisAddr))
		return snapshot.NewRedisStore(client, cfg.SnapshotKey), nil, func() { _ = client.Close() }, nil

	case config.SnapshotMemory:
		lg.Warn("snapshot backend: memory, state is lost on restart")
		return snapshot.NewMemoryStore(), nil, noop, nil

	default:
		lg.Warn("snapshot backend disabled")
		return snapshot.Nop{}, nil, noop, nil
	}
}
