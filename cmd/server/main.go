package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/do"
	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/infra/cache"
	"github.com/stickerpack-io/stickerpack/internal/infra/database"
	"github.com/stickerpack-io/stickerpack/internal/infra/falclient"
	"github.com/stickerpack-io/stickerpack/internal/infra/logger"
	mq "github.com/stickerpack-io/stickerpack/internal/infra/queue"
	"github.com/stickerpack-io/stickerpack/internal/infra/server"
	"github.com/stickerpack-io/stickerpack/internal/infra/telemetry"
	"github.com/stickerpack-io/stickerpack/internal/modules/handler"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/modules/repo"
	"github.com/stickerpack-io/stickerpack/internal/modules/service"
	"github.com/stickerpack-io/stickerpack/internal/modules/worker"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Fatal("setup telemetry", zap.Error(err))
	}

	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)

	do.Provide(injector, func(i *do.Injector) (*gorm.DB, error) {
		return database.Open(do.MustInvoke[*config.Config](i))
	})
	do.Provide(injector, func(i *do.Injector) (repo.StickerRepo, error) {
		return repo.NewStickerRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (repo.UserRepo, error) {
		return repo.NewUserRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Both the preview tier and the event broker are optional; the services
	// treat a nil dependency as the feature being switched off.
	do.Provide(injector, func(i *do.Injector) (service.PreviewCache, error) {
		if cfg.Redis.Addr == "" {
			log.Info("redis not configured, previews disabled")
			return nil, nil
		}
		return cache.NewPreviewStore(cfg)
	})
	do.Provide(injector, func(i *do.Injector) (*amqp.Connection, error) {
		if cfg.RabbitMQ.URL == "" {
			return nil, nil
		}
		return mq.Dial(cfg)
	})
	do.Provide(injector, func(i *do.Injector) (service.EventPublisher, error) {
		conn := do.MustInvoke[*amqp.Connection](i)
		if conn == nil {
			log.Info("rabbitmq not configured, unlock events disabled")
			return nil, nil
		}
		return mq.NewPublisher(conn, log, cfg, func() (*amqp.Connection, error) {
			return mq.Dial(cfg)
		})
	})

	do.Provide(injector, func(i *do.Injector) (*falclient.Client, error) {
		return falclient.New(cfg, log), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.StickerService, error) {
		return service.NewStickerService(
			do.MustInvoke[repo.StickerRepo](i),
			do.MustInvoke[service.PreviewCache](i),
			cfg, log,
		), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.GenerationService, error) {
		return service.NewGenerationService(cfg, do.MustInvoke[*falclient.Client](i), log), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.PaymentService, error) {
		return service.NewPaymentService(cfg, do.MustInvoke[service.StickerService](i), log), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.SettlementService, error) {
		return service.NewSettlementService(cfg,
			do.MustInvoke[repo.StickerRepo](i),
			do.MustInvoke[service.EventPublisher](i),
			log,
		), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.ImageGateService, error) {
		return service.NewImageGateService(cfg, do.MustInvoke[service.StickerService](i), log), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.AccountService, error) {
		return service.NewAccountService(do.MustInvoke[repo.UserRepo](i), cfg, log), nil
	})

	do.Provide(injector, func(i *do.Injector) (*gin.Engine, error) {
		h := server.Handlers{
			Auth:     handler.NewAuthHandler(do.MustInvoke[service.AccountService](i)),
			Generate: handler.NewGenerateHandler(do.MustInvoke[service.GenerationService](i), do.MustInvoke[service.StickerService](i)),
			Payment:  handler.NewPaymentHandler(do.MustInvoke[service.PaymentService](i), do.MustInvoke[service.SettlementService](i), log),
			Sticker:  handler.NewStickerHandler(do.MustInvoke[service.StickerService](i), do.MustInvoke[service.ImageGateService](i)),
		}
		return server.New(cfg, do.MustInvoke[repo.UserRepo](i), h, log), nil
	})

	engine := do.MustInvoke[*gin.Engine](injector)

	if conn := do.MustInvoke[*amqp.Connection](injector); conn != nil {
		consumer, err := mq.NewConsumer(conn, model.UnlockEventRoutingKey, log, cfg)
		if err != nil {
			log.Fatal("create unlock consumer", zap.Error(err))
		}
		notifier := worker.NewNotifier(consumer, log)
		go func() {
			if err := notifier.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("unlock notifier stopped", zap.Error(err))
			}
		}()
	}

	go runJanitor(ctx, do.MustInvoke[service.StickerService](injector), cfg, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if err := injector.Shutdown(); err != nil {
		log.Error("injector shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown", zap.Error(err))
	}
}

// runJanitor periodically purges expired anonymous stickers.
func runJanitor(ctx context.Context, stickers service.StickerService, cfg *config.Config, log *zap.Logger) {
	interval := cfg.Image.RetentionInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := stickers.PurgeExpired(ctx)
			if err != nil {
				log.Error("purge expired stickers", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired stickers", zap.Int64("count", n))
			}
		}
	}
}
