package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"event-lifecycle/config"
	"event-lifecycle/internal/cache"
	"event-lifecycle/internal/database"
	"event-lifecycle/internal/handler"
	"event-lifecycle/internal/notify"
	"event-lifecycle/internal/queue"
	"event-lifecycle/internal/repository"
	"event-lifecycle/internal/service"
	"event-lifecycle/internal/ticket"
	"event-lifecycle/internal/worker"
	"event-lifecycle/pkg/logger"
	"event-lifecycle/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadConfig()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("event-lifecycle", cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// Repositories
	eventRepo := repository.NewEventRepository(pool)
	registrationRepo := repository.NewRegistrationRepository(pool)

	// Infrastructure
	guard := cache.NewRedisCapacityGuard(rdb)
	issuer := ticket.NewIssuer()

	notificationQueue, err := queue.NewRedisStreamNotificationQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize notification queue: %v", err)
	}

	var dispatcher notify.Dispatcher
	if cfg.Notify.WebhookURL != "" {
		dispatcher = notify.NewWebhookDispatcher(cfg.Notify.WebhookURL)
	} else {
		dispatcher = notify.NewLogDispatcher()
	}

	for i := 0; i < cfg.Notify.Workers; i++ {
		w := worker.NewNotificationWorker(dispatcher, notificationQueue)
		go func() {
			if err := w.Start(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Notification worker stopped: %v", err)
			}
		}()
	}

	// Services
	eventService := service.NewEventService(eventRepo, guard)
	registrationService := service.NewRegistrationService(registrationRepo, eventRepo, guard, issuer, notificationQueue)
	paymentService := service.NewPaymentService(registrationRepo, eventRepo, issuer, notificationQueue)
	attendanceService := service.NewAttendanceService(registrationRepo, eventRepo, issuer)

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewRegistrationHandler(registrationService).RegisterRoutes(router)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(router)
	handler.NewAttendanceHandler(attendanceService).RegisterRoutes(router)

	if err := router.Run(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
