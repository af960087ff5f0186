package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/handlers"
	"github.com/bluezpowerhouse/autoshop/internal/jobs"
	"github.com/bluezpowerhouse/autoshop/internal/outbox"
	"github.com/bluezpowerhouse/autoshop/internal/storage"
	"github.com/bluezpowerhouse/autoshop/libs/config"
	"github.com/bluezpowerhouse/autoshop/libs/db"
	"github.com/bluezpowerhouse/autoshop/libs/httpx"
	"github.com/bluezpowerhouse/autoshop/libs/kafkax"
	otelx "github.com/bluezpowerhouse/autoshop/libs/otel"
	"github.com/bluezpowerhouse/autoshop/libs/runtime"
	"github.com/bluezpowerhouse/autoshop/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "autoshop")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	if err := db.Migrate(dbURL, migrations.FS); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	orderRepo := storage.NewOrderRepository(pool)
	apptRepo := storage.NewAppointmentRepository(pool)
	partRepo := storage.NewPartRepository(pool)
	contactRepo := storage.NewContactRepository(pool)
	userRepo := storage.NewUserRepository(pool)
	shopRepo := storage.NewShopRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	reminderRepo := jobs.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	worker := jobs.NewWorker(pool, reminderRepo, orderRepo, outboxRepo, logger, jobs.WorkerConfig{
		PollEvery: config.Duration("WORKER_POLL_INTERVAL", 30*time.Second),
		BatchSize: config.Int("WORKER_BATCH_SIZE", 100),
	})
	go worker.Run(ctx)

	authHandler := handlers.NewAuthHandler(userRepo, logger, jwtSecret, config.Duration("TOKEN_TTL", 12*time.Hour))
	if err := authHandler.Bootstrap(ctx, config.String("ADMIN_EMAIL", ""), config.String("ADMIN_PASSWORD", "")); err != nil {
		logger.Error("admin bootstrap failed", "err", err)
	}

	orderHandler := handlers.NewOrderHandler(orderRepo, contactRepo, outboxRepo, logger)
	apptHandler := handlers.NewAppointmentHandler(apptRepo, partRepo, userRepo, reminderRepo, outboxRepo, logger, config.Duration("REMINDER_LEAD", 24*time.Hour))
	partHandler := handlers.NewPartHandler(partRepo, contactRepo, logger)
	contactHandler := handlers.NewContactHandler(contactRepo, logger)
	dashHandler := handlers.NewDashboardHandler(orderRepo, apptRepo, partRepo, contactRepo, logger)
	shopHandler := handlers.NewShopHandler(shopRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)

	authed := func(h http.HandlerFunc) http.Handler {
		return authHandler.RequireAuth(h)
	}
	manager := handlers.RequireRole("manager")
	managed := func(h http.HandlerFunc) http.Handler {
		return authHandler.RequireAuth(manager(h))
	}

	mux.Handle("/api/v1/auth/me", authed(authHandler.Me))

	mux.Handle("/api/v1/orders", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			orderHandler.Create(w, r)
			return
		}
		orderHandler.List(w, r)
	}))
	mux.Handle("/api/v1/orders/get", authed(orderHandler.Get))
	mux.Handle("/api/v1/orders/urgent", authed(orderHandler.Urgent))
	mux.Handle("/api/v1/orders/overdue", authed(orderHandler.Overdue))
	mux.Handle("/api/v1/orders/confirm", managed(orderHandler.Confirm))
	mux.Handle("/api/v1/orders/ship", managed(orderHandler.Ship))
	mux.Handle("/api/v1/orders/deliver", managed(orderHandler.Deliver))
	mux.Handle("/api/v1/orders/cancel", managed(orderHandler.Cancel))
	mux.Handle("/api/v1/orders/time-limit", managed(orderHandler.SetTimeLimit))

	mux.Handle("/api/v1/appointments", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			apptHandler.Create(w, r)
			return
		}
		apptHandler.List(w, r)
	}))
	mux.Handle("/api/v1/appointments/get", authed(apptHandler.Get))
	mux.Handle("/api/v1/appointments/update", authed(apptHandler.Update))
	mux.Handle("/api/v1/appointments/start", authed(apptHandler.Start))
	mux.Handle("/api/v1/appointments/complete", authed(apptHandler.Complete))
	mux.Handle("/api/v1/appointments/cancel", authed(apptHandler.Cancel))
	mux.Handle("/api/v1/appointments/no-show", authed(apptHandler.NoShow))

	mux.Handle("/api/v1/parts", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			partHandler.Create(w, r)
			return
		}
		partHandler.List(w, r)
	}))
	mux.Handle("/api/v1/parts/get", authed(partHandler.Get))
	mux.Handle("/api/v1/parts/update", managed(partHandler.Update))
	mux.Handle("/api/v1/parts/low-stock", authed(partHandler.LowStock))
	mux.Handle("/api/v1/parts/restock", managed(partHandler.Restock))
	mux.Handle("/api/v1/parts/deactivate", managed(partHandler.Deactivate))

	mux.Handle("/api/v1/contacts", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			contactHandler.Create(w, r)
			return
		}
		contactHandler.List(w, r)
	}))
	mux.Handle("/api/v1/contacts/get", authed(contactHandler.Get))
	mux.Handle("/api/v1/contacts/update", managed(contactHandler.Update))
	mux.Handle("/api/v1/contacts/deactivate", managed(contactHandler.Deactivate))

	mux.Handle("/api/v1/dashboard/stats", authed(dashHandler.Stats))

	// GET is open to any authenticated user; the PUT branch checks for admin.
	mux.Handle("/api/v1/shop/info", authed(shopHandler.Info))

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 30*time.Second)),
		httpx.WithBodyLimit(1 << 20),
	}
	if origins := strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ","); len(origins) > 0 && strings.TrimSpace(origins[0]) != "" {
		middlewares = append(middlewares, httpx.WithCORS(httpx.DashboardCORSPolicy(origins)))
	}
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		limiter := httpx.NewRedisRateLimiter(rdb, config.Int("RATE_LIMIT", 120), time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
