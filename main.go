package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"pitchey-api/internal/auth"
	"pitchey-api/internal/cache"
	"pitchey-api/internal/config"
	"pitchey-api/internal/db"
	"pitchey-api/internal/handlers"
	"pitchey-api/internal/logging"
	"pitchey-api/internal/messaging"
	"pitchey-api/internal/middleware"
	"pitchey-api/internal/observability"
	"pitchey-api/internal/rabbitmq"
	"pitchey-api/internal/repositories"
	"pitchey-api/internal/telemetry"
	"pitchey-api/internal/ws"
)

const sessionSweepInterval = 15 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	database, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to connect to db", "error", err)
	}
	defer database.Close()

	kv := cache.New(ctx, cfg.RedisURL)
	if closer, ok := kv.(*cache.Redis); ok {
		defer closer.Close()
	}
	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, "audit", cfg.ServiceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	sessionRepo := repositories.NewSessionRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	cookies := auth.CookieConfig{
		Primary: cfg.SessionCookieName,
		Legacy:  cfg.LegacySessionCookies,
		Secret:  cfg.CookieSecret,
		Secure:  cfg.CookieSecure,
	}
	sessions := auth.NewSessionStore(sessionRepo, kv, cfg.SessionCacheTTL)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	resolver := auth.NewIdentityResolver(
		auth.NewCookieSessionStrategy(cookies, sessions),
		auth.NewSessionAPIStrategy(cookies, sessions),
		auth.NewBearerJWTStrategy(tokens, userRepo),
	)
	authService := auth.NewService(userRepo, sessions, tokens, cfg.SessionTTL)

	store := messaging.NewStore(conversationRepo, messageRepo, userRepo)
	hub := ws.NewHub(audit)

	authHandler := handlers.NewAuthHandler(authService, resolver, cookies, audit)
	messagingHandler := handlers.NewMessagingHandler(store, hub, audit)
	healthHandler := handlers.NewHealthHandler(func(ctx context.Context) error { return db.Ping(ctx, database) }, map[string]string{
		"cache": cache.Mode(kv),
		"audit": rabbitmq.PublisherMode(publisher),
	})
	conversationWS := ws.NewConversationWebSocketHandler(hub, resolver, conversationRepo, audit, allowedOrigin(cfg.CORSOrigins))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(logging.RequestLogger(logger))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler.Register(router.Group("/api/auth"))
	messagingHandler.Register(router.Group("/api", middleware.RequireAuth(resolver)))
	router.GET("/ws/conversations/:id", conversationWS.Handle)
	handlers.RegisterDebugRoutes(router, audit, hub, cfg.DebugRoutes && !cfg.IsProduction())

	go sweepSessions(ctx, sessions)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server listening", "port", cfg.Port, "cache", cache.Mode(kv), "audit", rabbitmq.PublisherMode(publisher))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "error", err)
	}
}

// sweepSessions periodically deletes expired session rows.
func sweepSessions(ctx context.Context, sessions *auth.SessionStore) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				log.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("expired sessions purged", "count", n)
			}
		}
	}
}

// allowedOrigin accepts websocket handshakes from the CORS origins, and
// from clients that send no Origin header.
func allowedOrigin(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
