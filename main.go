package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"bitsbarter/internal/auth"
	"bitsbarter/internal/db"
	"bitsbarter/internal/handlers"
	"bitsbarter/internal/middleware"
	"bitsbarter/internal/observability"
	"bitsbarter/internal/rabbitmq"
	"bitsbarter/internal/rates"
	"bitsbarter/internal/repositories"
	"bitsbarter/internal/sweep"
	"bitsbarter/internal/telemetry"
	"bitsbarter/internal/ws"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Str("service", "bitsbarter").Logger()

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, "bitsbarter")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}

	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, shared caches disabled")
			rdb = nil
		}
	}

	publisher := rabbitmq.NewPublisher(os.Getenv("AMQP_URL"), getEnv("AMQP_EXCHANGE", "bitsbarter.events"))
	defer publisher.Close()
	events := telemetry.NewEventEmitter(publisher, "bitsbarter", getEnv("ENVIRONMENT", "development"))

	sessions := auth.NewManager(getEnv("SESSION_SECRET", "dev-secret-change-me"), 30*24*time.Hour)

	userRepo := repositories.NewUserRepo(database)
	listingRepo := repositories.NewListingRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	offerRepo := repositories.NewOfferRepo(database)
	blockRepo := repositories.NewBlockRepo(database)

	hub := ws.NewHub()

	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, userRepo, listingRepo, hub, events)
	offerHandler := handlers.NewOfferHandler(offerRepo, chatRepo, listingRepo, hub, events)
	listingHandler := handlers.NewListingHandler(listingRepo, userRepo, events)
	accountHandler := handlers.NewAccountHandler(userRepo, blockRepo)
	authHandler := handlers.NewAuthHandler(userRepo, sessions)
	ratesHandler := handlers.NewRatesHandler(rates.NewService(rdb,
		getEnv("RATE_API_URL", "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"),
		5*time.Minute))

	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, sessions)

	scheduler, err := sweep.Start(offerRepo, getEnv("OFFER_SWEEP_SCHEDULE", "@every 1m"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start offer expiry sweep")
	}
	defer scheduler.Stop()

	var counter middleware.Counter
	if rdb != nil {
		counter = middleware.NewRedisCounter(rdb)
	}
	limiter := middleware.NewRateLimiter(counter, envInt("RATE_LIMIT_PER_MINUTE", 60), time.Minute)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("bitsbarter"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(sessions)
	rateLimit := limiter.Middleware()

	router.POST("/auth/login", rateLimit, authHandler.Login)
	router.POST("/auth/logout", authHandler.Logout)

	router.POST("/chat/send", rateLimit, chatHandler.SendMessage)
	router.GET("/chat/:chat_id", chatHandler.GetMessages)
	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.DELETE("/chat/:chat_id/me", authMiddleware, chatHandler.HideChat)
	router.POST("/chat/:chat_id/unhide", authMiddleware, chatHandler.UnhideChat)

	router.POST("/offers/send", authMiddleware, rateLimit, offerHandler.SendOffer)
	router.POST("/offers/action", authMiddleware, offerHandler.ActOnOffer)
	router.GET("/offers/check", authMiddleware, offerHandler.CheckOffer)

	router.POST("/listings", authMiddleware, rateLimit, listingHandler.CreateListing)
	router.GET("/listings/:listing_id", listingHandler.GetListing)
	router.DELETE("/admin/listings/:listing_id", authMiddleware, listingHandler.AdminDeleteListing)

	router.GET("/me", authMiddleware, accountHandler.Me)
	router.PUT("/me/username", authMiddleware, accountHandler.SetUsername)
	router.POST("/blocks/:user_id", authMiddleware, accountHandler.Block)
	router.DELETE("/blocks/:user_id", authMiddleware, accountHandler.Unblock)

	router.GET("/rates/btc", ratesHandler.BTCRate)
	router.GET("/ws/chats/:chat_id", chatWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", handlers.Healthz(publisher))

	port := getEnv("PORT", "8080")
	log.Info().Str("port", port).Msg("starting server")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// envInt parses a positive integer from the environment, falling back on a
// missing, malformed or non-positive value.
func envInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", val).Int("fallback", fallback).Msg("invalid integer env var")
		return fallback
	}
	return n
}
