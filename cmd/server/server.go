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
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/config"
	"github.com/thereayou/voxus/internal/database"
	"github.com/thereayou/voxus/internal/handlers"
	"github.com/thereayou/voxus/internal/pubsub"
	"github.com/thereayou/voxus/internal/services"
	"github.com/thereayou/voxus/internal/storage"
	"github.com/thereayou/voxus/internal/websocket"
	"github.com/thereayou/voxus/pkg/auth"
)

var (
	_ services.Store          = (*database.Database)(nil)
	_ handlers.UserRepository = (*database.Database)(nil)
	_ handlers.Presence       = (*websocket.Hub)(nil)
	_ pubsub.Deliverer        = (*websocket.Hub)(nil)
)

type Server struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Broker     *pubsub.RedisBroker
	Hub        *websocket.Hub
	JWTManager *auth.JWTManager
}

func NewServer(cfg config.Config) *Server {
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	broker := pubsub.NewRedisBroker(rdb)
	hub := websocket.NewHub(nil)

	// без S3 вложения отклоняются, текст работает
	var uploader services.BlobUploader
	s3u, err := storage.NewS3Uploader(storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
		Folder:    cfg.S3Folder,
	})
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		log.Warn().Msg("S3 is not configured, attachments are disabled")
	case err != nil:
		log.Fatal().Err(err).Msg("S3 init failed")
	default:
		uploader = s3u
	}

	conversations := services.NewConversationService(dbConn, broker)
	groups := services.NewGroupService(dbConn, broker)
	friends := services.NewFriendshipService(dbConn, conversations, broker)
	messages := services.NewMessageService(dbConn, uploader, broker)
	calls := services.NewCallService(dbConn, services.NewRedisLocker(rdb, cfg.CallLockTTL), broker)

	msgH := handlers.NewMessageHandler(messages, calls)
	hub.SetAuthorizer(msgH)

	h := Handlers{
		Auth:          handlers.NewAuthHandler(dbConn, jwtMgr, rdb),
		Users:         handlers.NewUserHandler(dbConn, friends, hub),
		Conversations: handlers.NewConversationHandler(conversations, messages),
		Groups:        handlers.NewGroupHandler(groups, messages),
		Friends:       handlers.NewFriendshipHandler(friends),
		Calls:         handlers.NewCallHandler(calls),
		WebSocket:     handlers.NewWebSocketHandler(hub, msgH, cfg.AllowedOrigins),
	}

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	APIEndpoints(router, h, jwtMgr, rdb)

	return &Server{
		Config:     cfg,
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		Broker:     broker,
		Hub:        hub,
		JWTManager: jwtMgr,
	}
}

// Run блокируется до SIGINT/SIGTERM и затем аккуратно гасит сервер
func (s *Server) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.Hub.Run()
	go func() {
		if err := s.Broker.Run(ctx, s.Hub); err != nil {
			log.Error().Err(err).Msg("redis fan-out stopped")
		}
	}()

	httpSrv := &http.Server{
		Addr:              ":" + s.Config.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", s.Config.Port).Msg("server starting")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server run error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	s.Hub.Stop()
	if err := s.Redis.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if err := s.DB.Close(); err != nil {
		log.Error().Err(err).Msg("postgres close")
	}
}
