package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/entwine-app/entwine/internal/cache"
	"github.com/entwine-app/entwine/internal/config"
	"github.com/entwine-app/entwine/internal/logger"
	"github.com/entwine-app/entwine/internal/providers/stt"
	"github.com/entwine-app/entwine/internal/repository"
	"github.com/entwine-app/entwine/internal/service"
	"github.com/entwine-app/entwine/internal/storage"
	"github.com/entwine-app/entwine/internal/transport/rest"
	"github.com/entwine-app/entwine/internal/transport/ws"
	"github.com/entwine-app/entwine/internal/workers"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer cancel()

	// Mongo
	mongoClient, err := mongo.Connect(bootCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("mongo connect failed")
	}
	if err := mongoClient.Ping(bootCtx, nil); err != nil {
		log.WithError(err).Fatal("mongo ping failed")
	}
	db := mongoClient.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(db); err != nil {
		log.WithError(err).Fatal("index bootstrap failed")
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(bootCtx).Err(); err != nil {
		log.WithError(err).Fatal("redis ping failed")
	}

	// Blob storage and speech
	uploader, err := storage.NewGCSUploader(bootCtx, cfg.GCSBucket)
	if err != nil {
		log.WithError(err).Fatal("gcs client failed")
	}
	speechProvider, err := stt.NewGoogleSpeech(bootCtx)
	if err != nil {
		log.WithError(err).Fatal("speech client failed")
	}

	// Repositories and caches
	sessionRepo := repository.NewSessionRepo(db)
	matchRepo := repository.NewMatchRepo(db)
	compatRepo := repository.NewCompatRepo(db)
	userRepo := repository.NewUserRepo(db)

	dashboardCache := cache.NewDashboardCache(redisClient)
	presenceCache := cache.NewPresenceCache(redisClient)
	transcribeQueue := cache.NewTranscribeQueue(redisClient, cfg.TranscribeStream)

	// Services
	timers := service.NewTimerService()
	matchSvc := service.NewMatchService(matchRepo)
	insightSvc := service.NewInsightService(cfg.AI, log)
	sessionSvc := service.NewSessionService(sessionRepo, matchSvc, userRepo, timers, log)

	wyrEngine := service.NewWYREngine(sessionRepo, timers, insightSvc, log)
	isEngine := service.NewISEngine(sessionRepo, timers, insightSvc, log)
	nhieEngine := service.NewNHIEEngine(sessionRepo, timers, insightSvc, log)
	engines := []*service.SyncEngine{wyrEngine, isEngine, nhieEngine}

	ttlSvc := service.NewTTLService(sessionRepo, insightSvc, log)
	wwydSvc := service.NewWWYDService(sessionRepo, insightSvc, uploader, transcribeQueue, log)
	boardSvc := service.NewBoardService(sessionRepo, insightSvc, uploader, transcribeQueue, log)

	aggregator := service.NewAggregator(sessionRepo, compatRepo, matchSvc, insightSvc, dashboardCache, log)

	// Websocket hub
	hub := ws.NewHub(log)
	go hub.Run()
	wsHandler := ws.NewHandler(hub, cfg.JWTSecret, engines, presenceCache, sessionSvc, log)

	sessionSvc.SetBroadcaster(hub)
	ttlSvc.SetBroadcaster(hub)
	wwydSvc.SetBroadcaster(hub)
	boardSvc.SetBroadcaster(hub)
	for _, e := range engines {
		e.SetBroadcaster(hub)
		sessionSvc.SetStartHook(e.GameType(), e.Start)
		if err := e.RecoverTimers(bootCtx); err != nil {
			log.WithError(err).WithField("game_type", e.GameType()).Error("timer recovery failed")
		}
	}

	// Background workers
	transcribePool := workers.NewTranscribePool(
		redisClient, cfg.TranscribeStream, cfg.TranscribeGroup, cfg.TranscribeWorkers,
		sessionRepo, speechProvider, wwydSvc, log)
	if err := transcribePool.Start(rootCtx); err != nil {
		log.WithError(err).Fatal("transcribe pool failed to start")
	}
	reaper, err := workers.NewReaper(sessionSvc, log)
	if err != nil {
		log.WithError(err).Fatal("reaper init failed")
	}
	if err := reaper.Start(rootCtx); err != nil {
		log.WithError(err).Fatal("reaper failed to start")
	}

	// HTTP
	router := rest.NewRouter(rest.Deps{
		Sessions:  rest.NewSessionHandler(sessionSvc, matchSvc, presenceCache, uploader),
		TTL:       rest.NewTTLHandler(ttlSvc),
		WWYD:      rest.NewWWYDHandler(wwydSvc),
		Board:     rest.NewBoardHandler(boardSvc),
		Compat:    rest.NewCompatHandler(aggregator),
		WS:        wsHandler,
		JWTSecret: cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown failed")
	}
	if err := reaper.Stop(); err != nil {
		log.WithError(err).Error("reaper shutdown failed")
	}
	transcribePool.Wait()
	timers.Shutdown()

	if err := speechProvider.Close(); err != nil {
		log.WithError(err).Error("speech client close failed")
	}
	if err := uploader.Close(); err != nil {
		log.WithError(err).Error("gcs client close failed")
	}
	if err := redisClient.Close(); err != nil {
		log.WithError(err).Error("redis close failed")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.WithError(err).Error("mongo disconnect failed")
	}
	log.Info("goodbye")
}
