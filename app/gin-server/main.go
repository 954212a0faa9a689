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
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/lexispeak/config"
	"github.com/yoockh/lexispeak/internal/api/handlers"
	"github.com/yoockh/lexispeak/internal/api/middleware"
	"github.com/yoockh/lexispeak/internal/api/routes"
	"github.com/yoockh/lexispeak/internal/cache"
	"github.com/yoockh/lexispeak/internal/events"
	"github.com/yoockh/lexispeak/internal/logger"
	"github.com/yoockh/lexispeak/internal/orchestrator"
	mongorepo "github.com/yoockh/lexispeak/internal/repositories/mongo"
	pgrepo "github.com/yoockh/lexispeak/internal/repositories/postgres"
	"github.com/yoockh/lexispeak/internal/services"
	"github.com/yoockh/lexispeak/internal/speech"
	"github.com/yoockh/lexispeak/internal/storage"
	"github.com/yoockh/lexispeak/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadApp()
	log := logger.New(cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL is the only hard dependency
	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	if err := config.MigratePostgres(config.PostgresDB); err != nil {
		log.WithError(err).Fatal("PostgreSQL migrate error")
	}
	log.Info("PostgreSQL connected")
	db := config.PostgresDB

	var (
		c    cache.Cache
		pub  events.Publisher
		feed handlers.Subscriber
	)
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("Redis unavailable: in-process cache, no live events")
		c = cache.NewMemoryCache(cfg.TopicCacheTTL, 10*time.Minute)
	} else {
		log.Info("Redis connected")
		c = cache.NewRedisCache(config.RedisClient, "lexispeak")
		rp := events.NewRedisPublisher(config.RedisClient)
		pub, feed = rp, rp
		defer config.RedisClient.Close()
	}

	var buffers services.BufferService
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Warn("MongoDB unavailable: utterance trace disabled")
	} else {
		if err := config.EnsureMongoIndexes(); err != nil {
			log.WithError(err).Warn("MongoDB indexes")
		}
		buffers = services.NewBufferService(mongorepo.NewBufferRepo(config.MongoDatabase()), cfg.TraceTTL)
		log.Info("MongoDB connected")
		defer config.MongoClient.Disconnect(context.Background())
	}

	var archive storage.Uploader
	if cfg.AudioArchiveBucket != "" {
		u, err := storage.NewGCSUploader(ctx, cfg.AudioArchiveBucket)
		if err != nil {
			log.WithError(err).Warn("GCS unavailable: audio archive disabled")
		} else {
			archive = u
			defer u.Close()
		}
	}

	p, err := newProviders(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("speech providers")
	}
	defer p.Close()

	adapter := speech.NewAdapter(speech.Config{Timeout: cfg.SpeechTimeout, Language: cfg.STTLanguage}, p.stt, p.llm, p.tts, log)

	// repositories and services
	sessionRepo := pgrepo.NewSessionRepo(db)
	turnRepo := pgrepo.NewTurnRepo(db)

	topicSvc := services.NewTopicService(pgrepo.NewTopicRepo(db), c, cfg.TopicCacheTTL)
	sessionSvc := services.NewSessionService(sessionRepo)
	convSvc := services.NewConversationService(turnRepo, sessionSvc)
	reportSvc := services.NewReportService(pgrepo.NewReportRepo(db), c, cfg.StatsCacheTTL)
	permSvc := services.NewPermissionService(pgrepo.NewQuotaRepo(db))
	gateway := services.NewGateway(topicSvc, sessionSvc, convSvc, reportSvc)

	deps := orchestrator.Deps{
		Gateway:  gateway,
		Pipeline: adapter,
		Archive:  archive,
		Events:   pub,
		Log:      log,
	}
	if buffers != nil {
		deps.Tracer = buffers
	}
	orch := orchestrator.New(orchestrator.Config{
		ListenTimeout:   cfg.ListenTimeout,
		GreetingPause:   cfg.GreetingPause,
		FinalizeTimeout: cfg.SpeechTimeout,
		MaxDuration:     cfg.MaxSession(),
	}, deps)

	finalizer := &workers.Finalizer{
		Sessions: sessionRepo,
		Turns:    turnRepo,
		Gateway:  gateway,
		Redis:    config.RedisClient,
		Logger:   log,
		MaxAge:   cfg.StaleAfter(),
		Interval: cfg.FinalizerInterval,
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Conversation: handlers.NewConversationHandler(permSvc, convSvc, reportSvc, buffers),
		Topic:        handlers.NewTopicHandler(topicSvc),
		WS:           handlers.NewWSHandler(permSvc, sessionSvc, orch, feed, log),
		JWT: middleware.JWTConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return finalizer.Start(gctx) })
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped")
		return
	}
	log.Info("server stopped")
}
