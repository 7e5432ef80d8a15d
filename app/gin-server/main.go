package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosocial/config"
	"github.com/yoockh/yoosocial/internal/api/handlers"
	"github.com/yoockh/yoosocial/internal/api/middleware"
	"github.com/yoockh/yoosocial/internal/api/routes"
	"github.com/yoockh/yoosocial/internal/cache"
	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/idgen"
	"github.com/yoockh/yoosocial/internal/logger"
	"github.com/yoockh/yoosocial/internal/ranking"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/repositories/memory"
	mongorepo "github.com/yoockh/yoosocial/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoosocial/internal/repositories/postgres"
	"github.com/yoockh/yoosocial/internal/services"
	"github.com/yoockh/yoosocial/internal/workers"
)

type stores struct {
	convos   repositories.ConversationRepository
	messages repositories.MessageRepository
	progress repositories.ProgressRepository
	modules  repositories.ModuleCatalog
	prefs    repositories.PreferenceRepository
	posts    repositories.PostRepository
	graph    repositories.SocialGraph
	users    repositories.UserDirectory

	cache    cache.Cache
	versions cache.VersionStore
	seen     cache.SeenStore
	redis    *redis.Client
}

// openStores connects Postgres, Mongo and Redis, or builds the in-process
// stores when STORE_DRIVER=memory.
func openStores(s config.Settings, log *logrus.Logger) (*stores, error) {
	if s.StoreDriver == "memory" {
		log.Warn("STORE_DRIVER=memory: state is process-local and every user id is accepted")
		return &stores{
			convos:   memory.NewConversations(),
			messages: memory.NewMessages(),
			progress: memory.NewProgress(),
			modules:  memory.NewModules(),
			prefs:    memory.NewPreferences(),
			posts:    memory.NewPosts(),
			graph:    memory.NewGraph(),
			users:    memory.NewOpenUsers(),
			cache:    cache.NewMemoryCache(s.CacheMaxEntries, s.CacheFallbackTTL),
			versions: cache.NewMemoryVersions(),
			seen:     cache.NewMemorySeen(s.CacheMaxEntries, s.SeenTTL),
		}, nil
	}
	if s.StoreDriver != "postgres" {
		return nil, errors.New("STORE_DRIVER must be postgres or memory")
	}

	if err := config.InitPostgres(); err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected")
	if err := config.MigratePostgres(); err != nil {
		return nil, err
	}

	if err := config.InitMongo(); err != nil {
		return nil, err
	}
	log.Info("MongoDB connected")
	if err := config.EnsureMongoIndexes(); err != nil {
		return nil, err
	}

	if err := config.InitRedis(); err != nil {
		return nil, err
	}
	log.Info("Redis connected")

	db, rdb := config.PostgresDB, config.RedisClient
	return &stores{
		convos:   pgrepo.NewConversationRepo(db),
		messages: mongorepo.NewMessageRepo(config.MongoDatabase()),
		progress: pgrepo.NewProgressRepo(db),
		modules:  pgrepo.NewModuleRepo(db),
		prefs:    pgrepo.NewPreferenceRepo(db),
		posts:    pgrepo.NewPostRepo(db),
		graph:    pgrepo.NewGraphRepo(db),
		users:    pgrepo.NewUserRepo(db),
		cache:    cache.NewRedisCache(rdb),
		versions: cache.NewRedisVersions(rdb),
		seen:     cache.NewRedisSeen(rdb),
		redis:    rdb,
	}, nil
}

func main() {
	_ = godotenv.Load()

	log := logger.New()
	settings := config.LoadSettings()

	if err := idgen.Init(settings.NodeID); err != nil {
		log.WithError(err).Fatal("id generator init error")
	}

	st, err := openStores(settings, log)
	if err != nil {
		log.WithError(err).Fatal("store init error")
	}

	bus := events.NewBus(log)
	agg := cache.NewAggregator(st.cache, st.versions, cache.AggregatorConfig{
		TTL:         settings.CacheTTL,
		FallbackTTL: settings.CacheFallbackTTL,
		Timeout:     settings.StoreTimeout,
	}, log)
	rank := ranking.Config{
		DefaultLimit: settings.PageSizeDefault,
		MaxLimit:     settings.PageSizeMax,
		Resolution:   settings.ScoreResolution,
		SeenTTL:      settings.SeenTTL,
		Timeout:      settings.StoreTimeout,
	}

	users := services.NewUserService(st.users, settings.StoreTimeout)
	prefSvc := services.NewPreferenceService(st.prefs, st.progress, st.modules, bus, services.PreferenceConfig{
		CompletionIncrement: settings.Preference.CompletionIncrement,
		StartIncrement:      settings.Preference.StartIncrement,
		ExplicitIncrement:   settings.Preference.ExplicitIncrement,
		ExplicitFloor:       settings.Preference.ExplicitFloor,
		DecayFactor:         settings.Preference.DecayFactor,
		PruneBelow:          settings.Preference.PruneBelow,
		Timeout:             settings.StoreTimeout,
	})
	convSvc := services.NewConversationService(st.convos, st.messages, users, bus, settings.StoreTimeout)
	progressSvc := services.NewProgressService(st.progress, st.modules, users, bus, settings.StoreTimeout)
	moduleSvc := services.NewModuleService(st.modules, settings.StoreTimeout)
	postSvc := services.NewPostService(st.posts, st.graph, users, bus, settings.StoreTimeout, log)
	graphSvc := services.NewGraphService(st.graph, users, bus, settings.StoreTimeout)
	recSvc := services.NewRecommendationService(st.modules, st.progress, prefSvc, agg, st.seen, services.RecommendationConfig{
		PopularityWeight: settings.PopularityWeight,
		Timeout:          settings.StoreTimeout,
		Ranking:          rank,
	}, log)
	feedSvc := services.NewFeedService(st.graph, st.posts, agg, st.seen, services.FeedConfig{
		HalfLife:             settings.Feed.HalfLife,
		Window:               settings.Feed.Window,
		CandidateLimit:       settings.Feed.CandidateLimit,
		SecondDegreeAffinity: settings.Feed.SecondDegreeAffinity,
		SecondDegreeFanout:   settings.Feed.SecondDegreeFanout,
		Timeout:              settings.StoreTimeout,
		Ranking:              rank,
	}, log)

	// order matters: preferences are folded in before cached pages are dropped
	bus.Subscribe("preferences", prefSvc.HandleEvent, events.KindProgressChanged)
	bus.Subscribe("aggregates", agg.HandleEvent, events.Invalidating...)
	if st.redis != nil {
		bus.Subscribe("redis-relay", events.NewRedisRelay(st.redis, settings.EventsStream).Handle)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	decay := &workers.DecayWorker{
		Redis:       st.redis,
		Preferences: prefSvc,
		NumWorkers:  settings.Preference.DecayWorkers,
		Interval:    settings.Preference.DecayInterval,
		Logger:      log,
	}
	if err := decay.Start(ctx); err != nil {
		log.WithError(err).Fatal("decay worker init error")
	}

	deps := routes.Deps{
		Conversation:   handlers.NewConversationHandler(convSvc),
		Progress:       handlers.NewProgressHandler(progressSvc),
		Recommendation: handlers.NewRecommendationHandler(recSvc),
		Feed:           handlers.NewFeedHandler(feedSvc),
		Preference:     handlers.NewPreferenceHandler(prefSvc),
		Module:         handlers.NewModuleHandler(moduleSvc),
		Social:         handlers.NewSocialHandler(postSvc, graphSvc),
	}
	if st.redis != nil {
		deps.WS = handlers.NewWSHandler(st.redis)
	}
	if settings.Auth.JWTSecret != "" {
		deps.Auth = middleware.JWTAuth(middleware.JWTConfig{
			Secret:     settings.Auth.JWTSecret,
			Issuer:     settings.Auth.JWTIssuer,
			Audience:   settings.Auth.JWTAudience,
			RoleClaims: settings.Auth.JWTRoleClaims,
			Leeway:     settings.Auth.JWTLeeway,
		})
		deps.Admin = middleware.RequireAdmin()
	} else {
		log.Warn("AUTH_JWT_SECRET is not set: routes are unauthenticated")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.RequestTimeout(4*settings.StoreTimeout))
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", settings.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown error")
	}
	decay.Wait()

	if config.MongoClient != nil {
		_ = config.MongoClient.Disconnect(shutdownCtx)
	}
	if st.redis != nil {
		_ = st.redis.Close()
	}
}
