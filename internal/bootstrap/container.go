package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"desirefinder-be/internal/config"
	"desirefinder-be/internal/controller"
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/internal/pkg/metrics"
	"desirefinder-be/internal/repository/cache"
	"desirefinder-be/internal/repository/unitofwork"
	"desirefinder-be/internal/service"
	"desirefinder-be/pkg/agent/classifier"
	"desirefinder-be/pkg/agent/orchestrator"
	"desirefinder-be/pkg/agent/research"
	"desirefinder-be/pkg/agent/session"
	"desirefinder-be/pkg/dropshipping"
	"desirefinder-be/pkg/embedding"
	"desirefinder-be/pkg/events"
	"desirefinder-be/pkg/llm/factory"

	pktNats "desirefinder-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	HealthController   controller.IHealthController
	ChatController     controller.IChatController
	ProductController  controller.IProductController
	DocumentController controller.IDocumentController
	CreditController   controller.ICreditController

	// Background workers, run by main.go
	ConsumerService service.IConsumerService
	SessionRegistry *session.Registry

	Logger  logger.ILogger
	Metrics *metrics.Metrics

	closers []func() error
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	appMetrics := metrics.New()
	c := &Container{Logger: sysLogger, Metrics: appMetrics}

	// 2. Event bus for document indexing
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, pubSub.Close)

	// 3. Infrastructure
	var sink events.Sink
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "NATS unavailable, domain events disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		sink = natsPub
		c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
	}
	domainEvents := events.NewDomainPublisher(sink, sysLogger)

	searchCache, err := c.newSearchCache(ctx, cfg.Funnel, cfg.App.RedisURL, sysLogger)
	if err != nil {
		return nil, err
	}

	// 4. Model providers
	embeddingModel := cfg.Ai.EmbeddingModel
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingModel = cfg.Ai.OllamaModel
	}
	embeddingProvider, err := embedding.NewProvider(cfg.Ai.EmbeddingProvider, cfg.Keys.GoogleGemini, embeddingModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}

	llmProvider, err := factory.NewLLMProvider(ctx, cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, cfg.Keys.GoogleGemini)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 5. Vetting funnel
	httpClient := &http.Client{Timeout: cfg.Funnel.SourceTimeout}
	sources, err := dropshipping.NewSources(ctx, cfg.Funnel.Providers, dropshipping.Credentials{
		RapidAPIKey:         cfg.Keys.RapidAPI,
		AliExpressURL:       cfg.Keys.AliExpressURL,
		AliExpressAppKey:    cfg.Keys.AliExpressAppKey,
		AliExpressAppSecret: cfg.Keys.AliExpressSecret,
		AliExpressToken:     cfg.Keys.AliExpressToken,
		CJKey:               cfg.Keys.CJDropshipping,
		CJURL:               cfg.Keys.CJDropshippingURL,
		SerpAPIKey:          cfg.Keys.SerpApi,
	}, httpClient)
	if err != nil {
		return nil, fmt.Errorf("init supplier sources: %w", err)
	}

	var judge dropshipping.ImageJudge
	if cfg.Funnel.VisionEnabled {
		judge = dropshipping.NewVisionJudge(llmProvider, cfg.Ai.VisionModel, nil)
	}

	funnelOpts := []dropshipping.Option{dropshipping.WithObserver(appMetrics)}
	if searchCache != nil {
		funnelOpts = append(funnelOpts, dropshipping.WithCache(searchCache))
	}
	funnel := dropshipping.NewFunnel(sources, judge, dropshipping.Config{
		PageSize:      cfg.Funnel.PageSize,
		ShipTo:        cfg.Funnel.ShipTo,
		SortBy:        cfg.Funnel.SortBy,
		SourceTimeout: cfg.Funnel.SourceTimeout,
		MaxRetries:    cfg.Funnel.MaxRetries,
		VisionEnabled: cfg.Funnel.VisionEnabled,
	}, sysLogger, funnelOpts...)
	revalidator := dropshipping.NewRevalidator(sources, sysLogger)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.DocumentTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.DocumentTopic, uowFactory, embeddingProvider, sysLogger)
	documentService := service.NewDocumentService(uowFactory, publisherService, embeddingProvider, sysLogger)
	creditService := service.NewCreditService(uowFactory, cfg.Credits, sysLogger)
	turnStore := service.NewTurnStoreService(uowFactory)

	// 7. Agent
	actions, err := research.NewRegistry(
		research.NewShoppingSearch(funnel, llmProvider, sysLogger),
		research.NewUploadsSearch(documentService, sysLogger),
		research.NewPlan(llmProvider),
		research.NewDone(),
	)
	if err != nil {
		return nil, fmt.Errorf("init action registry: %w", err)
	}
	agent := orchestrator.New(
		classifier.NewClassifier(llmProvider, sysLogger),
		research.NewResearcher(actions, sysLogger),
		llmProvider,
		turnStore,
		sysLogger,
		orchestrator.WithHistoryRecorder(turnStore),
		orchestrator.WithEventPublisher(domainEvents),
		orchestrator.WithObserver(appMetrics),
	)

	sessions := session.NewRegistry(cfg.Session.MaxAge)
	appMetrics.TrackLiveSessions(sessions.Len)

	searchService := service.NewSearchService(
		uowFactory,
		creditService,
		agent,
		sessions,
		cfg.Credits.SearchCost,
		cfg.Session.MaxAge,
		sysLogger,
	)
	checkoutService := service.NewCheckoutService(
		uowFactory,
		creditService,
		revalidator,
		service.NewMidtransGateway(cfg.Keys.MidtransServerKey, cfg.Payment.IsProduction, cfg.Payment.FinishURL),
		domainEvents,
		appMetrics,
		sysLogger,
	)

	// 8. Controllers
	c.HealthController = controller.NewHealthController(sessions)
	c.ChatController = controller.NewChatController(searchService, sysLogger)
	c.ProductController = controller.NewProductController(checkoutService)
	c.DocumentController = controller.NewDocumentController(documentService)
	c.CreditController = controller.NewCreditController(creditService)
	c.ConsumerService = consumerService
	c.SessionRegistry = sessions

	return c, nil
}

// Close releases the brokers and caches opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("BOOTSTRAP", "Close failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (c *Container) newSearchCache(ctx context.Context, cfg config.FunnelConfig, redisURL string, log logger.ILogger) (dropshipping.SearchCache, error) {
	switch cfg.CacheBackend {
	case "none", "":
		return nil, nil
	case "memory":
		return cache.NewMemorySearchCache(cfg.CacheTTL), nil
	case "redis":
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{
				"error": err.Error(),
			})
			opt = &redis.Options{Addr: redisURL}
		}
		rdb := redis.NewClient(opt)
		c.closers = append(c.closers, rdb.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// the cache degrades to misses, the funnel still runs
			log.Warn("BOOTSTRAP", "Redis unavailable", map[string]interface{}{"error": err.Error()})
		}
		return cache.NewRedisSearchCache(rdb, cfg.CacheTTL, log), nil
	default:
		return nil, fmt.Errorf("unknown search cache backend %q", cfg.CacheBackend)
	}
}
