package main

import (
	"context"

	"crowsnest/internal/alerts"
	appconfig "crowsnest/internal/config"
	"crowsnest/internal/handlers"
	"crowsnest/internal/monitor"
	"crowsnest/internal/threat"
	"crowsnest/pkg/config"
	"crowsnest/pkg/database"
	"crowsnest/pkg/kafka"
	"crowsnest/pkg/llm"
	"crowsnest/pkg/logging"
	"crowsnest/pkg/monitoring"
	"crowsnest/pkg/server"
	"crowsnest/pkg/version"
)

const serviceName = "crowsnest"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)

	cfg := appconfig.Load()

	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)

	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"VIP_TARGET_NAME": cfg.VIPName,
	}))

	// Alert storage: Postgres when configured, in-memory otherwise.
	var store alerts.Store
	if cfg.DatabaseURL != "" {
		dbConfig := database.DefaultConfig()
		dbConfig.URL = cfg.DatabaseURL
		db, err := database.Connect(dbConfig, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		sqlStore := alerts.NewSQLStore(db)
		if err := sqlStore.EnsureSchema(context.Background()); err != nil {
			logger.WithError(err).Fatal("Failed to prepare alerts schema")
		}
		store = sqlStore
		healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	} else {
		logger.Warn("DATABASE_URL not set, alerts will not survive a restart")
		store = alerts.NewMemoryStore()
	}

	// Semantic assessor: optional, pipeline degrades to detector-only.
	var assessor threat.Assessor
	llmConfig := llm.LoadConfig()
	if llmConfig.APIKey == "" && llmConfig.Provider != "ollama" {
		logger.Warn("LLM_API_KEY not set, running detector-only")
	} else if provider, err := llm.NewProvider(llmConfig); err != nil {
		logger.WithError(err).Warn("LLM provider unavailable, running detector-only")
	} else {
		assessor = threat.NewLLMAssessor(threat.LLMAssessorConfig{
			Provider: provider,
			Subject:  cfg.VIPName,
			Timeout:  cfg.AssessorTimeout,
			Logger:   logger,
		})
	}

	// Kafka fan-out: optional.
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, serviceName, logger)
		if err != nil {
			logger.WithError(err).Warn("Kafka unavailable, alerts will not be published")
		} else {
			producer = p
			defer producer.Close()
			healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(producer.GetClient()))
		}
	}

	policy := threat.DefaultPolicy()
	policy.ConfidenceFloor = cfg.ConfidenceFloor

	controller := monitor.NewController(monitor.ControllerConfig{
		Sources:   monitor.NewMockFeeds(cfg.VIPName, cfg.MockSeed),
		Bank:      threat.NewBank(logger, cfg.OfficialImages),
		Assessor:  assessor,
		Policy:    policy,
		Store:     store,
		Publisher: alerts.NewPublisher(producer, logger),
		Metrics:   monitor.NewPipelineMetrics(metricsCollector),
		Logger:    logger,
		Interval:  cfg.ScanInterval,
		Threshold: cfg.AlertThreshold,
	})

	if cfg.Autostart {
		controller.Start()
	}

	app := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)

	alertHandler := handlers.NewAlertHandler(store, controller, cfg.VIPName, logger)
	alertHandler.RegisterRoutes(app.Group("/api"))

	serverConfig := server.DefaultConfig(serviceName, cfg.Port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}

	controller.Stop()
}
