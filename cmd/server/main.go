// Package main - точка входа Family Chore Hub.
//
// Один процесс обслуживает REST API и фоновый планировщик:
// - повторная выплата бонусов за уровни, не прошедших из-за кошелька
// - прогрев лидербордов семей в Redis
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sats-family/chore-hub/config"
	"github.com/sats-family/chore-hub/internal/application/command"
	"github.com/sats-family/chore-hub/internal/application/eventhandler"
	"github.com/sats-family/chore-hub/internal/application/query"
	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/infrastructure/external/pricefeed"
	"github.com/sats-family/chore-hub/internal/infrastructure/external/wallet"
	"github.com/sats-family/chore-hub/internal/infrastructure/messaging"
	"github.com/sats-family/chore-hub/internal/infrastructure/persistence/memory"
	"github.com/sats-family/chore-hub/internal/infrastructure/persistence/postgres"
	"github.com/sats-family/chore-hub/internal/infrastructure/persistence/redis"
	"github.com/sats-family/chore-hub/internal/infrastructure/scheduler"
	"github.com/sats-family/chore-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/sats-family/chore-hub/internal/interface/http"
	"github.com/sats-family/chore-hub/internal/interface/http/handlers"
	"github.com/sats-family/chore-hub/pkg/logger"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

func main() {
	// .env необязателен: в контейнере переменные приходят из окружения.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: cfg.Observability.LogFormat,
	}).With(logger.String("app", cfg.App.Name), logger.String("version", cfg.App.Version))
	log := appLog.Slog()
	slog.SetDefault(log)

	log.Info("starting Family Chore Hub",
		"env", string(cfg.App.Environment),
		"timezone", cfg.App.Location.String(),
	)

	clock := timeutil.NewSystemClock(cfg.App.Location)
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ (PostgreSQL, либо память для разработки)
	// ─────────────────────────────────────────────────────────────────────────
	var uow family.UnitOfWorkFactory
	if cfg.Database.URL != "" {
		dbCfg := postgres.DefaultConfig()
		dbCfg.URL = cfg.Database.URL
		dbCfg.MaxConns = cfg.Database.MaxConns
		dbCfg.MinConns = cfg.Database.MinConns
		dbCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		dbCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
		dbCfg.ConnectTimeout = cfg.Database.ConnectTimeout

		log.Info("connecting to database...")
		conn, err := postgres.NewConnection(ctx, dbCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			conn.Close()
		}()

		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("database schema is up to date")
		}
		uow = postgres.NewUnitOfWorkFactory(conn)
		health.AddCheck("postgres", handlers.NewPingCheck(conn))
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store (data is lost on restart)")
		store := memory.NewStore()
		uow = store
		health.AddCheck("store", handlers.NewPingCheck(store))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально: лидерборд и котировки)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		leaderboardCache family.LeaderboardCache
		quoteStore       pricefeed.QuoteStore
	)
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.URL = cfg.Redis.URL
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(ctx, redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else {
			defer cache.Close()
			if cfg.Features.IsEnabled(config.FeatureLeaderboardCache, "") {
				leaderboardCache = redis.NewLeaderboardCache(cache)
			}
			quoteStore = redis.NewPriceCache(cache, cfg.PriceFeed.CacheTTL)
			health.AddCheck("redis", handlers.NewPingCheck(cache))
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ВНЕШНИЕ СЕРВИСЫ: кошелёк и курс BTC
	// ─────────────────────────────────────────────────────────────────────────
	var settler settlement.Settler
	if cfg.Wallet.BaseURL != "" {
		client := wallet.NewClient(wallet.ClientConfig{
			BaseURL: cfg.Wallet.BaseURL,
			APIKey:  cfg.Wallet.APIKey,
			Timeout: cfg.Wallet.Timeout,
			Logger:  log,
		})
		settler = client
		health.AddCheck("wallet", handlers.NewPingCheck(client))
	} else {
		log.Warn("WALLET_BASE_URL not set, payments are simulated in memory")
		settler = wallet.NewMemorySettler()
	}

	var feed earnings.PriceFeed
	if cfg.PriceFeed.Enabled && cfg.Features.IsEnabled(config.FeaturePriceQuotes, "") {
		var upstream earnings.PriceFeed = pricefeed.NewCoinGecko(pricefeed.Config{
			BaseURL: cfg.PriceFeed.BaseURL,
			Timeout: cfg.PriceFeed.Timeout,
			Logger:  log,
		})
		if quoteStore != nil {
			upstream = pricefeed.NewCached(upstream, quoteStore, log)
		}
		feed = upstream
	}
	price := command.PriceConfig{Currency: cfg.PriceFeed.Currency, Timeout: cfg.PriceFeed.QuoteTimeout}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		if err := bus.Close(); err != nil {
			log.Warn("event bus close failed", "error", err)
		}
	}()

	if err := eventhandler.NewActivityLogHandler(log).Register(bus); err != nil {
		return fmt.Errorf("failed to register activity log: %w", err)
	}
	if leaderboardCache != nil {
		if err := eventhandler.NewOnProgressChangedHandler(leaderboardCache, log).Register(bus); err != nil {
			return fmt.Errorf("failed to register leaderboard invalidation: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ОБРАБОТЧИКИ КОМАНД И ЗАПРОСОВ
	// ─────────────────────────────────────────────────────────────────────────
	selector := challenge.NewSelector(nil)

	var milestones *command.IssueMilestonesHandler
	if cfg.Features.IsEnabled(config.FeatureLevelBonus, "") {
		milestones = command.NewIssueMilestonesHandler(uow, settler, feed, bus, clock, appLog, price)
	}

	guardianCfg := command.ClaimGuardianBonusHandlerConfig{
		Tier2Sats: shared.Sats(cfg.Rewards.GuardianTier2Sats),
		Tier3Sats: shared.Sats(cfg.Rewards.GuardianTier3Sats),
		Price:     price,
	}

	leaderboard := query.NewGetLeaderboardHandler(uow, leaderboardCache,
		query.GetLeaderboardHandlerConfig{TTL: cfg.Rewards.LeaderboardTTL}, appLog)

	deps := httpapi.Dependencies{
		RegisterChild:          command.NewRegisterChildHandler(uow, clock, appLog),
		CreateTask:             command.NewCreateTaskHandler(uow, bus, clock, appLog),
		AcceptTask:             command.NewAcceptTaskHandler(uow, bus, clock, appLog),
		SubmitTask:             command.NewSubmitTaskHandler(uow, bus, clock, appLog),
		ApproveTask:            command.NewApproveTaskHandler(uow, settler, feed, milestones, bus, clock, appLog, price),
		DeleteTask:             command.NewDeleteTaskHandler(uow, bus, appLog),
		SaveLevelBonusSettings: command.NewSaveLevelBonusSettingsHandler(uow, clock, appLog),
		CompleteChallenge:      command.NewCompleteChallengeHandler(uow, selector, bus, clock, appLog),
		CompleteModule:         command.NewCompleteModuleHandler(uow, bus, clock, appLog),
		ClaimGuardianBonus:     command.NewClaimGuardianBonusHandler(uow, settler, feed, bus, clock, appLog, guardianCfg),

		GetTask:            query.NewGetTaskHandler(uow),
		ListTasks:          query.NewListTasksHandler(uow),
		GetUnlockStatus:    query.NewGetUnlockStatusHandler(uow),
		GetLevel:           query.NewGetLevelHandler(uow),
		GetLeaderboard:     leaderboard,
		GetTodaysChallenge: query.NewGetTodaysChallengeHandler(uow, selector, clock),
		GetLearning:        query.NewGetLearningProgressHandler(uow),
		GetEarnings:        query.NewGetEarningsHandler(uow, feed, cfg.PriceFeed.Currency, appLog),
		GetChildFamily:     query.NewGetChildFamilyHandler(uow),

		Features:      cfg.Features,
		Logger:        appLog,
		HealthChecker: health,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		schedCfg := scheduler.DefaultSchedulerConfig()
		schedCfg.Logger = log
		schedCfg.Timezone = cfg.App.Location
		sched = scheduler.NewScheduler(schedCfg)

		if milestones != nil {
			retry := jobs.NewRetryMilestonesJob(uow, milestones, log, jobs.RetryMilestonesConfig{
				BatchSize: cfg.Scheduler.MilestoneBatchSize,
				Timeout:   cfg.Scheduler.JobTimeout,
			})
			if err := sched.Register(retry, cfg.Scheduler.RetryMilestonesSpec); err != nil {
				return fmt.Errorf("failed to register %s: %w", retry.Name(), err)
			}
		}
		if leaderboardCache != nil {
			warm := jobs.NewRebuildLeaderboardJob(uow, leaderboard, log, cfg.Scheduler.JobTimeout)
			if err := sched.Register(warm, cfg.Scheduler.RebuildLeaderboardSpec); err != nil {
				return fmt.Errorf("failed to register %s: %w", warm.Name(), err)
			}
		}
		sched.OnJobError(func(name string, err error) {
			log.Error("scheduled job failed", "job", name, "error", err)
		})

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("scheduler started", "jobs", len(sched.ListJobs()))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpapi.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.RequestTimeout = cfg.HTTP.RequestTimeout
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.ParentAPIKeys = cfg.HTTP.ParentAPIKeys
	httpCfg.Version = cfg.App.Version

	server := httpapi.NewServer(httpCfg, deps)
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ОЖИДАНИЕ СИГНАЛА И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if sched != nil && sched.IsRunning() {
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			log.Warn("scheduler stop failed", "error", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", "error", err)
	}

	log.Info("Family Chore Hub stopped", "stopped_at", time.Now().Format(time.RFC3339))
	return serveErr
}
