package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/marketdesk/admind/internal/blob/s3"
	"github.com/marketdesk/admind/internal/cache/redis"
	"github.com/marketdesk/admind/internal/config"
	"github.com/marketdesk/admind/internal/crypto"
	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/notify"
	"github.com/marketdesk/admind/internal/platform/listing"
	"github.com/marketdesk/admind/internal/platform/polymarket"
	"github.com/marketdesk/admind/internal/store/postgres"
	"github.com/marketdesk/admind/internal/stream"
)

// Dependencies bundles every concrete dependency the application needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	IntakeStore     domain.IntakeStore
	DecisionStore   domain.DecisionStore
	UserStore       domain.UserStore
	WithdrawalStore domain.WithdrawalStore
	FinanceStore    domain.FinanceStore
	HedgeStore      domain.HedgeStore
	AuditStore      domain.AuditStore

	// Caches and coordination
	IntakeCache domain.IntakeCache
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager

	// External clients
	Gamma   *polymarket.GammaClient
	Listing *listing.Client

	// Optional sinks (nil when not configured)
	Archiver  domain.DecisionArchiver
	Publisher domain.DecisionPublisher

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to be
// called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.IntakeStore = postgres.NewIntakeStore(pool)
	deps.DecisionStore = postgres.NewDecisionStore(pool)
	deps.UserStore = postgres.NewUserStore(pool)
	deps.WithdrawalStore = postgres.NewWithdrawalStore(pool)
	deps.FinanceStore = postgres.NewFinanceStore(pool)
	deps.HedgeStore = postgres.NewHedgeStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.IntakeCache = redis.NewIntakeCache(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)

	// --- External clients ---
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	deps.Listing = listing.New(cfg.Listing.BaseURL, &crypto.HMACAuth{
		KeyID:  cfg.Listing.KeyID,
		Secret: cfg.Listing.Secret,
	})

	// --- S3 decision archive (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Kafka decision stream (optional) ---
	if cfg.Kafka.Enabled {
		publisher := stream.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, func() { _ = publisher.Close() })
		deps.Publisher = publisher
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.New(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
