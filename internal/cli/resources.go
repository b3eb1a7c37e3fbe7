package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"roboclic/internal/app"
	"roboclic/internal/config"
	"roboclic/internal/corpus"
	"roboclic/internal/domain"
	"roboclic/internal/infra/file"
	"roboclic/internal/infra/memory"
	pgstore "roboclic/internal/infra/postgres"
	redisstore "roboclic/internal/infra/redis"
	"roboclic/internal/infra/sqlite"
)

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.Level()
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadResources reads every startup file. Any failure is fatal for start.
func loadResources(cfg config.Config) (*app.Resources, error) {
	c, err := corpus.Load(cfg.Data.Corpus, cfg.Quiz.TagPattern)
	if err != nil {
		return nil, err
	}
	participants, err := file.LoadRegistry(cfg.Data.Participants)
	if err != nil {
		return nil, err
	}
	birthdays, err := domain.NewBirthdays(participants, nil)
	if cfg.Data.Birthdays != "" {
		birthdays, err = file.LoadBirthdays(cfg.Data.Birthdays, participants)
	}
	if err != nil {
		return nil, err
	}
	return &app.Resources{
		Corpus:       c,
		Participants: participants,
		Birthdays:    birthdays,
		OptionLimit:  cfg.Quiz.OptionLimit,
	}, nil
}

func lineRepository(cfg config.Config) *memory.LineRepository {
	paths := make(map[string]string, len(cfg.Data.Quotes))
	for _, q := range cfg.Data.Quotes {
		paths[q.Command] = q.Path
	}
	ttl := config.TTLDuration(cfg.Data.LineCacheTTL, 10*time.Minute)
	return memory.NewLineRepository(file.NewLineLoader(paths), ttl)
}

// stores holds the ledger and session backends picked by config.
type stores struct {
	scores   app.ScoreStore
	sessions app.SessionRepository
	closers  []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	s := &stores{}

	var rdb *redis.Client
	if cfg.Ledger.Backend == "redis" || cfg.Sessions.Backend == "redis" {
		client, err := openRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		rdb = client
		s.closers = append(s.closers, func() { _ = client.Close() })
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)
	}

	switch cfg.Ledger.Backend {
	case "file":
		s.scores = file.NewScoreStore(cfg.Ledger.Path)
	case "memory":
		s.scores = memory.NewScoreStore(nil)
	case "redis":
		s.scores = redisstore.NewScoreStore(rdb, cfg.Ledger.Key)
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = store.Close() })
		s.scores = store
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			s.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		s.scores = pgstore.NewScoreStore(pool, cfg.Ledger.Key)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
	logger.Info("ledger store ready", "backend", cfg.Ledger.Backend)

	if cfg.Sessions.Backend == "redis" {
		s.sessions = redisstore.NewSessionStore(rdb, cfg.Sessions.Prefix)
	} else {
		s.sessions = memory.NewSessionStore()
	}
	return s, nil
}

func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
