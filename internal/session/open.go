package session

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/campus-onboard/internal/config"
	"github.com/and161185/campus-onboard/internal/crypto/clientcrypto"
	"github.com/and161185/campus-onboard/internal/migrate"
)

// Open builds the store selected by cfg.Backend. The returned func releases
// backend connections and is never nil.
func Open(ctx context.Context, cfg config.SessionConfig, log *zap.Logger) (Store, func(), error) {
	noop := func() {}
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Backend {
	case config.BackendFile, "":
		var sealer *clientcrypto.Sealer
		if cfg.Seal {
			key, err := clientcrypto.LoadOrCreateKey(cfg.KeyPath)
			if err != nil {
				return nil, noop, fmt.Errorf("session key: %w", err)
			}
			if sealer, err = clientcrypto.NewSealer(key); err != nil {
				return nil, noop, err
			}
		}
		log.Debug("session store", zap.String("backend", config.BackendFile), zap.String("path", cfg.Path), zap.Bool("sealed", cfg.Seal))
		return NewFile(cfg.Path, sealer), noop, nil

	case config.BackendMemory:
		return NewMemory(), noop, nil

	case config.BackendPostgres:
		if err := migrate.Up(ctx, cfg.PostgresDSN, log); err != nil {
			return nil, noop, fmt.Errorf("migrate up: %w", err)
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("pgxpool: %w", err)
		}
		log.Debug("session store", zap.String("backend", config.BackendPostgres))
		return NewPostgres(pool), pool.Close, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		log.Debug("session store", zap.String("backend", config.BackendRedis), zap.String("addr", cfg.RedisAddr))
		return NewRedis(rdb), func() { _ = rdb.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
