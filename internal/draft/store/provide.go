package store

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	"github.com/smallbiznis/flowdesk/internal/draft/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	DB        *gorm.DB
	Clock     clock.Clock
	Log       *zap.Logger
}

// Provide builds the backend selected by DRAFT_BACKEND.
func Provide(p Params) domain.Store {
	cfg := p.Config.Draft
	log := p.Log.Named("draft.store")

	switch cfg.Backend {
	case config.DraftBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					log.Warn("draft.redis_unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		log.Info("draft.store_selected", zap.String("backend", cfg.Backend), zap.String("key", cfg.RedisKey))
		return NewRedisStore(client, cfg.RedisKey)
	case config.DraftBackendDatabase:
		log.Info("draft.store_selected", zap.String("backend", cfg.Backend))
		return NewDatabaseStore(p.DB, p.Clock, domain.DefaultSlot)
	default:
		log.Info("draft.store_selected", zap.String("backend", config.DraftBackendFile), zap.String("path", cfg.Path))
		return NewFileStore(cfg.Path)
	}
}
