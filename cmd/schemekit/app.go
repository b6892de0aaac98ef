package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/schemekit/catalog"
	"github.com/rushteam/schemekit/config"
	"github.com/rushteam/schemekit/config/builders"
	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/interaction"
	"github.com/rushteam/schemekit/job"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/recall"
	"github.com/rushteam/schemekit/rerank"
	"github.com/rushteam/schemekit/service"
	"github.com/rushteam/schemekit/similarity"
	"github.com/rushteam/schemekit/store"
	"github.com/rushteam/schemekit/text"
)

// app 持有进程内全部组件。
type app struct {
	cfg    *config.App
	logger *zap.Logger

	catalog      *catalog.Snapshot
	redis        *store.RedisStore
	repo         *similarity.Repository
	matrix       *similarity.Cache
	interactions core.InteractionStore

	rebuild     *job.MatrixRebuildJob
	reload      *job.MatrixReloadJob
	recommender *service.SchemeRecommender
	hybrid      *service.HybridService
	events      *service.InteractionService

	closers []func() error
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	cfg := a.cfg
	a.catalog = catalog.NewSnapshot(catalog.JSONFile{Path: cfg.Catalog.Path}, a.logger)
	if _, err := a.catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.redis = rs
		a.closers = append(a.closers, rs.Close)
	}

	var blob similarity.BlobStore
	if cfg.Matrix.RedisKey != "" {
		blob = similarity.NewKVBlobStore(a.redis, cfg.Matrix.RedisKey)
	} else {
		blob = similarity.NewFileBlobStore(cfg.Matrix.Path)
	}
	a.repo = similarity.NewRepository(blob, a.logger)
	a.matrix = similarity.NewCache(a.repo,
		similarity.WithActiveCount(a.catalog.ActiveCount),
		similarity.WithRetryInterval(cfg.Matrix.RetryInterval),
		similarity.WithCacheLogger(a.logger),
	)

	switch cfg.Interactions.Backend {
	case config.BackendSQLite:
		s, err := interaction.OpenSQLStore(ctx, cfg.Interactions.SQLitePath)
		if err != nil {
			return err
		}
		a.interactions = s
	case config.BackendRedis:
		a.interactions = interaction.NewRedisStore(a.redis.Client(), cfg.Interactions.RedisPrefix)
	default:
		a.interactions = interaction.NewMemoryStore()
	}
	a.closers = append(a.closers, a.interactions.Close)

	a.rebuild = &job.MatrixRebuildJob{
		Catalog: a.catalog,
		Builder: similarity.NewBuilder(cfg.Matrix.Workers, a.logger),
		Repo:    a.repo,
		Cache:   a.matrix,
		Logger:  a.logger,
	}
	a.reload = &job.MatrixReloadJob{Catalog: a.catalog, Cache: a.matrix, Logger: a.logger}

	rc := cfg.Recommend
	a.recommender = service.NewSchemeRecommender(a.matrix, a.catalog, service.RecommenderOptions{
		DefaultTopN: rc.DefaultTopN,
		MaxTopN:     rc.MaxTopN,
		CacheSize:   rc.CacheSize,
		CacheTTL:    rc.CacheTTL,
		Logger:      a.logger,
	})
	a.hybrid = service.NewHybridService(a.collaborative(), a.catalog, service.HybridOptions{
		Extractor:     text.StopwordExtractor{MaxKeywords: rc.MaxKeywords},
		Paging:        rerank.Paging{DefaultLimit: rc.DefaultPageSize, MaxLimit: rc.MaxPageSize},
		SourceTimeout: rc.SourceTimeout,
		Logger:        a.logger,
	})
	a.events = service.NewInteractionService(a.interactions, a.catalog, a.logger)

	builders.Register(builders.Deps{
		Matrix:       a.matrix,
		Catalog:      a.catalog,
		Interactions: a.interactions,
		Logger:       a.logger,
	})
	return nil
}

func (a *app) collaborative() *recall.UserBasedCF {
	rc := a.cfg.Recommend
	return &recall.UserBasedCF{
		Store:            a.interactions,
		Catalog:          a.catalog,
		MaxNeighbors:     rc.MaxNeighbors,
		TopN:             rc.CollaborativeTopN,
		KeywordBoost:     rc.KeywordBoost,
		KeywordsRestrict: rc.KeywordsRestrict,
		Logger:           a.logger,
	}
}

// Close 按创建的逆序释放资源。
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}
