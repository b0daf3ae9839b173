package cmd

import (
	"context"
	"fmt"
	"time"

	"brick-manager/core/config"
	"brick-manager/core/database"
	"brick-manager/core/imagecache"
	"brick-manager/core/logger"
	"brick-manager/core/storage"
	"brick-manager/feature/catalog"
	"brick-manager/feature/integrity"
	"brick-manager/feature/missingparts"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// components holds everything the commands share.
type components struct {
	cfg        *config.Config
	logger     *zap.Logger
	db         *gorm.DB
	client     storage.Client
	cache      *imagecache.Cache
	catalog    *catalog.CachedGateway
	aggregator *missingparts.Aggregator
	store      missingparts.CollectionStore
}

// bootstrap loads configuration and builds the shared components.
// The database and the image mirror are optional; failures are logged and
// the dependent features report themselves unavailable.
func bootstrap(ctx context.Context) (*components, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c := &components{cfg: cfg, logger: logg}

	if conn, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional database connection failed", zap.Error(err))
	} else {
		c.db = conn
		logg.Info("Connected to collection database", zap.String("driver", cfg.Database.Driver))
	}

	cacheOpts := []imagecache.Option{imagecache.WithLogger(logg)}
	if cfg.Images.Mirror {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Warn("Image mirror disabled, storage client failed", zap.Error(err))
		} else {
			c.client = client
			mirror := imagecache.NewStorageMirror(client, cfg.Storage.Bucket, cfg.Images.MirrorPrefix)
			if err := mirror.EnsureBucket(ctx); err != nil {
				logg.Warn("Failed to ensure mirror bucket", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
			}
			cacheOpts = append(cacheOpts, imagecache.WithMirror(mirror))
		}
	}

	cache, err := imagecache.New(cfg.Images, imagecache.NewHTTPFetcher(cfg.Images, logg), cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image cache: %w", err)
	}
	c.cache = cache

	ttl := time.Duration(cfg.Catalog.CacheTTLSeconds) * time.Second
	c.catalog = catalog.NewCachedGateway(catalog.NewDBGateway(c.db, cfg.Catalog, logg), ttl)

	c.aggregator = missingparts.NewAggregator(c.catalog,
		missingparts.WithLogger(logg),
		missingparts.WithImageResolver(cache, cfg.Images.Workers),
	)
	if c.db != nil {
		c.store = missingparts.NewDBStore(c.db)
	}

	return c, nil
}

func (c *components) missingParts() *missingparts.Service {
	return missingparts.NewService(c.store, c.aggregator, c.logger)
}

func (c *components) integrity() *integrity.Service {
	return integrity.NewService(c.integrityOptions(), c.logger)
}

func (c *components) integrityOptions() integrity.Options {
	return integrity.Options{
		Client:       c.client,
		Bucket:       c.cfg.Storage.Bucket,
		MirrorPrefix: c.cfg.Images.MirrorPrefix,
		CacheDir:     c.cfg.Images.Dir,
		Placeholder:  c.cfg.Images.Placeholder,
		DB:           c.db,
	}
}
