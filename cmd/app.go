package main

import (
	"context"
	"fmt"
	"log/slog"

	"schedule_bot/internal/asset"
	"schedule_bot/internal/config"
	"schedule_bot/internal/events"
	"schedule_bot/internal/store"
	"schedule_bot/internal/store/memory"
	"schedule_bot/internal/store/mongo"
	"schedule_bot/internal/store/postgres"
)

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) (store.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := s.Migrate(ctx); err != nil {
				s.Close(ctx)
				return nil, err
			}
		}
		log.Info("using postgres store")
		return s, nil
	case "mongo":
		s, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		log.Info("using mongo store", slog.String("database", cfg.MongoDatabase))
		return s, nil
	case "memory":
		log.Warn("using in-memory store, records are lost on restart")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openPublisher(cfg *config.Config, log *slog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		log.Info("events disabled (NATS_URL not set)")
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Info("events enabled", slog.String("nats_url", cfg.NATSURL))
	return pub, nil
}

// openAssets returns nil when no bucket is configured, which disables the
// image commands.
func openAssets(ctx context.Context, cfg *config.Config, log *slog.Logger) (asset.Host, error) {
	if cfg.S3Bucket == "" {
		log.Warn("image commands disabled (S3_BUCKET not set)")
		return nil, nil
	}
	return asset.NewS3(ctx, asset.S3Options{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		Endpoint:     cfg.S3Endpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		PublicURL:    cfg.AssetPublicURL,
		ThumbnailURL: cfg.ThumbnailURL,
	})
}
