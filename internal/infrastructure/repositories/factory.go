package repositories

import (
	"context"

	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/repositories/memory"
	mongorepo "github.com/Seeksy-app/studio-engine/internal/infrastructure/repositories/mongo"
	redisrepo "github.com/Seeksy-app/studio-engine/internal/infrastructure/repositories/redis"
	"github.com/Seeksy-app/studio-engine/pkg/config"
)

// RepositoryFactory creates repositories with fallback support. Library data
// (assets, templates, usage, preferences) prefers MongoDB; volatile state
// (live profile, presence) prefers Redis. Either backend being down degrades
// that slice to memory.
type RepositoryFactory struct {
	useRedis    bool
	useMongo    bool
	redisClient *redis.Client
	mongoDB     *mongodriver.Database
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		useMongo: cfg.Mongo.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
		}
	}

	if cfg.Mongo.Enabled {
		db, err := mongorepo.NewMongoDatabase(cfg.Mongo.URI, cfg.Mongo.Database, logger)
		if err != nil {
			logger.Warnw("failed to connect to MongoDB, falling back to memory repositories",
				"error", err,
			)
			factory.useMongo = false
		} else {
			factory.mongoDB = db
		}
	}

	logger.Infow("repository backends selected",
		"redis", factory.useRedis,
		"mongo", factory.useMongo,
	)

	return factory, nil
}

// CreateAssetRepository creates the media library repository (Mongo or memory)
func (f *RepositoryFactory) CreateAssetRepository() ports.AssetRepository {
	if f.useMongo && f.mongoDB != nil {
		return mongorepo.NewMongoAssetRepository(f.mongoDB)
	}
	return memory.NewMemoryAssetRepository()
}

// CreateTemplateRepository creates the template repository (Mongo or memory)
func (f *RepositoryFactory) CreateTemplateRepository() ports.TemplateRepository {
	if f.useMongo && f.mongoDB != nil {
		return mongorepo.NewMongoTemplateRepository(f.mongoDB)
	}
	return memory.NewMemoryTemplateRepository()
}

// CreateUsageRepository creates the storage ledger repository (Mongo or memory)
func (f *RepositoryFactory) CreateUsageRepository() ports.UsageRepository {
	if f.useMongo && f.mongoDB != nil {
		return mongorepo.NewMongoUsageRepository(f.mongoDB)
	}
	return memory.NewMemoryUsageRepository()
}

// CreatePreferencesRepository creates the preferences repository (Mongo or memory)
func (f *RepositoryFactory) CreatePreferencesRepository() ports.PreferencesRepository {
	if f.useMongo && f.mongoDB != nil {
		return mongorepo.NewMongoPreferencesRepository(f.mongoDB)
	}
	return memory.NewMemoryPreferencesRepository()
}

// CreateProfileRepository creates the live profile state repository (Redis or memory)
func (f *RepositoryFactory) CreateProfileRepository() ports.ProfileRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisProfileRepository(f.redisClient)
	}
	return memory.NewMemoryProfileRepository()
}

// CreatePresenceRepository creates the viewer presence repository (Redis or memory)
func (f *RepositoryFactory) CreatePresenceRepository() ports.PresenceRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisPresenceRepository(f.redisClient)
	}
	return memory.NewMemoryPresenceRepository()
}

// RedisClient exposes the shared client for components that use Redis
// directly (presence feed, job trigger). Nil when Redis is unavailable.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	return f.redisClient
}

// Close closes backend connections if used
func (f *RepositoryFactory) Close() error {
	var firstErr error
	if f.redisClient != nil {
		if err := redisrepo.CloseRedisClient(f.redisClient); err != nil {
			firstErr = err
		}
	}
	if f.mongoDB != nil {
		if err := mongorepo.CloseMongoDatabase(f.mongoDB); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// HealthCheck checks backend connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		if err := f.redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	if f.useMongo && f.mongoDB != nil {
		if err := f.mongoDB.Client().Ping(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}
