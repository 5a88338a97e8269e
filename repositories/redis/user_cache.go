package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/upb/account-auth/models"
	"github.com/upb/account-auth/repositories"
	"go.uber.org/zap"
)

const keyPrefix = "account-auth:user:"

// CachedUserRepository is a read-through cache over a UserRepository.
// Only GetByID is cached; the cached form never contains the password hash.
type CachedUserRepository struct {
	next   repositories.UserRepository
	client goredis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps next with a Redis cache holding entries for ttl
func NewCachedUserRepository(next repositories.UserRepository, client goredis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// NewClient parses a redis:// URL and returns a client
func NewClient(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return goredis.NewClient(opts), nil
}

func cacheKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Create passes through to the backing repository
func (r *CachedUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.next.Create(ctx, user)
}

// GetByEmail passes through; login needs the password hash
func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.next.GetByEmail(ctx, email)
}

// GetByID serves from Redis when possible and fills the cache on a miss
func (r *CachedUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	key := cacheKey(id)

	payload, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var user models.User
		if jsonErr := json.Unmarshal(payload, &user); jsonErr == nil {
			return &user, nil
		}
		r.logger.Warn("discarding unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, goredis.Nil):
		r.logger.Warn("user cache read failed", zap.String("key", key), zap.Error(err))
	}

	user, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(user); err == nil {
		if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
			r.logger.Warn("user cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return user, nil
}

// Delete removes the user from the backing store and evicts the cache entry
func (r *CachedUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		r.logger.Warn("user cache eviction failed", zap.String("id", id.String()), zap.Error(err))
	}
	return nil
}

// HealthCheck pings Redis
func (r *CachedUserRepository) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
