package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationRepository remembers logged-out token ids until they would have
// expired anyway.
type RevocationRepository interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type revocationRepository struct {
	client *redis.Client
	prefix string
}

// NewRevocationRepository returns a Redis-backed implementation.
func NewRevocationRepository(client *redis.Client, prefix string) RevocationRepository {
	if prefix == "" {
		prefix = "auth:revoked:"
	}
	return &revocationRepository{client: client, prefix: prefix}
}

func (r *revocationRepository) key(tokenID string) string {
	return r.prefix + tokenID
}

func (r *revocationRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("token id required")
	}
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(tokenID), "1", ttl).Err()
}

func (r *revocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
