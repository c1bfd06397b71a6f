package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeTTL = 10 * time.Minute

type (
	// CodeStore issues and checks short-lived numeric verification codes.
	CodeStore interface {
		Issue(ctx context.Context, subject string) (string, error)
		Verify(ctx context.Context, subject string, code string) (bool, error)
	}

	redisCodeStore struct {
		client *redis.Client
	}
)

func NewRedisCodeStore(client *redis.Client) CodeStore {
	return &redisCodeStore{client: client}
}

func (s *redisCodeStore) Issue(ctx context.Context, subject string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, key(subject), code, codeTTL).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes the code on success so it cannot be replayed.
func (s *redisCodeStore) Verify(ctx context.Context, subject string, code string) (bool, error) {
	stored, err := s.client.Get(ctx, key(subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if stored != code {
		return false, nil
	}

	if err := s.client.Del(ctx, key(subject)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func key(subject string) string {
	return "verification:code:" + subject
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
