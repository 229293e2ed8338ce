package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"diagnostic-service/internal/domain"
)

// BankLoader fetches bank content from a backing store (embedded catalog or
// Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// BankRepository caches full bank payloads in Redis and falls back to a
// loader on cache miss. Unlike a secret-answer cache, the whole catalog is
// stored: prompts and option labels are needed to render lead summaries.
// Layout: SET bank:{bankID} {json} EX ttl
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.Bank, error) {
	key := r.bankKey(bankID)

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil && len(raw) > 0 {
		return decodeBank(raw)
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := r.client.Get(ctx, key).Bytes()
		if err == nil && len(raw) > 0 {
			return decodeBank(raw)
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.Bank{}, err
		}

		encoded, err := json.Marshal(bank)
		if err != nil {
			return domain.Bank{}, fmt.Errorf("encode bank: %w", err)
		}
		// best-effort cache fill
		_ = r.client.Set(ctx, key, encoded, r.ttlWithJitter()).Err()

		return bank, nil
	})
	if err != nil {
		return domain.Bank{}, err
	}
	return result.(domain.Bank), nil
}

func (r *BankRepository) bankKey(bankID string) string {
	return "bank:" + bankID
}

func decodeBank(raw []byte) (domain.Bank, error) {
	var bank domain.Bank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.Bank{}, fmt.Errorf("decode cached bank: %w", err)
	}
	return bank, nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
