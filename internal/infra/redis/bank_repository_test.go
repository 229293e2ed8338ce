package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"diagnostic-service/internal/banks"
	"diagnostic-service/internal/domain"
)

func TestBankRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		BankLoader: banks.NewStaticLoader(banks.Catalog()),
	}
	repo := NewBankRepository(client, loader, time.Minute)

	bank, err := repo.GetBank(context.Background(), banks.BankAutomatisationOdoo)
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if len(bank.Questions) == 0 {
		t.Fatalf("expected questions in loaded bank")
	}

	// Second call should hit the cache, loader not incremented.
	cached, err := repo.GetBank(context.Background(), banks.BankAutomatisationOdoo)
	if err != nil {
		t.Fatalf("get bank cached: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	// The full catalog survives the round trip: prompts and option labels
	// are needed downstream for lead summaries.
	if cached.Questions[0].Prompt != bank.Questions[0].Prompt {
		t.Fatalf("prompt lost through cache: %q", cached.Questions[0].Prompt)
	}
	if cached.Questions[0].Options[0].Label != bank.Questions[0].Options[0].Label {
		t.Fatalf("option label lost through cache")
	}
	if len(cached.Tiers) != len(bank.Tiers) {
		t.Fatalf("tier bands lost through cache")
	}
}

func TestBankRepositoryMiss(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewBankRepository(newClient(mr), banks.NewStaticLoader(nil), time.Minute)
	if _, err := repo.GetBank(context.Background(), "missing"); err != domain.ErrBankNotFound {
		t.Fatalf("expected bank not found, got %v", err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, bankID string) (domain.Bank, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx, bankID)
}
