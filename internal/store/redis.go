package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rgehrsitz/mesada/internal/domain"
)

// Key prefixes of the document collections
const (
	prefixPensioner  = "pensionados:"
	prefixPayments   = "pagos:"
	prefixHistorical = "pagosHistoricos:"
	prefixSharing    = "causantes:"
)

// snapshot is how historical and causante documents wrap their records
type snapshot[T any] struct {
	Records []T `json:"records"`
}

// RedisStore keeps each collection as a JSON document in Redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis connects to addr and checks the connection
func DialRedis(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: redis ping %s: %w", addr, err)
	}
	return NewRedisStore(client), nil
}

// Close releases the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// getJSON decodes the document at key into dest. found is false on a missing key.
func (s *RedisStore) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Pensioner(ctx context.Context, id string) (domain.Pensioner, error) {
	var p domain.Pensioner
	found, err := s.getJSON(ctx, prefixPensioner+id, &p)
	if err != nil {
		return domain.Pensioner{}, err
	}
	if !found {
		return domain.Pensioner{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

func (s *RedisStore) Payments(ctx context.Context, id string) ([]domain.PaymentRecord, error) {
	var payments []domain.PaymentRecord
	if _, err := s.getJSON(ctx, prefixPayments+id, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *RedisStore) HistoricalPayments(ctx context.Context, doc string) ([]domain.HistoricalPayment, error) {
	var snap snapshot[domain.HistoricalPayment]
	if _, err := s.getJSON(ctx, prefixHistorical+doc, &snap); err != nil {
		return nil, err
	}
	return snap.Records, nil
}

func (s *RedisStore) SharingRecords(ctx context.Context, doc string) ([]domain.SharingRecord, error) {
	var snap snapshot[domain.SharingRecord]
	if _, err := s.getJSON(ctx, prefixSharing+doc, &snap); err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// PutCase writes all four documents of a case in one transaction
func (s *RedisStore) PutCase(ctx context.Context, c *domain.Case) error {
	if c.Pensioner.ID == "" {
		return fmt.Errorf("pensioner id is required")
	}

	docs := map[string]interface{}{
		prefixPensioner + c.Pensioner.ID: c.Pensioner,
		prefixPayments + c.Pensioner.ID:  c.Payments,
	}
	if c.Pensioner.DocumentNumber != "" {
		docs[prefixHistorical+c.Pensioner.DocumentNumber] = snapshot[domain.HistoricalPayment]{Records: c.Historical}
		docs[prefixSharing+c.Pensioner.DocumentNumber] = snapshot[domain.SharingRecord]{Records: c.Sharing}
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, doc := range docs {
			raw, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("store: encode %s: %w", key, err)
			}
			pipe.Set(ctx, key, raw, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: put case %s: %w", c.Pensioner.ID, err)
	}
	return nil
}
