// Package rates caches the BTC fiat exchange rate. The cache is
// non-authoritative display data, never used for settlement.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheKey = "rates:btc:usd"

var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Rate is one BTC price observation.
type Rate struct {
	Currency  string    `json:"currency"`
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Service fetches the rate from an external API and caches it in Redis with
// a TTL; without Redis the last observation is kept in memory.
type Service struct {
	rdb    *redis.Client
	client *http.Client
	url    string
	ttl    time.Duration

	mu     sync.RWMutex
	cached *Rate
}

// NewService constructs a Service. rdb may be nil.
func NewService(rdb *redis.Client, url string, ttl time.Duration) *Service {
	return &Service{
		rdb:    rdb,
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		ttl:    ttl,
	}
}

// BTCRate returns the cached rate, refreshing it from the external API when
// the cache is cold. A fetch failure falls back to the last known value.
func (s *Service) BTCRate(ctx context.Context) (Rate, error) {
	if rate, ok := s.fromCache(ctx); ok {
		return rate, nil
	}

	rate, err := s.fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("btc rate fetch failed")
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.cached != nil {
			return *s.cached, nil
		}
		return Rate{}, ErrRateUnavailable
	}

	s.store(ctx, rate)
	return rate, nil
}

func (s *Service) fromCache(ctx context.Context) (Rate, bool) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var rate Rate
			if json.Unmarshal(raw, &rate) == nil {
				return rate, true
			}
		}
		return Rate{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached != nil && time.Since(s.cached.FetchedAt) < s.ttl {
		return *s.cached, true
	}
	return Rate{}, false
}

func (s *Service) store(ctx context.Context, rate Rate) {
	s.mu.Lock()
	r := rate
	s.cached = &r
	s.mu.Unlock()

	if s.rdb != nil {
		raw, err := json.Marshal(rate)
		if err != nil {
			return
		}
		if err := s.rdb.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("btc rate cache write failed")
		}
	}
}

func (s *Service) fetch(ctx context.Context) (Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Rate{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Rate{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("rate api returned %d", resp.StatusCode)
	}

	var body struct {
		Bitcoin struct {
			USD float64 `json:"usd"`
		} `json:"bitcoin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Rate{}, err
	}
	if body.Bitcoin.USD <= 0 {
		return Rate{}, fmt.Errorf("rate api returned non-positive price")
	}

	return Rate{Currency: "usd", Price: body.Bitcoin.USD, FetchedAt: time.Now().UTC()}, nil
}
