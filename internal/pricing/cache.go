package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"farewatch/internal/domain"
	"farewatch/internal/metrics"
)

// CachedSource is a read-through quote cache. Several alerts often watch
// the same route; within one tick they should hit the provider once.
// Cache failures degrade to a plain fetch, never to a check failure.
type CachedSource struct {
	Inner  Source
	Client *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func NewCachedSource(inner Source, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedSource{Inner: inner, Client: client, TTL: ttl, Logger: logger}
}

type cachedQuote struct {
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	BookingURL string  `json:"booking_url,omitempty"`
}

func (c *CachedSource) key(route Route) string {
	k := "quote:" + route.Origin + ":" + route.Destination + ":" + route.Currency
	if route.DepartureDate != nil {
		k += ":" + route.DepartureDate.Format("2006-01-02")
	}
	if route.ReturnDate != nil {
		k += ":" + route.ReturnDate.Format("2006-01-02")
	}
	return k
}

func (c *CachedSource) FetchPrice(ctx context.Context, route Route) (*domain.PriceQuote, error) {
	key := c.key(route)

	val, err := c.Client.Get(ctx, key).Result()
	if err == nil {
		var cq cachedQuote
		if json.Unmarshal([]byte(val), &cq) == nil {
			metrics.QuoteCacheHitsTotal.Inc()
			return &domain.PriceQuote{Price: cq.Price, Currency: cq.Currency, BookingURL: cq.BookingURL}, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.Logger.Warn("quote_cache_get_error", zap.String("key", key), zap.Error(err))
	}
	metrics.QuoteCacheMissesTotal.Inc()

	quote, err := c.Inner.FetchPrice(ctx, route)
	if err != nil {
		return nil, err
	}

	b, _ := json.Marshal(cachedQuote{Price: quote.Price, Currency: quote.Currency, BookingURL: quote.BookingURL})
	if err := c.Client.Set(ctx, key, b, c.TTL).Err(); err != nil {
		c.Logger.Warn("quote_cache_set_error", zap.String("key", key), zap.Error(err))
	}
	return quote, nil
}
