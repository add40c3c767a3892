package search

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/paihanhuang/shopping-agent/internal/logger"
)

// Agent is the search contract the cache wraps.
type Agent interface {
	Search(ctx context.Context, query string) (string, error)
}

// CachedAgent memoizes reports for identical queries within a TTL. It backs
// the one-shot search path only; tracking ticks must bypass it so every
// tick observes fresh prices.
type CachedAgent struct {
	agent Agent
	cache *cache.Cache
}

// NewCachedAgent wraps agent with a TTL response cache.
func NewCachedAgent(agent Agent, ttl time.Duration) *CachedAgent {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedAgent{
		agent: agent,
		cache: cache.New(ttl, ttl*2),
	}
}

// Search returns a cached report when the same query was answered within
// the TTL, otherwise asks the wrapped agent. Failed searches are not cached.
func (c *CachedAgent) Search(ctx context.Context, query string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if cached, found := c.cache.Get(key); found {
		logger.Debug("search cache hit for %q", query)
		return cached.(string), nil
	}

	report, err := c.agent.Search(ctx, query)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, report, cache.DefaultExpiration)
	return report, nil
}
