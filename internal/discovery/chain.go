package discovery

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/config"
)

// Finder is the lookup contract the assignment engine depends on.
type Finder interface {
	// Find returns the first usable place and the name of the source that
	// produced it, or (nil, "", nil) when every source is exhausted.
	Find(ctx context.Context, serviceType, location string) (*Place, string, error)
}

// Chain tries external sources strictly in order, short-circuiting on the
// first usable result. Per-source failures are logged and swallowed; they
// only mean "try the next source".
type Chain struct {
	sources  []Source
	attempts int
	backoff  time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewChain builds the source list from configuration. Keyless sources come
// first; key-gated sources are skipped when no key is configured.
func NewChain(cfg config.DiscoveryConfig, logger *zap.Logger) *Chain {
	client := &http.Client{Timeout: cfg.Timeout()}

	sources := []Source{
		NewNominatimSource(cfg.NominatimBaseURL, client),
	}
	if cfg.FoursquareAPIKey != "" {
		sources = append(sources, NewFoursquareSource(cfg.FoursquareBaseURL, cfg.FoursquareAPIKey, client))
	}
	if cfg.GooglePlacesAPIKey != "" {
		sources = append(sources, NewGooglePlacesSource(cfg.GooglePlacesBaseURL, cfg.GooglePlacesAPIKey, client))
	}

	return NewChainWithSources(sources, cfg.Attempts, cfg.Backoff(), cfg.Timeout(), logger)
}

// NewChainWithSources wires an explicit source list; used by tests.
func NewChainWithSources(sources []Source, attempts int, backoff, timeout time.Duration, logger *zap.Logger) *Chain {
	if attempts <= 0 {
		attempts = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		sources:  sources,
		attempts: attempts,
		backoff:  backoff,
		timeout:  timeout,
		logger:   logger,
	}
}

// Find implements Finder.
func (c *Chain) Find(ctx context.Context, serviceType, location string) (*Place, string, error) {
	for _, source := range c.sources {
		place, err := c.searchWithRetry(ctx, source, serviceType, location)
		if err != nil {
			c.logger.Warn("discovery source unavailable",
				zap.String("source", source.Name()),
				zap.String("service_type", serviceType),
				zap.String("location", location),
				zap.Error(err))
			continue
		}
		if place == nil {
			c.logger.Info("discovery source empty",
				zap.String("source", source.Name()),
				zap.String("service_type", serviceType),
				zap.String("location", location))
			continue
		}
		return Normalize(place), source.Name(), nil
	}
	return nil, "", nil
}

func (c *Chain) searchWithRetry(ctx context.Context, source Source, serviceType, location string) (*Place, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 && c.backoff > 0 {
			// linear backoff between attempts
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * c.backoff):
			}
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if c.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}
		place, err := source.Search(callCtx, serviceType, location)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return place, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
