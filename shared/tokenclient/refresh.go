package tokenclient

import (
	"context"

	"go.uber.org/zap"
)

// scheduleRefresh queues a background refresh for key, deduplicating per key.
// A full queue drops the request; the next caller inside the refresh-ahead
// window will re-trigger it.
func (c *Client) scheduleRefresh(key, scope, audience string) {
	c.pendingMu.Lock()
	if _, inFlight := c.pending[key]; inFlight {
		c.pendingMu.Unlock()
		return
	}
	c.pending[key] = struct{}{}
	c.pendingMu.Unlock()

	select {
	case c.refreshCh <- refreshSpec{key: key, scope: scope, audience: audience}:
		tokenRefreshesTotal.Inc()
	default:
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
		c.logger.Warn("Refresh queue full, dropping refresh request")
	}
}

// refreshWorker is the single dedicated worker draining the refresh queue so
// that foreground callers are never blocked by a refresh.
func (c *Client) refreshWorker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case spec := <-c.refreshCh:
			c.doRefresh(spec)
		}
	}
}

func (c *Client) doRefresh(spec refreshSpec) {
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, spec.key)
		c.pendingMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HTTPTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed this key already.
	if _, ttl, err := c.cache.GetWithTTL(ctx, spec.key); err == nil && ttl > c.cfg.RefreshAhead {
		return
	}

	if _, err := c.fetchAndStore(ctx, spec.key, spec.scope, spec.audience); err != nil {
		// Not fatal: the stale token keeps being served until its expiry, and
		// the next caller falls back to a synchronous fetch.
		c.logger.Warn("Background token refresh failed", zap.Error(err))
		return
	}
	c.logger.Info("Background token refresh completed")
}
