package attestation

import "sync"

// cache holds the process-wide attestation report together with a
// monotonic generation token. Invalidation bumps the token, so a check
// that started before the invalidation cannot overwrite the cache with
// a report fetched under a stale credential.
type cache struct {
	mu     sync.Mutex
	gen    uint64
	report *Report
}

func (c *cache) get() *Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

func (c *cache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// put stores the report only if no invalidation happened since gen was
// observed.
func (c *cache) put(r *Report, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.report = r
	}
}

func (c *cache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.report = nil
}
