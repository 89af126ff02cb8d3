package api

import (
	"os"
	"strconv"
	"sync"

	"github.com/crmpulse/crmpulse/pkg/audit"
)

const defaultReportCacheSize = 50

// ReportCache is a thread-safe LRU cache of loaded audit reports, keyed by
// audit ID.
type ReportCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*audit.Result
	order   []string // oldest first
}

// NewReportCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 50.
func NewReportCache(maxSize int) *ReportCache {
	if maxSize <= 0 {
		maxSize = defaultReportCacheSize
	}
	return &ReportCache{
		maxSize: maxSize,
		entries: make(map[string]*audit.Result),
	}
}

// NewReportCacheFromEnv creates a cache sized by the REPORT_CACHE_SIZE env var.
func NewReportCacheFromEnv() *ReportCache {
	size := defaultReportCacheSize
	if v := os.Getenv("REPORT_CACHE_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			size = parsed
		}
	}
	return NewReportCache(size)
}

// Get retrieves a report from the cache, or nil if not found.
func (c *ReportCache) Get(auditID string) *audit.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.entries[auditID]
	if !ok {
		return nil
	}
	c.moveToEnd(auditID)
	return result
}

// Put adds a report to the cache, evicting the least recently used if full.
func (c *ReportCache) Put(auditID string, result *audit.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[auditID]; ok {
		c.entries[auditID] = result
		c.moveToEnd(auditID)
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[auditID] = result
	c.order = append(c.order, auditID)
}

// Purge drops every entry. Used after a rescore rewrites stored reports.
func (c *ReportCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*audit.Result)
	c.order = nil
}

// Len returns the number of cached reports.
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ReportCache) moveToEnd(auditID string) {
	for i, k := range c.order {
		if k == auditID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, auditID)
			return
		}
	}
}
