package app

import (
	"context"
	"sync"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// DescriptorCache memoizes successful descriptor fetches per scene id.
// Failures are never cached.
type DescriptorCache struct {
	source ports.DescriptorFetcher

	mu      sync.RWMutex
	entries map[string]domain.Descriptor
}

// NewDescriptorCache wraps source.
func NewDescriptorCache(source ports.DescriptorFetcher) *DescriptorCache {
	return &DescriptorCache{
		source:  source,
		entries: make(map[string]domain.Descriptor),
	}
}

// Fetch returns the cached descriptor or fetches it from the source.
func (c *DescriptorCache) Fetch(ctx context.Context, sceneID string) (domain.Descriptor, error) {
	c.mu.RLock()
	desc, ok := c.entries[sceneID]
	c.mu.RUnlock()
	if ok {
		return desc, nil
	}

	desc, err := c.source.Fetch(ctx, sceneID)
	if err != nil {
		return domain.Descriptor{}, err
	}

	c.mu.Lock()
	c.entries[sceneID] = desc
	c.mu.Unlock()
	return desc, nil
}

// Invalidate drops the entry for sceneID.
func (c *DescriptorCache) Invalidate(sceneID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sceneID)
}

// Purge drops every entry.
func (c *DescriptorCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]domain.Descriptor)
}

// Len returns the number of cached descriptors.
func (c *DescriptorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
