package cache

import (
	"strings"
	"time"
)

const (
	defaultFilamentNameTTL = 5 * time.Minute
	defaultExtraNameTTL    = 10 * time.Minute
)

// NameResolverCache stores display-name lookups used when assembling quote
// snapshots, so rendering a quote does not re-read every referenced record.
type NameResolverCache interface {
	GetFilamentName(filamentID string) (string, bool)
	SetFilamentName(filamentID, name string)
	GetExtraName(catalogEntryID string) (string, bool)
	SetExtraName(catalogEntryID, name string)
	InvalidateFilament(filamentID string)
}

type nameResolverCache struct {
	filaments Cache[string, string]
	extras    Cache[string, string]

	filamentTTL time.Duration
	extraTTL    time.Duration
}

// NewNameResolverCache returns an in-memory cache tuned for quote assembly.
func NewNameResolverCache() NameResolverCache {
	return &nameResolverCache{
		filaments:   NewTTLCache[string, string](),
		extras:      NewTTLCache[string, string](),
		filamentTTL: defaultFilamentNameTTL,
		extraTTL:    defaultExtraNameTTL,
	}
}

func (c *nameResolverCache) GetFilamentName(filamentID string) (string, bool) {
	return c.filaments.Get(filamentID)
}

func (c *nameResolverCache) SetFilamentName(filamentID, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	c.filaments.Set(filamentID, name, c.filamentTTL)
}

func (c *nameResolverCache) GetExtraName(catalogEntryID string) (string, bool) {
	return c.extras.Get(catalogEntryID)
}

func (c *nameResolverCache) SetExtraName(catalogEntryID, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	c.extras.Set(catalogEntryID, name, c.extraTTL)
}

func (c *nameResolverCache) InvalidateFilament(filamentID string) {
	c.filaments.Delete(filamentID)
}
