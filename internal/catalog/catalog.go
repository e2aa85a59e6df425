package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/refugee-resources/resource-locator/internal/resource"
	"github.com/refugee-resources/resource-locator/internal/search"
)

// SnapshotKey holds the decoded record set in Redis. VersionKey holds only
// its source and load time so running instances can poll it cheaply.
const (
	SnapshotKey = "resources:snapshot"
	VersionKey  = SnapshotKey + ":loadedAt"
)

// DefaultRefreshInterval bounds how often a loaded catalog polls VersionKey.
const DefaultRefreshInterval = 30 * time.Second

// ErrNotLoaded is returned before the first successful load.
var ErrNotLoaded = errors.New("resources not loaded")

// Snapshots persists decoded records so cold instances skip the CSV download.
type Snapshots interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

type version struct {
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loadedAt"`
}

type snapshot struct {
	Source   string            `json:"source"`
	LoadedAt time.Time         `json:"loadedAt"`
	Records  []resource.Record `json:"records"`
}

// Catalog holds the current records and their fuzzy index. It is safe for
// concurrent use; a reload swaps the index atomically.
type Catalog struct {
	src       resource.Source
	snapshots Snapshots
	opts      search.IndexOptions
	refresh   time.Duration

	mu        sync.RWMutex
	index     *search.Index
	loadedAt  time.Time
	checkedAt time.Time
}

// New creates an empty catalog. snapshots may be nil.
func New(src resource.Source, snapshots Snapshots, opts search.IndexOptions) *Catalog {
	return &Catalog{src: src, snapshots: snapshots, opts: opts, refresh: DefaultRefreshInterval}
}

// SetRefreshInterval changes how often Index looks for a newer snapshot
// written by another instance. Zero checks on every call.
func (c *Catalog) SetRefreshInterval(d time.Duration) {
	c.mu.Lock()
	c.refresh = d
	c.mu.Unlock()
}

// Index returns the current index, loading it on first use. Once loaded it
// picks up snapshots newer than its own, so a reload on one instance reaches
// the others within the refresh interval.
func (c *Catalog) Index(ctx context.Context) (*search.Index, error) {
	c.mu.RLock()
	idx := c.index
	due := c.snapshots != nil && time.Since(c.checkedAt) >= c.refresh
	c.mu.RUnlock()
	if idx == nil {
		if err := c.Load(ctx); err != nil {
			return nil, err
		}
	} else if due {
		c.refreshFromSnapshot(ctx)
	}
	return c.Current()
}

func (c *Catalog) refreshFromSnapshot(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.checkedAt) < c.refresh {
		return
	}
	c.checkedAt = time.Now()

	var v version
	found, err := c.snapshots.GetJSON(ctx, VersionKey, &v)
	if err != nil {
		log.Printf("Error reading resources version: %v", err)
		return
	}
	if !found || v.Source != c.src.String() || !v.LoadedAt.After(c.loadedAt) {
		return
	}

	var snap snapshot
	found, err = c.snapshots.GetJSON(ctx, SnapshotKey, &snap)
	if err != nil {
		log.Printf("Error reading resources snapshot: %v", err)
		return
	}
	if !found || snap.Source != c.src.String() || !snap.LoadedAt.After(c.loadedAt) {
		return
	}
	log.Printf("Picked up %d resources from snapshot of %s loaded at %s",
		len(snap.Records), snap.Source, snap.LoadedAt.Format(time.RFC3339))
	c.swap(snap.Records, snap.LoadedAt)
}

// Current returns the loaded index without triggering a load.
func (c *Catalog) Current() (*search.Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.index == nil {
		return nil, ErrNotLoaded
	}
	return c.index, nil
}

// LoadedAt reports when the current records were read from the source.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Load fills the catalog from the snapshot when one exists, otherwise from
// the source. It is a no-op once loaded.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != nil {
		return nil
	}

	if c.snapshots != nil {
		var snap snapshot
		found, err := c.snapshots.GetJSON(ctx, SnapshotKey, &snap)
		if err != nil {
			log.Printf("Error reading resources snapshot: %v", err)
		} else if found && snap.Source == c.src.String() {
			log.Printf("Loaded %d resources from snapshot of %s", len(snap.Records), snap.Source)
			c.swap(snap.Records, snap.LoadedAt)
			return nil
		}
	}

	return c.reloadLocked(ctx)
}

// Reload reads the source again and replaces the snapshot.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadLocked(ctx)
}

func (c *Catalog) reloadLocked(ctx context.Context) error {
	log.Printf("Loading resources from %s", c.src)
	records, err := resource.Load(ctx, c.src)
	if err != nil {
		return fmt.Errorf("load resources: %w", err)
	}
	loadedAt := time.Now().UTC()
	log.Printf("Found %d resources in %s", len(records), c.src)

	if c.snapshots != nil {
		snap := snapshot{Source: c.src.String(), LoadedAt: loadedAt, Records: records}
		if err := c.snapshots.SetJSON(ctx, SnapshotKey, snap, 0); err != nil {
			log.Printf("Error storing resources snapshot: %v", err)
		} else if err := c.snapshots.SetJSON(ctx, VersionKey, version{Source: snap.Source, LoadedAt: loadedAt}, 0); err != nil {
			log.Printf("Error storing resources version: %v", err)
		}
	}

	c.swap(records, loadedAt)
	return nil
}

func (c *Catalog) swap(records []resource.Record, loadedAt time.Time) {
	c.index = search.NewIndex(records, c.opts)
	c.loadedAt = loadedAt
	c.checkedAt = time.Now()
}
