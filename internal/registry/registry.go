// Package registry implements the advisory spec registry (component C10):
// given a device name and a semver constraint on schema_version, it finds
// the best matching spec document. It is standalone: internal/resolve
// loads bases through its own BaseLoader and does not consult it.
//
// Grounded on the teacher's internal/packagemanager Registry/InMemoryRegistry
// (content-addressed lookup keyed by a semver constraint) and HTTPRegistry
// (singleflight-coalesced remote lookups with a small TTL cache).
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/singleflight"

	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
)

// ErrNotFound is returned when no known spec version satisfies a
// constraint.
var ErrNotFound = errors.New("registry: no matching spec version")

// Entry is one resolvable (name, version) pair known to a registry.
type Entry struct {
	Name    string
	Version string
	Spec    *specdoc.DeviceSpec
}

// Registry resolves a device name and schema_version constraint to the
// best matching spec.
type Registry interface {
	Resolve(ctx context.Context, name string, constraint *semver.Constraints) (Entry, error)
}

// InMemory is a registry backed by an explicit set of entries, useful for
// tests and as the building block other registries wrap.
type InMemory struct {
	mu    sync.RWMutex
	index map[string][]Entry
}

// NewInMemory constructs an empty in-memory registry.
func NewInMemory() *InMemory {
	return &InMemory{index: make(map[string][]Entry)}
}

// Add registers a spec under the given name, keyed by its own
// SchemaVersion.
func (r *InMemory) Add(name string, spec *specdoc.DeviceSpec) error {
	v, err := semver.NewVersion(spec.SchemaVersion)
	if err != nil {
		return fmt.Errorf("registry: invalid schema_version %q for %s: %w", spec.SchemaVersion, name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index[strings.ToLower(name)] = append(r.index[strings.ToLower(name)], Entry{
		Name: name, Version: v.String(), Spec: spec,
	})
	return nil
}

// Resolve implements Registry: it returns the highest version satisfying
// constraint (or the highest version overall if constraint is nil).
func (r *InMemory) Resolve(ctx context.Context, name string, constraint *semver.Constraints) (Entry, error) {
	select {
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	default:
	}

	r.mu.RLock()
	candidates := append([]Entry(nil), r.index[strings.ToLower(name)]...)
	r.mu.RUnlock()

	best := -1
	var bestVer *semver.Version
	for i, e := range candidates {
		v, err := semver.NewVersion(e.Version)
		if err != nil {
			continue
		}
		if constraint != nil && !constraint.Check(v) {
			continue
		}
		if best == -1 || v.GreaterThan(bestVer) {
			best, bestVer = i, v
		}
	}
	if best == -1 {
		return Entry{}, ErrNotFound
	}
	return candidates[best], nil
}

// Coalesced wraps a Registry so that concurrent Resolve calls for the same
// (name, constraint) share a single underlying lookup, per the teacher's
// HTTPRegistry use of golang.org/x/sync/singleflight to collapse repeated
// remote lookups. It also caches successful results for ttl.
type Coalesced struct {
	inner Registry
	ttl   time.Duration
	sf    singleflight.Group

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	at    time.Time
	entry Entry
}

// NewCoalesced wraps inner with singleflight coalescing and a TTL cache.
func NewCoalesced(inner Registry, ttl time.Duration) *Coalesced {
	return &Coalesced{inner: inner, ttl: ttl, cache: make(map[string]cacheEntry)}
}

func (c *Coalesced) Resolve(ctx context.Context, name string, constraint *semver.Constraints) (Entry, error) {
	key := name
	if constraint != nil {
		key += "@" + constraint.String()
	}

	c.mu.Lock()
	if ce, ok := c.cache[key]; ok && time.Since(ce.at) < c.ttl {
		c.mu.Unlock()
		return ce.entry, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do(key, func() (any, error) {
		entry, err := c.inner.Resolve(ctx, name, constraint)
		if err != nil {
			return Entry{}, err
		}
		c.mu.Lock()
		c.cache[key] = cacheEntry{at: time.Now(), entry: entry}
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

// Versions returns the full set of known versions for name, sorted
// ascending, rather than just the resolved winner.
func Versions(ctx context.Context, r *InMemory, name string) ([]string, error) {
	r.mu.RLock()
	candidates := append([]Entry(nil), r.index[strings.ToLower(name)]...)
	r.mu.RUnlock()

	out := make([]string, 0, len(candidates))
	for _, e := range candidates {
		out = append(out, e.Version)
	}
	sort.Slice(out, func(i, j int) bool {
		vi, _ := semver.NewVersion(out[i])
		vj, _ := semver.NewVersion(out[j])
		if vi == nil || vj == nil {
			return out[i] < out[j]
		}
		return vi.LessThan(vj)
	})
	return out, nil
}
