// Package cache stores computed layouts and rendered artifacts.
//
// Layout is cheap but not free, and rendering PNG or PDF shells out to
// rsvg-convert. The runner therefore caches both, keyed by a content hash
// of their inputs so a changed stage file or constant set never hits a
// stale entry.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for the serve command
//   - [NullCache]: never stores anything (--no-cache)
//
// # Keys
//
// A [Keyer] derives keys:
//
//	k := cache.NewDefaultKeyer()
//	lk := k.LayoutKey(cache.Hash(stagesJSON), cache.LayoutKeyOpts{Constants: c})
//	ak := k.ArtifactKey(layoutHash, cache.ArtifactKeyOpts{Format: "svg"})
//
// [NewScopedKeyer] adds a prefix so several deployments can share one
// Redis database.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/stagegraph/pkg/layout"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Key prefixes.
const (
	prefixLayout   = "layout"
	prefixArtifact = "artifact"
)

// Default time-to-live per entry kind.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// LayoutKeyOpts are the inputs besides the stages that affect a layout.
type LayoutKeyOpts struct {
	Constants layout.Constants `json:"constants"`
}

// ArtifactKeyOpts are the inputs besides the layout that affect a
// rendered artifact.
type ArtifactKeyOpts struct {
	Format        string  `json:"format"`
	VizType       string  `json:"viz_type,omitempty"`
	SelectedKey   string  `json:"selected,omitempty"`
	Scale         float64 `json:"scale,omitempty"`
	NoCSS         bool    `json:"no_css,omitempty"`
	ClickEndpoint string  `json:"click_endpoint,omitempty"`
	Detailed      bool    `json:"detailed,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(stagesHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns layout:<sha256(stagesHash, opts)>.
func (DefaultKeyer) LayoutKey(stagesHash string, opts LayoutKeyOpts) string {
	return hashKey(prefixLayout, stagesHash, opts)
}

// ArtifactKey returns artifact:<format>:<sha256(layoutHash, opts)>.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(prefixArtifact+":"+opts.Format, layoutHash, opts)
}
