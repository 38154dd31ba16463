package resource

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/cengkuru/costknowledgehub/internal/domain"
)

// Keys builds the Redis keys of the resource catalog under a common prefix.
type Keys struct {
	prefix string
}

// NewKeys creates a key builder. An empty prefix uses domain.DefaultKeyPrefix.
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = domain.DefaultKeyPrefix
	}
	return Keys{prefix: prefix}
}

// Resource is the JSON document key of a resource.
func (k Keys) Resource(id string) string { return k.ResourcePrefix() + id }

// ResourcePrefix is the key prefix covered by the search index.
func (k Keys) ResourcePrefix() string { return k.prefix + "resource:" }

// Index is the search index name.
func (k Keys) Index() string { return k.prefix + "resources:idx" }

// IndexSchema holds the fingerprint of the schema the index was built with.
func (k Keys) IndexSchema() string { return k.Index() + ":schema" }

// Slug is the uniqueness reservation key of a slug.
func (k Keys) Slug(slug string) string { return k.prefix + "slug:" + slug }

// URL is the uniqueness reservation key of a url. URLs are hashed to bound key length.
func (k Keys) URL(url string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return k.prefix + "url:" + hex.EncodeToString(h[:])
}

// Taxonomy is the key of the active-topics document.
func (k Keys) Taxonomy() string { return k.prefix + "taxonomy:topics" }

// IDFromKey strips the resource prefix from a document key.
func (k Keys) IDFromKey(key string) string { return strings.TrimPrefix(key, k.ResourcePrefix()) }
