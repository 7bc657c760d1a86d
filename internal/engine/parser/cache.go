package parser

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ParseFunc parses one source file.
type ParseFunc func(path string, content []byte) (*File, error)

// CachedParser memoizes parse results by path and content hash, so the
// class and sequence analyzers of one run share work on the same tree.
// Cached files are shared and must be treated as read-only.
type CachedParser struct {
	parse ParseFunc
	cache *lru.Cache[string, *File]
}

const DefaultCacheSize = 512

func NewCachedParser(parse ParseFunc, size int) (*CachedParser, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *File](size)
	if err != nil {
		return nil, err
	}
	return &CachedParser{parse: parse, cache: cache}, nil
}

func (c *CachedParser) ParseFile(path string, content []byte) (*File, error) {
	key := cacheKey(path, content)
	if file, ok := c.cache.Get(key); ok {
		return file, nil
	}
	file, err := c.parse(path, content)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, file)
	return file, nil
}

func (c *CachedParser) IsSupportedPath(path string) bool { return IsPythonPath(path) }

// Len is the number of cached parse trees.
func (c *CachedParser) Len() int { return c.cache.Len() }

func (c *CachedParser) Purge() { c.cache.Purge() }

func cacheKey(path string, content []byte) string {
	sum := sha256.Sum256(content)
	return path + "\x00" + hex.EncodeToString(sum[:])
}
