package file

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Layout maps a storage id to a path relative to the cache directory.
// Wildcard is a filepath.Glob pattern matching every path the layout produces.
type Layout interface {
	Path(id string) string
	Wildcard() string
}

// Basic stores every entry directly in the directory as fmt.Sprintf(format, id).
type Basic struct {
	Format string // default "%s.cache"
}

func (b Basic) format() string {
	if b.Format == "" {
		return "%s.cache"
	}
	return b.Format
}

func (b Basic) Path(id string) string { return fmt.Sprintf(b.format(), id) }
func (b Basic) Wildcard() string      { return fmt.Sprintf(b.format(), "*") }

// Trie spreads entries over nested directories named after growing prefixes of
// the id (or of its md5 when Hash is set): "ab" with two levels lands in a/ab/.
// Keeps directory sizes small for large caches.
type Trie struct {
	Format string // default "%s.cache"
	Levels int    // default 1
	Hash   bool
}

func (t Trie) levels() int {
	if t.Levels < 1 {
		return 1
	}
	return t.Levels
}

func (t Trie) Path(id string) string {
	name := Basic{Format: t.Format}.Path(id)
	dir := id
	if t.Hash {
		sum := md5.Sum([]byte(id))
		dir = hex.EncodeToString(sum[:])
	}
	runes := []rune(dir)
	parts := make([]string, 0, t.levels()+1)
	for n := 1; n <= t.levels(); n++ {
		parts = append(parts, bucket(string(runes[:min(n, len(runes))])))
	}
	parts = append(parts, name)
	return filepath.Join(parts...)
}

// bucket keeps a directory component from being "." or "..".
func bucket(part string) string {
	if part == "." || part == ".." {
		return strings.Repeat("_", len(part))
	}
	return part
}

func (t Trie) Wildcard() string {
	parts := append(strings.Split(strings.Repeat("*", t.levels()), ""), Basic{Format: t.Format}.Wildcard())
	return filepath.Join(parts...)
}
