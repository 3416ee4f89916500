package reconcile

import (
	"encoding/binary"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"

	"resumetailor/internal/types"
)

// MatchCache memoizes MatchEdits keyed on the section text and the ordered
// list of edit targets. Replacement text and status do not affect matching,
// so edits to them reuse the cached spans.
type MatchCache struct {
	mu       sync.Mutex
	entries  map[uint64][]Match
	order    []uint64
	capacity int
	hits     uint64
	misses   uint64
}

// NewMatchCache creates a cache holding up to capacity match sets.
// A capacity of zero or less returns nil, which matches without caching.
func NewMatchCache(capacity int) *MatchCache {
	if capacity <= 0 {
		return nil
	}
	return &MatchCache{
		entries:  make(map[uint64][]Match, capacity),
		capacity: capacity,
	}
}

// Fingerprint hashes the inputs that determine a match result
func Fingerprint(original string, edits []types.EditSuggestion) uint64 {
	d := xxhash.New()
	var lenBuf [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
		_, _ = d.Write(lenBuf[:])
		_, _ = d.WriteString(s)
	}
	write(original)
	for _, edit := range edits {
		write(edit.TargetText)
	}
	return d.Sum64()
}

// Match returns MatchEdits(original, edits), reusing a prior result when
// the text and targets are unchanged
func (c *MatchCache) Match(original string, edits []types.EditSuggestion) []Match {
	if c == nil {
		return MatchEdits(original, edits)
	}
	key := Fingerprint(original, edits)

	c.mu.Lock()
	cached, ok := c.entries[key]
	if ok && spansMatch(original, edits, cached) {
		c.hits++
		c.mu.Unlock()
		return slices.Clone(cached)
	}
	c.misses++
	c.mu.Unlock()

	matches := MatchEdits(original, edits)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = slices.Clone(matches)
	return matches
}

// spansMatch reports whether every cached span still covers its edit's
// target in original. A fingerprint collision fails this check.
func spansMatch(original string, edits []types.EditSuggestion, matches []Match) bool {
	for _, m := range matches {
		if m.Index < 0 || m.Index >= len(edits) {
			return false
		}
		if m.Pos < 0 || m.Pos > m.End || m.End > len(original) {
			return false
		}
		if original[m.Pos:m.End] != edits[m.Index].TargetText {
			return false
		}
	}
	return true
}

// Render is Render with matches served from the cache
func (c *MatchCache) Render(section types.SectionAnalysis) Rendering {
	return RenderMatches(section, c.Match(section.OriginalText, section.Edits))
}

// GetStats returns cache statistics
func (c *MatchCache) GetStats() map[string]any {
	if c == nil {
		return map[string]any{"enabled": false}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]any{
		"enabled":  true,
		"entries":  len(c.entries),
		"capacity": c.capacity,
		"hits":     c.hits,
		"misses":   c.misses,
	}
}
