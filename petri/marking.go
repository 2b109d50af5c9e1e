package petri

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Marking maps place id to token count. A nil or missing entry is
// equivalent to zero tokens.
type Marking map[string]int

// NewMarking builds a Marking from a plain map, copying it so the
// caller's map can be mutated afterward without affecting the result.
func NewMarking(tokens map[string]int) Marking {
	m := make(Marking, len(tokens))
	for k, v := range tokens {
		m[k] = v
	}
	return m
}

// Get returns the token count at place, 0 if absent.
func (m Marking) Get(place string) int {
	return m[place]
}

// Set assigns the token count at place.
func (m Marking) Set(place string, count int) {
	m[place] = count
}

// Add increments the token count at place by delta.
func (m Marking) Add(place string, delta int) {
	m[place] += delta
}

// Copy returns an independent copy of the marking.
func (m Marking) Copy() Marking {
	out := make(Marking, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SortedKeys returns the place ids present in m, sorted lexicographically.
// Zero-valued entries are included; Hash and Equals, which ignore zero
// entries, do not use it.
func (m Marking) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equals reports whether two markings hold the same non-zero counts at
// every place (zero entries and missing entries are equivalent).
func (m Marking) Equals(other Marking) bool {
	seen := make(map[string]bool, len(m)+len(other))
	for k := range m {
		seen[k] = true
	}
	for k := range other {
		seen[k] = true
	}
	for k := range seen {
		if m.Get(k) != other.Get(k) {
			return false
		}
	}
	return true
}

// Hash returns a stable content hash over the non-zero entries of the
// marking, used to dedup states during reachability exploration.
func (m Marking) Hash() string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(m[k]))
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}

// Total returns the sum of all token counts.
func (m Marking) Total() int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// Covers reports whether m has at least as many tokens as other at every
// place other assigns tokens to.
func (m Marking) Covers(other Marking) bool {
	for k, v := range other {
		if m.Get(k) < v {
			return false
		}
	}
	return true
}

// StrictlyCovers reports whether m covers other and differs from it in
// at least one place. The validator's boundedness check does not use it;
// it compares each place against a capacity cap instead.
func (m Marking) StrictlyCovers(other Marking) bool {
	return m.Covers(other) && !m.Equals(other)
}

// String renders "place=count" pairs in sorted order for debugging.
func (m Marking) String() string {
	keys := m.SortedKeys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if m[k] == 0 {
			continue
		}
		parts = append(parts, k+"="+strconv.Itoa(m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
