package faction

import (
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Entry is one authored relationship between two factions. The pair is
// unordered: an entry for (A, B) answers queries for (B, A) as well.
type Entry struct {
	A        ID
	B        ID
	Relation Relation
	Note     string
}

// pairKey is the normalized unordered faction pair used as the table key.
type pairKey struct {
	lo, hi ID
}

func makePairKey(a, b ID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Table resolves pairwise faction relations. Immutable once built: content
// changes go through a rebuild and an atomic swap in the Registry.
type Table struct {
	relations map[pairKey]Relation
	def       Relation
	entries   []Entry
	warnings  []string
	fp        [32]byte
}

// BuildTable constructs a Table from authored entries. Duplicate unordered
// pairs resolve last-entry-wins and are recorded as warnings. Self-pair
// entries are stored but never consulted (same faction is friendly before
// any lookup) and are recorded as warnings too.
func BuildTable(entries []Entry, defaultRelation Relation) *Table {
	t := &Table{
		relations: make(map[pairKey]Relation, len(entries)),
		def:       defaultRelation,
		entries:   append([]Entry(nil), entries...),
	}

	for _, e := range entries {
		key := makePairKey(e.A, e.B)
		if e.A == e.B {
			t.warnings = append(t.warnings,
				fmt.Sprintf("self-pair entry for %s has no effect: same faction is always friendly", e.A))
		}
		if prev, dup := t.relations[key]; dup && prev != e.Relation {
			t.warnings = append(t.warnings,
				fmt.Sprintf("duplicate pair %s/%s: keeping later entry %s", e.A, e.B, e.Relation))
		}
		t.relations[key] = e.Relation
	}

	t.fp = t.fingerprint()
	return t
}

// Get resolves the relation between two factions. Rules apply in order and
// the first match wins:
//
//  1. same faction is friendly
//  2. either side Friendly is friendly
//  3. either side Hostile is hostile
//  4. either side None is neutral
//  5. configured pair, either orientation
//  6. table default
//
// Only rule 5 touches the pair map, so override and None semantics hold
// even for factions that never appear in the authored entries.
func (t *Table) Get(a, b ID) Relation {
	if a == b {
		return RelationFriendly
	}
	if a == Friendly || b == Friendly {
		return RelationFriendly
	}
	if a == Hostile || b == Hostile {
		return RelationHostile
	}
	if a == None || b == None {
		return RelationNeutral
	}
	if rel, ok := t.relations[makePairKey(a, b)]; ok {
		return rel
	}
	return t.def
}

// Default returns the fallback relation for unconfigured pairs.
func (t *Table) Default() Relation {
	return t.def
}

// Len returns the number of distinct configured pairs.
func (t *Table) Len() int {
	return len(t.relations)
}

// Entries returns a copy of the authored entries, in authored order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Warnings returns the configuration problems recorded at build time.
func (t *Table) Warnings() []string {
	return append([]string(nil), t.warnings...)
}

// Fingerprint returns a content hash over the normalized pair map and the
// default relation. Tables with the same effective content share one
// fingerprint regardless of entry order or shadowed duplicates.
func (t *Table) Fingerprint() [32]byte {
	return t.fp
}

// FingerprintHex returns the fingerprint as a hex string for logs and the
// inspect endpoints.
func (t *Table) FingerprintHex() string {
	return hex.EncodeToString(t.fp[:])
}

func (t *Table) fingerprint() [32]byte {
	keys := make([]pairKey, 0, len(t.relations))
	for k := range t.relations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lo != keys[j].lo {
			return keys[i].lo < keys[j].lo
		}
		return keys[i].hi < keys[j].hi
	})

	buf := make([]byte, 0, len(keys)*3+1)
	buf = append(buf, byte(t.def))
	for _, k := range keys {
		buf = append(buf, byte(k.lo), byte(k.hi), byte(t.relations[k]))
	}
	return blake2b.Sum256(buf)
}
