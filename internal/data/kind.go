package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KindID is the catalog identity of a mergeable item.
type KindID string

// Kind is one immutable catalog entry. Two items merge only when they share
// the same ID and tier and the kind names a merge target.
type Kind struct {
	ID          KindID
	Tag         string // merge family, e.g. "gem", "wood"
	Name        string
	Tier        int
	MergeTarget KindID // empty = max tier
	Glyph       string
	Color       string
}

// MaxTier reports whether the kind has nothing to merge into.
func (k *Kind) MaxTier() bool { return k.MergeTarget == "" }

// CanMergeWith reports whether an item of kind k dropped on an item of kind o
// produces a merge. Compared by value, not by pointer identity.
func (k *Kind) CanMergeWith(o *Kind) bool {
	if k == nil || o == nil {
		return false
	}
	return k.ID == o.ID && k.Tier == o.Tier && !k.MaxTier()
}

// KindTable holds the item catalog. Read-only after load.
type KindTable struct {
	kinds map[KindID]*Kind
	order []*Kind
}

// Get returns a kind by ID, or nil if not found.
func (t *KindTable) Get(id KindID) *Kind {
	return t.kinds[id]
}

// Count returns the number of loaded kinds.
func (t *KindTable) Count() int {
	return len(t.order)
}

// All returns every kind in file order.
func (t *KindTable) All() []*Kind {
	return t.order
}

type kindEntry struct {
	ID          string `yaml:"kind_id"`
	Tag         string `yaml:"tag"`
	Name        string `yaml:"name"`
	Tier        int    `yaml:"tier"`
	MergeTarget string `yaml:"merge_target"`
	Glyph       string `yaml:"glyph"`
	Color       string `yaml:"color"`
}

type kindListFile struct {
	Kinds []kindEntry `yaml:"kinds"`
}

// LoadKindTable loads the item catalog from a YAML file.
func LoadKindTable(path string) (*KindTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kinds: %w", err)
	}
	var f kindListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse kinds: %w", err)
	}
	kinds := make([]Kind, 0, len(f.Kinds))
	for _, e := range f.Kinds {
		k := Kind{
			ID:          KindID(e.ID),
			Tag:         e.Tag,
			Name:        e.Name,
			Tier:        e.Tier,
			MergeTarget: KindID(e.MergeTarget),
			Glyph:       e.Glyph,
			Color:       e.Color,
		}
		if k.Name == "" {
			k.Name = e.ID
		}
		kinds = append(kinds, k)
	}
	t, err := NewKindTable(kinds)
	if err != nil {
		return nil, fmt.Errorf("kinds %s: %w", path, err)
	}
	return t, nil
}

// NewKindTable builds and validates a catalog from in-memory entries.
func NewKindTable(kinds []Kind) (*KindTable, error) {
	t := &KindTable{
		kinds: make(map[KindID]*Kind, len(kinds)),
		order: make([]*Kind, 0, len(kinds)),
	}
	for i := range kinds {
		k := kinds[i]
		if k.ID == "" {
			return nil, fmt.Errorf("kind #%d: empty kind_id", i)
		}
		if _, dup := t.kinds[k.ID]; dup {
			return nil, fmt.Errorf("kind %q: duplicate kind_id", k.ID)
		}
		if k.Tier < 1 {
			return nil, fmt.Errorf("kind %q: tier %d < 1", k.ID, k.Tier)
		}
		if k.Glyph == "" {
			k.Glyph = "?"
		}
		t.kinds[k.ID] = &k
		t.order = append(t.order, &k)
	}
	for _, k := range t.order {
		if k.MaxTier() {
			continue
		}
		if k.MergeTarget == k.ID {
			return nil, fmt.Errorf("kind %q: merges into itself", k.ID)
		}
		if _, ok := t.kinds[k.MergeTarget]; !ok {
			return nil, fmt.Errorf("kind %q: unknown merge_target %q", k.ID, k.MergeTarget)
		}
	}
	return t, nil
}
