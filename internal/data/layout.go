package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Placement puts one item of Kind at a fixed cell on startup.
type Placement struct {
	Kind KindID
	X, Y int
}

// Layout describes the starting board and what the spawner may produce.
type Layout struct {
	Placements    []Placement
	Spawnable     []KindID
	InitialRandom int // extra random spawns after the fixed placements
}

type placementEntry struct {
	Kind string `yaml:"kind"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

type layoutFile struct {
	Placements    []placementEntry `yaml:"placements"`
	Spawnable     []string         `yaml:"spawnable"`
	InitialRandom int              `yaml:"initial_random"`
}

// LoadLayout loads the starting layout. Cell bounds are checked later by the
// spawner, which knows the grid size.
func LoadLayout(path string, kinds *KindTable) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	var f layoutFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	l := &Layout{InitialRandom: f.InitialRandom}
	for _, p := range f.Placements {
		if kinds.Get(KindID(p.Kind)) == nil {
			return nil, fmt.Errorf("layout %s: unknown kind %q at (%d,%d)", path, p.Kind, p.X, p.Y)
		}
		l.Placements = append(l.Placements, Placement{Kind: KindID(p.Kind), X: p.X, Y: p.Y})
	}
	for _, s := range f.Spawnable {
		if kinds.Get(KindID(s)) == nil {
			return nil, fmt.Errorf("layout %s: unknown spawnable kind %q", path, s)
		}
		l.Spawnable = append(l.Spawnable, KindID(s))
	}
	if l.InitialRandom < 0 {
		return nil, fmt.Errorf("layout %s: negative initial_random", path)
	}
	return l, nil
}
