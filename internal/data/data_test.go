package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const gemKinds = `
kinds:
  - kind_id: gem1
    tag: gem
    name: Shard
    tier: 1
    merge_target: gem2
    glyph: "◇"
  - kind_id: gem2
    tag: gem
    tier: 2
    merge_target: gem3
  - kind_id: gem3
    tag: gem
    tier: 3
`

func TestLoadKindTable(t *testing.T) {
	tbl, err := LoadKindTable(writeFile(t, "kinds.yaml", gemKinds))
	if err != nil {
		t.Fatalf("LoadKindTable: %v", err)
	}
	if tbl.Count() != 3 {
		t.Fatalf("Count()=%d, want 3", tbl.Count())
	}
	g1 := tbl.Get("gem1")
	if g1 == nil || g1.Name != "Shard" || g1.MergeTarget != "gem2" {
		t.Fatalf("gem1 = %+v", g1)
	}
	if g2 := tbl.Get("gem2"); g2.Name != "gem2" || g2.Glyph != "?" {
		t.Errorf("defaults not applied: %+v", g2)
	}
	if !tbl.Get("gem3").MaxTier() {
		t.Error("gem3 should be max tier")
	}
	if all := tbl.All(); all[0].ID != "gem1" || all[2].ID != "gem3" {
		t.Error("All() must keep file order")
	}
}

func TestNewKindTableRejectsBadCatalogs(t *testing.T) {
	cases := []struct {
		name  string
		kinds []Kind
		want  string
	}{
		{"empty id", []Kind{{Tier: 1}}, "empty kind_id"},
		{"duplicate", []Kind{{ID: "a", Tier: 1}, {ID: "a", Tier: 1}}, "duplicate"},
		{"tier zero", []Kind{{ID: "a"}}, "tier 0"},
		{"self merge", []Kind{{ID: "a", Tier: 1, MergeTarget: "a"}}, "itself"},
		{"dangling target", []Kind{{ID: "a", Tier: 1, MergeTarget: "b"}}, "unknown merge_target"},
	}
	for _, c := range cases {
		_, err := NewKindTable(c.kinds)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: err=%v, want containing %q", c.name, err, c.want)
		}
	}
}

func TestCanMergeWith(t *testing.T) {
	tbl, err := NewKindTable([]Kind{
		{ID: "gem1", Tier: 1, MergeTarget: "gem2"},
		{ID: "gem2", Tier: 2},
		{ID: "wood1", Tier: 1, MergeTarget: "gem2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	gem1, gem2, wood1 := tbl.Get("gem1"), tbl.Get("gem2"), tbl.Get("wood1")
	copyOfGem1 := *gem1

	cases := []struct {
		name string
		a, b *Kind
		want bool
	}{
		{"same kind", gem1, gem1, true},
		{"equal by value", gem1, &copyOfGem1, true},
		{"different kind same tier", gem1, wood1, false},
		{"different tier", gem1, gem2, false},
		{"max tier", gem2, gem2, false},
		{"nil", gem1, nil, false},
	}
	for _, c := range cases {
		if got := c.a.CanMergeWith(c.b); got != c.want {
			t.Errorf("%s: CanMergeWith=%v, want %v", c.name, got, c.want)
		}
	}
}

func TestLoadOrderTable(t *testing.T) {
	kinds, err := LoadKindTable(writeFile(t, "kinds.yaml", gemKinds))
	if err != nil {
		t.Fatal(err)
	}
	orders, err := LoadOrderTable(writeFile(t, "orders.yaml", `
orders:
  - order_id: first
    required_kind: gem2
    quantity: 1
    coin_reward: 10
    equip_item: axe
    equip_slot: right_hand
  - required_kind: gem1
    coin_reward: 5
`), kinds)
	if err != nil {
		t.Fatalf("LoadOrderTable: %v", err)
	}
	if orders.Count() != 2 {
		t.Fatalf("Count()=%d, want 2", orders.Count())
	}
	first := orders.All()[0]
	if first.Equip.Slot != SlotRightHand || first.Equip.ItemType != "axe" || first.Reward != 10 {
		t.Errorf("first = %+v", first)
	}
	second := orders.All()[1]
	if second.ID != "order-2" || second.Quantity != 1 || !second.Equip.IsZero() {
		t.Errorf("defaults not applied: %+v", second)
	}
}

func TestLoadOrderTableRejects(t *testing.T) {
	kinds, _ := NewKindTable([]Kind{{ID: "gem1", Tier: 1}})
	cases := map[string]string{
		"unknown kind":   "orders:\n  - required_kind: nope\n",
		"bad quantity":   "orders:\n  - required_kind: gem1\n    quantity: -2\n",
		"bad slot":       "orders:\n  - required_kind: gem1\n    equip_item: axe\n    equip_slot: tail\n",
		"item sans slot": "orders:\n  - required_kind: gem1\n    equip_item: axe\n",
	}
	for name, body := range cases {
		if _, err := LoadOrderTable(writeFile(t, "orders.yaml", body), kinds); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadLayout(t *testing.T) {
	kinds, _ := NewKindTable([]Kind{{ID: "gem1", Tier: 1}, {ID: "wood1", Tier: 1}})
	l, err := LoadLayout(writeFile(t, "layout.yaml", `
placements:
  - {kind: gem1, x: 0, y: 0}
  - {kind: gem1, x: 1, y: 0}
  - {kind: wood1, x: 2, y: 0}
spawnable: [gem1, wood1]
initial_random: 1
`), kinds)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	if len(l.Placements) != 3 || l.Placements[2].Kind != "wood1" || l.Placements[1].X != 1 {
		t.Errorf("placements = %+v", l.Placements)
	}
	if len(l.Spawnable) != 2 || l.InitialRandom != 1 {
		t.Errorf("layout = %+v", l)
	}

	if _, err := LoadLayout(writeFile(t, "bad.yaml", "spawnable: [ghost]\n"), kinds); err == nil {
		t.Error("unknown spawnable kind should fail")
	}
}
