package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EquipSlot is an attachment point on the reward character.
type EquipSlot string

const (
	SlotNone      EquipSlot = ""
	SlotRightHand EquipSlot = "right_hand"
	SlotLeftHand  EquipSlot = "left_hand"
	SlotBack      EquipSlot = "back"
	SlotHead      EquipSlot = "head"
	SlotBody      EquipSlot = "body"
)

// EquipSlots lists the character slots in display order.
var EquipSlots = []EquipSlot{SlotRightHand, SlotLeftHand, SlotBack, SlotHead, SlotBody}

func validSlot(s EquipSlot) bool {
	if s == SlotNone {
		return true
	}
	for _, v := range EquipSlots {
		if v == s {
			return true
		}
	}
	return false
}

// EquipReward is the item handed to the character when an order completes.
// Zero value means the order pays coins only.
type EquipReward struct {
	ItemType string // "axe", "sword", "helmet", ...
	Slot     EquipSlot
}

func (e EquipReward) IsZero() bool { return e.ItemType == "" }

// Order is a standing request for Quantity items of RequiredKind.
type Order struct {
	ID           string
	RequiredKind KindID
	Quantity     int
	Reward       int // coins
	Equip        EquipReward
}

// OrderTable holds the order queue in file order.
type OrderTable struct {
	orders []*Order
}

// All returns every order in file order.
func (t *OrderTable) All() []*Order { return t.orders }

// Count returns the number of loaded orders.
func (t *OrderTable) Count() int { return len(t.orders) }

type orderEntry struct {
	ID        string `yaml:"order_id"`
	Kind      string `yaml:"required_kind"`
	Quantity  int    `yaml:"quantity"`
	Reward    int    `yaml:"coin_reward"`
	EquipItem string `yaml:"equip_item"`
	EquipSlot string `yaml:"equip_slot"`
}

type orderListFile struct {
	Orders []orderEntry `yaml:"orders"`
}

// LoadOrderTable loads the order queue and checks every required kind
// against the catalog.
func LoadOrderTable(path string, kinds *KindTable) (*OrderTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	var f orderListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse orders: %w", err)
	}

	t := &OrderTable{orders: make([]*Order, 0, len(f.Orders))}
	for i, e := range f.Orders {
		o := &Order{
			ID:           e.ID,
			RequiredKind: KindID(e.Kind),
			Quantity:     e.Quantity,
			Reward:       e.Reward,
			Equip:        EquipReward{ItemType: e.EquipItem, Slot: EquipSlot(e.EquipSlot)},
		}
		if o.ID == "" {
			o.ID = fmt.Sprintf("order-%d", i+1)
		}
		if o.Quantity == 0 {
			o.Quantity = 1
		}
		if err := validateOrder(o, kinds); err != nil {
			return nil, fmt.Errorf("orders %s: %w", path, err)
		}
		t.orders = append(t.orders, o)
	}
	return t, nil
}

func validateOrder(o *Order, kinds *KindTable) error {
	if kinds.Get(o.RequiredKind) == nil {
		return fmt.Errorf("order %q: unknown required_kind %q", o.ID, o.RequiredKind)
	}
	if o.Quantity < 1 {
		return fmt.Errorf("order %q: quantity %d < 1", o.ID, o.Quantity)
	}
	if o.Reward < 0 {
		return fmt.Errorf("order %q: negative coin_reward", o.ID)
	}
	if !validSlot(o.Equip.Slot) {
		return fmt.Errorf("order %q: unknown equip_slot %q", o.ID, o.Equip.Slot)
	}
	if !o.Equip.IsZero() && o.Equip.Slot == SlotNone {
		return fmt.Errorf("order %q: equip_item %q without equip_slot", o.ID, o.Equip.ItemType)
	}
	return nil
}
