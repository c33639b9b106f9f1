package system

import (
	"github.com/mergeplay/mergeplay/internal/core/event"
	"github.com/mergeplay/mergeplay/internal/data"
	"go.uber.org/zap"
)

// Equipment tracks the character's worn item per slot. Orders that carry an
// equip reward dress the character when fulfilled; equipping an occupied
// slot replaces what was there.
type Equipment struct {
	slots map[data.EquipSlot]string
	log   *zap.Logger
}

func NewEquipment(bus *event.Bus, log *zap.Logger) *Equipment {
	e := &Equipment{
		slots: make(map[data.EquipSlot]string, len(data.EquipSlots)),
		log:   log,
	}
	if bus != nil {
		event.Subscribe(bus, e.onOrderFulfilled)
	}
	return e
}

// Equip puts itemType into slot. Returns false for an unknown slot or an
// empty item type.
func (e *Equipment) Equip(itemType string, slot data.EquipSlot) bool {
	if itemType == "" || !validSlot(slot) {
		return false
	}
	if prev, ok := e.slots[slot]; ok {
		e.log.Debug("equipment replaced", zap.String("slot", string(slot)), zap.String("old", prev), zap.String("new", itemType))
	}
	e.slots[slot] = itemType
	return true
}

func (e *Equipment) Unequip(slot data.EquipSlot) bool {
	if _, ok := e.slots[slot]; !ok {
		return false
	}
	delete(e.slots, slot)
	return true
}

func (e *Equipment) UnequipAll() {
	clear(e.slots)
}

func (e *Equipment) Equipped(slot data.EquipSlot) (string, bool) {
	it, ok := e.slots[slot]
	return it, ok
}

func (e *Equipment) onOrderFulfilled(ev event.OrderFulfilled) {
	if ev.Order == nil || ev.Order.Equip.IsZero() {
		return
	}
	if !e.Equip(ev.Order.Equip.ItemType, ev.Order.Equip.Slot) {
		e.log.Warn("equip reward rejected",
			zap.String("order", ev.Order.ID),
			zap.String("slot", string(ev.Order.Equip.Slot)))
	}
}

func validSlot(slot data.EquipSlot) bool {
	for _, s := range data.EquipSlots {
		if s == slot {
			return true
		}
	}
	return false
}
