// Package inventory implements the player's fixed-capacity slot store.
//
// Every mutating call is all-or-nothing: it runs against a copy of the
// slots and only commits when it succeeds. A committed change notifies each
// subscriber once with a full copy of the slots.
package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jwebster45206/platformer/pkg/item"
)

// DefaultCapacity is the slot count used when none is configured.
const DefaultCapacity = 20

var (
	ErrInvalidIndex    = errors.New("slot index out of range")
	ErrInventoryFull   = errors.New("inventory full")
	ErrSlotEmpty       = errors.New("slot is empty")
	ErrItemNotFound    = errors.New("item not found in inventory")
	ErrNotUsable       = errors.New("item cannot be used")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Slot is one addressable position. A nil Item means the slot is empty.
type Slot struct {
	Item     *item.Item `json:"item,omitempty"`
	Equipped bool       `json:"equipped,omitempty"`
}

// Empty reports whether the slot holds nothing.
func (s Slot) Empty() bool {
	return s.Item == nil
}

func (s Slot) clone() Slot {
	if s.Item != nil {
		it := s.Item.Clone()
		s.Item = &it
	}
	return s
}

// Listener receives the full slot sequence after each committed change.
type Listener interface {
	InventoryChanged(slots []Slot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(slots []Slot)

func (f ListenerFunc) InventoryChanged(slots []Slot) { f(slots) }

// Inventory is owned by a single entity and is not safe for concurrent
// mutation. Subscribe may be called from any goroutine.
type Inventory struct {
	slots   []Slot
	version uint64
	logger  *slog.Logger

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New returns an inventory with capacity slots. A capacity below 1 uses
// DefaultCapacity.
func New(capacity int, logger *slog.Logger) *Inventory {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Inventory{
		slots:     make([]Slot, capacity),
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l and returns a function that removes it.
func (inv *Inventory) Subscribe(l Listener) func() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	id := inv.nextID
	inv.nextID++
	inv.listeners[id] = l

	return func() {
		inv.mu.Lock()
		defer inv.mu.Unlock()
		delete(inv.listeners, id)
	}
}

// mutate applies fn to a working copy of the slots. The copy replaces the
// live slots only when fn succeeds, after which listeners are notified.
func (inv *Inventory) mutate(op string, fn func(slots []Slot) error) error {
	working := cloneSlots(inv.slots)
	if err := fn(working); err != nil {
		inv.logger.Debug("Inventory operation rejected", "op", op, "error", err)
		return err
	}
	inv.slots = working
	inv.version++
	inv.notify()
	return nil
}

func (inv *Inventory) notify() {
	inv.mu.Lock()
	listeners := make([]Listener, 0, len(inv.listeners))
	for id := 0; id < inv.nextID; id++ {
		if l, ok := inv.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	inv.mu.Unlock()

	for _, l := range listeners {
		l.InventoryChanged(cloneSlots(inv.slots))
	}
}

// Add places item in the inventory. A stackable item merges into the first
// slot holding the same name; anything else takes the lowest empty slot.
func (inv *Inventory) Add(it item.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	return inv.mutate("add", func(slots []Slot) error {
		if it.Stackable {
			for i := range slots {
				if slots[i].Item != nil && slots[i].Item.Name == it.Name {
					slots[i].Item.Quantity += it.Quantity
					inv.logger.Debug("Item stacked",
						"item", it.Name,
						"slot", i,
						"quantity", slots[i].Item.Quantity)
					return nil
				}
			}
		}
		for i := range slots {
			if slots[i].Empty() {
				clone := it.Clone()
				slots[i] = Slot{Item: &clone}
				inv.logger.Debug("Item added", "item", it.Name, "slot", i)
				return nil
			}
		}
		return fmt.Errorf("%w: cannot add %q", ErrInventoryFull, it.Name)
	})
}

// Remove clears the slot at index.
func (inv *Inventory) Remove(index int) error {
	return inv.mutate("remove", func(slots []Slot) error {
		if err := checkOccupied(slots, index); err != nil {
			return err
		}
		inv.logger.Debug("Item removed", "item", slots[index].Item.Name, "slot", index)
		slots[index] = Slot{}
		return nil
	})
}

// RemoveByName takes qty units from the first slot holding name, clearing
// the slot when its quantity would drop to zero or below.
func (inv *Inventory) RemoveByName(name string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	return inv.mutate("remove_by_name", func(slots []Slot) error {
		for i := range slots {
			if slots[i].Item == nil || slots[i].Item.Name != name {
				continue
			}
			if slots[i].Item.Quantity <= qty {
				slots[i] = Slot{}
			} else {
				slots[i].Item.Quantity -= qty
			}
			return nil
		}
		return fmt.Errorf("%w: %q", ErrItemNotFound, name)
	})
}

// Effect describes what using an item did.
type Effect string

const (
	EffectConsumed Effect = "consumed"
	EffectEquipped Effect = "equipped"
)

// UseResult reports the outcome of Use. Item is a copy of the item as it
// was before use; Remaining is what is left in the slot.
type UseResult struct {
	Item      item.Item `json:"item"`
	Effect    Effect    `json:"effect"`
	Remaining int       `json:"remaining"`
}

// Use applies the item in the slot at index. Consumables lose one unit and
// the slot clears at zero. Equipment is marked equipped. Other types are
// reported as ErrNotUsable and leave the inventory untouched.
func (inv *Inventory) Use(index int) (UseResult, error) {
	var result UseResult
	err := inv.mutate("use", func(slots []Slot) error {
		if err := checkOccupied(slots, index); err != nil {
			return err
		}
		it := slots[index].Item
		result.Item = it.Clone()

		switch it.Type {
		case item.Consumable:
			it.Quantity--
			result.Effect = EffectConsumed
			result.Remaining = it.Quantity
			if it.Quantity <= 0 {
				slots[index] = Slot{}
			}
			inv.logger.Info("Consumed item", "item", it.Name, "slot", index, "remaining", result.Remaining)
		case item.Equipment:
			slots[index].Equipped = true
			result.Effect = EffectEquipped
			result.Remaining = it.Quantity
			inv.logger.Info("Equipped item", "item", it.Name, "slot", index)
		default:
			return fmt.Errorf("%w: %q is %s", ErrNotUsable, it.Name, it.Type)
		}
		return nil
	})
	if err != nil {
		return UseResult{}, err
	}
	return result, nil
}

// Placer puts a dropped item into the world.
type Placer interface {
	PlaceItem(it item.Item) error
}

// DropResult reports the outcome of Drop. Placed is false when the world
// could not take the item; the slot is cleared either way.
type DropResult struct {
	Item     item.Item `json:"item"`
	Placed   bool      `json:"placed"`
	PlaceErr error     `json:"-"`
}

// Drop clears the slot at index and hands a clone of its item to placer.
// The slot stays cleared even if placement fails; the failure is logged
// and returned in the result, not as an error.
func (inv *Inventory) Drop(index int, placer Placer) (DropResult, error) {
	var result DropResult
	err := inv.mutate("drop", func(slots []Slot) error {
		if err := checkOccupied(slots, index); err != nil {
			return err
		}
		result.Item = slots[index].Item.Clone()
		slots[index] = Slot{}
		return nil
	})
	if err != nil {
		return DropResult{}, err
	}

	if placer == nil {
		result.PlaceErr = errors.New("no placer")
	} else {
		result.PlaceErr = placer.PlaceItem(result.Item.Clone())
	}
	result.Placed = result.PlaceErr == nil
	if !result.Placed {
		inv.logger.Warn("Dropped item could not be placed in world",
			"item", result.Item.Name,
			"slot", index,
			"error", result.PlaceErr)
	}
	return result, nil
}

// Slots returns a copy of every slot.
func (inv *Inventory) Slots() []Slot {
	return cloneSlots(inv.slots)
}

// Slot returns a copy of the slot at index.
func (inv *Inventory) Slot(index int) (Slot, error) {
	if index < 0 || index >= len(inv.slots) {
		return Slot{}, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return inv.slots[index].clone(), nil
}

func (inv *Inventory) Capacity() int {
	return len(inv.slots)
}

// Count returns the number of occupied slots.
func (inv *Inventory) Count() int {
	n := 0
	for _, s := range inv.slots {
		if !s.Empty() {
			n++
		}
	}
	return n
}

// QuantityOf sums the quantity of every slot holding name.
func (inv *Inventory) QuantityOf(name string) int {
	total := 0
	for _, s := range inv.slots {
		if s.Item != nil && s.Item.Name == name {
			total += s.Item.Quantity
		}
	}
	return total
}

// Version increases by one with every committed change.
func (inv *Inventory) Version() uint64 {
	return inv.version
}

// Dump lists the occupied slots, one per line.
func (inv *Inventory) Dump() string {
	return Dump(inv.slots)
}

// Dump formats a slot sequence, such as one delivered to a Listener, the
// same way Inventory.Dump does.
func Dump(slots []Slot) string {
	count := 0
	for _, s := range slots {
		if !s.Empty() {
			count++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Inventory (%d/%d)\n", count, len(slots))
	for i, s := range slots {
		if s.Empty() {
			continue
		}
		fmt.Fprintf(&sb, "  [%d] %s x%d (%s)", i, s.Item.Name, s.Item.Quantity, s.Item.Type)
		if s.Equipped {
			sb.WriteString(" equipped")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func checkOccupied(slots []Slot, index int) error {
	if index < 0 || index >= len(slots) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if slots[index].Empty() {
		return fmt.Errorf("%w: %d", ErrSlotEmpty, index)
	}
	return nil
}

func cloneSlots(slots []Slot) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		out[i] = s.clone()
	}
	return out
}
