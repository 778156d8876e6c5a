package item

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidItem = errors.New("invalid item")
	ErrUnknownType = errors.New("unknown item type")
)

// Type classifies what using an item does.
type Type int

const (
	Equipment Type = iota
	Consumable
	Quest
	Misc
)

func (t Type) String() string {
	switch t {
	case Equipment:
		return "Equipment"
	case Consumable:
		return "Consumable"
	case Quest:
		return "Quest"
	case Misc:
		return "Misc"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType accepts the names used in the item sheet, case-insensitively.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equipment":
		return Equipment, nil
	case "consumable":
		return Consumable, nil
	case "quest":
		return Quest, nil
	case "misc", "":
		return Misc, nil
	}
	return Misc, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Item is a value type. Identity is the name; quantity is the only field
// that changes while an item sits in a slot.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"` // opaque handle owned by the renderer
	Type        Type   `json:"type"`
	Stackable   bool   `json:"stackable,omitempty"`
	Quantity    int    `json:"quantity"`
	Heal        int    `json:"heal,omitempty"` // HP restored when a consumable is used
}

// New builds an item with quantity clamped to at least 1.
func New(name, description, icon string, typ Type, stackable bool, quantity int) Item {
	if quantity < 1 {
		quantity = 1
	}
	return Item{
		Name:        name,
		Description: description,
		Icon:        icon,
		Type:        typ,
		Stackable:   stackable,
		Quantity:    quantity,
	}
}

// Clone returns an independent copy. Every transfer between owners goes
// through Clone so no two owners ever share one item.
func (it Item) Clone() Item {
	return it
}

// Validate checks the fields a data source is expected to supply.
func (it Item) Validate() error {
	var errs []error
	if strings.TrimSpace(it.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if it.Quantity < 1 {
		errs = append(errs, fmt.Errorf("quantity %d must be at least 1", it.Quantity))
	}
	if it.Type < Equipment || it.Type > Misc {
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownType, int(it.Type)))
	}
	if it.Heal < 0 {
		errs = append(errs, fmt.Errorf("heal %d must not be negative", it.Heal))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidItem, it.Name, errors.Join(errs...))
}
