// Package world models the entities a level is made of and the overlap
// queries the gameplay core runs against them.
//
// Every body carries an explicit Category assigned when it is spawned.
// Levels authored with names and tags only are classified once, at spawn
// time, by ClassifyLegacy. Bodies that arrive uncategorized from another
// Query implementation are classified the same way on read.
package world

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/platformer/pkg/item"
)

// Category is the kind of entity a body represents.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryGround
	CategoryPlayer
	CategoryNPC
	CategoryItem
	CategoryDoor
	CategoryPortal
)

func (c Category) String() string {
	switch c {
	case CategoryGround:
		return "ground"
	case CategoryPlayer:
		return "player"
	case CategoryNPC:
		return "npc"
	case CategoryItem:
		return "item"
	case CategoryDoor:
		return "door"
	case CategoryPortal:
		return "portal"
	default:
		return "unknown"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	for k := CategoryUnknown; k <= CategoryPortal; k++ {
		if k.String() == string(b) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown body category %q", b)
}

// Legacy tag values used by name/tag authored levels.
const (
	TagGround = "Ground"
	TagPlayer = "Player"
	TagNPC    = "NPC"
	TagItem   = "Item"
	TagDoor   = "Door"
	TagPortal = "Portal"
)

// ClassifyLegacy derives a category from a display name and tag. A body is
// ground when its name starts with "Ground" or its tag is "Ground"; both are
// checked because authored levels are not consistent about either.
func ClassifyLegacy(name, tag string) Category {
	if strings.HasPrefix(name, TagGround) || tag == TagGround {
		return CategoryGround
	}
	switch tag {
	case TagPlayer:
		return CategoryPlayer
	case TagNPC:
		return CategoryNPC
	case TagItem:
		return CategoryItem
	case TagDoor:
		return CategoryDoor
	case TagPortal:
		return CategoryPortal
	}
	return CategoryUnknown
}

// Teleport holds the destinations of a door or portal. Doors use Target;
// portals use Up and Down.
type Teleport struct {
	Target *Vec2 `json:"target,omitempty"`
	Up     *Vec2 `json:"up,omitempty"`
	Down   *Vec2 `json:"down,omitempty"`
}

// Body is an axis-aligned box in the world. A zero HalfSize is a point.
type Body struct {
	ID       uuid.UUID  `json:"id"`
	Seq      uint64     `json:"seq"` // spawn order, used for stable iteration
	Name     string     `json:"name"`
	Tag      string     `json:"tag,omitempty"`
	Category Category   `json:"category"`
	Position Vec2       `json:"position"`
	HalfSize Vec2       `json:"half_size"`
	Key      string     `json:"key,omitempty"` // NPC key for NPC bodies
	Item     *item.Item `json:"item,omitempty"`
	Teleport *Teleport  `json:"teleport,omitempty"`
}

// Min returns the lower-left corner of the box.
func (b Body) Min() Vec2 {
	return b.Position.Sub(b.HalfSize)
}

// Max returns the upper-right corner of the box.
func (b Body) Max() Vec2 {
	return b.Position.Add(b.HalfSize)
}

// OverlapsCircle reports whether the box intersects the closed circle.
func (b Body) OverlapsCircle(center Vec2, radius float64) bool {
	lo, hi := b.Min(), b.Max()
	closest := Vec2{
		X: Clamp(center.X, lo.X, hi.X),
		Y: Clamp(center.Y, lo.Y, hi.Y),
	}
	return closest.Dist(center) <= radius
}

// clone deep-copies the pointer fields so callers never share state with
// the world.
func (b Body) clone() Body {
	if b.Item != nil {
		it := b.Item.Clone()
		b.Item = &it
	}
	if b.Teleport != nil {
		t := Teleport{}
		if b.Teleport.Target != nil {
			v := *b.Teleport.Target
			t.Target = &v
		}
		if b.Teleport.Up != nil {
			v := *b.Teleport.Up
			t.Up = &v
		}
		if b.Teleport.Down != nil {
			v := *b.Teleport.Down
			t.Down = &v
		}
		b.Teleport = &t
	}
	return b
}
