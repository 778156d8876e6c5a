package game

import (
	"fmt"

	"github.com/jwebster45206/platformer/pkg/world"
)

// Level describes the static layout a game is built on. Items and NPCs
// come from the sheet data and are laid out along ItemRow and NPCRow.
type Level struct {
	Spawn   world.Vec2
	KillY   float64 // falling below this returns the player to Spawn
	Grounds []world.Body
	Doors   []world.Body
	Portals []world.Body

	ItemRow world.Vec2
	ItemGap float64
	NPCRow  world.Vec2
	NPCGap  float64

	// BonusItem places one random catalog item when set.
	BonusItem *world.Vec2
}

func vec(x, y float64) *world.Vec2 {
	return &world.Vec2{X: x, Y: y}
}

// DemoLevel is a single screen: a long floor, one raised platform, a door
// that leads to the far end and a portal that links the floor with the
// platform.
func DemoLevel() Level {
	return Level{
		Spawn: world.Vec2{X: 0, Y: 0},
		KillY: -20,
		Grounds: []world.Body{
			{Name: "Ground_01", Position: world.Vec2{X: 10, Y: -1}, HalfSize: world.Vec2{X: 40, Y: 0.5}},
			{Name: "Platform", Tag: world.TagGround, Position: world.Vec2{X: 8, Y: 2.5}, HalfSize: world.Vec2{X: 2, Y: 0.25}},
		},
		Doors: []world.Body{
			{
				Name:     "Door_West",
				Tag:      world.TagDoor,
				Position: world.Vec2{X: -6, Y: 0.5},
				HalfSize: world.Vec2{X: 0.5, Y: 1},
				Teleport: &world.Teleport{Target: vec(40, 0)},
			},
		},
		Portals: []world.Body{
			{
				Name:     "Portal_01",
				Tag:      world.TagPortal,
				Position: world.Vec2{X: 30, Y: 0.5},
				HalfSize: world.Vec2{X: 0.5, Y: 1},
				Teleport: &world.Teleport{Up: vec(8, 3.25), Down: vec(-3, 0)},
			},
		},
		ItemRow:   world.Vec2{X: 3, Y: 0},
		ItemGap:   1.2,
		NPCRow:    world.Vec2{X: 12, Y: 0},
		NPCGap:    4,
		BonusItem: vec(-3, 0),
	}
}

func (l Level) itemPosition(i int) world.Vec2 {
	return l.ItemRow.Add(world.Vec2{X: float64(i) * l.ItemGap})
}

func (l Level) npcPosition(i int) world.Vec2 {
	return l.NPCRow.Add(world.Vec2{X: float64(i) * l.NPCGap})
}

// build spawns the static bodies.
func (l Level) build(s *world.Space) error {
	for _, group := range [][]world.Body{l.Grounds, l.Doors, l.Portals} {
		for _, b := range group {
			spawned := s.Spawn(b)
			if spawned.Category == world.CategoryUnknown {
				return fmt.Errorf("level body %q has no category", b.Name)
			}
		}
	}
	return nil
}
