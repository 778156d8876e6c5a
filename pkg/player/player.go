// Package player composes the player entity: its physics body, motion
// controller, inventory and vitals.
package player

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/platformer/pkg/inventory"
	"github.com/jwebster45206/platformer/pkg/item"
	"github.com/jwebster45206/platformer/pkg/motion"
	"github.com/jwebster45206/platformer/pkg/world"
)

const (
	DefaultMaxHP        = 10
	DefaultAC           = 10
	DefaultDropDistance = 1.5
)

type Config struct {
	Motion        motion.Config
	InventorySize int
	MaxHP         int
	AC            int
	HalfSize      world.Vec2
	DropDistance  float64
}

func DefaultConfig() Config {
	return Config{
		Motion:        motion.DefaultConfig(),
		InventorySize: inventory.DefaultCapacity,
		MaxHP:         DefaultMaxHP,
		AC:            DefaultAC,
		HalfSize:      world.Vec2{X: 0.5, Y: 0.5},
		DropDistance:  DefaultDropDistance,
	}
}

// Player owns its inventory for its whole lifetime.
type Player struct {
	ID        string
	Body      world.Kinematic
	Motion    *motion.Controller
	Inventory *inventory.Inventory
	Vitals    *d20.Actor

	dropDistance float64
	logger       *slog.Logger
}

// New builds a player at spawn. The sensor is the world's ground sensor.
func New(id string, spawn world.Vec2, cfg Config, sensor *motion.GroundSensor, sink motion.AnimationSink, logger *slog.Logger) (*Player, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxHP <= 0 {
		cfg.MaxHP = DefaultMaxHP
	}
	if cfg.AC <= 0 {
		cfg.AC = DefaultAC
	}
	if cfg.HalfSize == (world.Vec2{}) {
		cfg.HalfSize = world.Vec2{X: 0.5, Y: 0.5}
	}
	if cfg.DropDistance <= 0 {
		cfg.DropDistance = DefaultDropDistance
	}

	vitals, err := d20.NewActor(id).
		WithHP(cfg.MaxHP).
		WithAC(cfg.AC).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build player vitals: %w", err)
	}

	logger = logger.With("player", id)
	return &Player{
		ID:           id,
		Body:         world.Kinematic{Position: spawn, HalfSize: cfg.HalfSize},
		Motion:       motion.NewController(cfg.Motion, sensor, sink, logger),
		Inventory:    inventory.New(cfg.InventorySize, logger),
		Vitals:       vitals,
		dropDistance: cfg.DropDistance,
		logger:       logger,
	}, nil
}

// UseItem uses the item in slot. A consumable with Heal restores HP up to
// the maximum. The new HP is settled before the slot is touched, so a
// failed use changes neither.
func (p *Player) UseItem(slot int) (inventory.UseResult, error) {
	s, err := p.Inventory.Slot(slot)
	if err != nil {
		return inventory.UseResult{}, err
	}
	before := p.Vitals.HP()
	after := before
	if !s.Empty() && s.Item.Type == item.Consumable && s.Item.Heal > 0 {
		after = min(before+s.Item.Heal, p.Vitals.MaxHP())
	}
	if after < 0 || after > p.Vitals.MaxHP() {
		return inventory.UseResult{}, fmt.Errorf("failed to heal: hp %d outside 0..%d", after, p.Vitals.MaxHP())
	}

	res, err := p.Inventory.Use(slot)
	if err != nil {
		return res, err
	}
	if after != before {
		if err := p.Vitals.SetHP(after); err != nil {
			return res, fmt.Errorf("failed to heal: %w", err)
		}
		p.logger.Info("Player healed", "item", res.Item.Name, "from", before, "to", after)
	}
	return res, nil
}

// Damage lowers HP, never below zero.
func (p *Player) Damage(amount int) error {
	if amount <= 0 {
		return nil
	}
	return p.Vitals.SetHP(max(p.Vitals.HP()-amount, 0))
}

// DropItem drops slot in front of the player into space.
func (p *Player) DropItem(slot int, space *world.Space) (inventory.DropResult, error) {
	pos := p.Body.Position.Add(world.Vec2{X: p.Motion.Facing().Sign() * p.dropDistance})
	return p.Inventory.Drop(slot, worldPlacer{space: space, at: pos})
}

// TeleportTo moves the player immediately and stops it.
func (p *Player) TeleportTo(pos world.Vec2) {
	p.Motion.TeleportTo(&p.Body, pos)
}

// HP returns current and maximum hit points.
func (p *Player) HP() (int, int) {
	return p.Vitals.HP(), p.Vitals.MaxHP()
}

type worldPlacer struct {
	space *world.Space
	at    world.Vec2
}

func (w worldPlacer) PlaceItem(it item.Item) error {
	if w.space == nil {
		return fmt.Errorf("no world to place %q in", it.Name)
	}
	_, err := w.space.SpawnItem(it, w.at)
	return err
}
