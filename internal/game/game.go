// Package game is the composition root: it builds the world, the player
// and the NPCs from sheet data and advances them one tick at a time.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jwebster45206/platformer/internal/config"
	"github.com/jwebster45206/platformer/pkg/dialogue"
	"github.com/jwebster45206/platformer/pkg/interaction"
	"github.com/jwebster45206/platformer/pkg/inventory"
	"github.com/jwebster45206/platformer/pkg/item"
	"github.com/jwebster45206/platformer/pkg/motion"
	"github.com/jwebster45206/platformer/pkg/npc"
	"github.com/jwebster45206/platformer/pkg/player"
	"github.com/jwebster45206/platformer/pkg/sheet"
	"github.com/jwebster45206/platformer/pkg/world"
)

var ErrNoData = errors.New("game needs sheet data")

// Deps are the collaborators a game is built with. Only Data is required.
type Deps struct {
	Data  *sheet.Data
	Level *Level
	Rand  *rand.Rand

	Animation         motion.AnimationSink
	InventoryListener inventory.Listener
	DialogueListener  dialogue.Listener

	Logger *slog.Logger
}

// Game owns every gameplay component. It is single-threaded: Tick, Reload
// and Snapshot must not be called concurrently.
type Game struct {
	cfg    *config.Config
	level  Level
	rng    *rand.Rand
	logger *slog.Logger

	space    *world.Space
	sensor   *motion.GroundSensor
	catalog  *item.Catalog
	player   *player.Player
	scanner  *interaction.Scanner
	dialogue *dialogue.Queue

	npcs     map[string]*npc.Controller
	npcOrder []string
	npcBody  map[string]world.Body

	data    *sheet.Data
	line    *dialogue.Line
	tick    uint64
	elapsed time.Duration
	log     []string
}

// New builds a game from cfg and deps and opens the configured start scene.
// A start scene with no lines is logged and skipped.
func New(cfg *config.Config, deps Deps) (*Game, error) {
	if deps.Data == nil || deps.Data.Script == nil {
		return nil, ErrNoData
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	level := DemoLevel()
	if deps.Level != nil {
		level = *deps.Level
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	g := &Game{
		cfg:     cfg,
		level:   level,
		rng:     rng,
		logger:  logger,
		space:   world.NewSpace(logger),
		npcs:    make(map[string]*npc.Controller),
		npcBody: make(map[string]world.Body),
	}
	g.sensor = motion.NewGroundSensor(g.space)

	if err := level.build(g.space); err != nil {
		return nil, err
	}

	catalog, err := item.NewCatalog(deps.Data.Items, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build item catalog: %w", err)
	}
	g.catalog = catalog

	pcfg := player.DefaultConfig()
	pcfg.Motion.MoveSpeed = cfg.MoveSpeed
	pcfg.Motion.JumpForce = cfg.JumpForce
	pcfg.Motion.GroundCheckRadius = cfg.GroundCheckRadius
	pcfg.InventorySize = cfg.InventorySize
	pcfg.MaxHP = cfg.PlayerMaxHP
	p, err := player.New("player", level.Spawn, pcfg, g.sensor, deps.Animation, logger)
	if err != nil {
		return nil, err
	}
	g.player = p
	if deps.InventoryListener != nil {
		p.Inventory.Subscribe(deps.InventoryListener)
	}

	g.dialogue = dialogue.NewQueue(deps.Data.Script, logger)
	if deps.DialogueListener != nil {
		g.dialogue.SetListener(deps.DialogueListener)
	}

	g.scanner = interaction.NewScanner(g.space, g.lookupNPC, p.Inventory, logger)

	g.data = deps.Data
	g.spawnItems()
	for _, def := range deps.Data.NPCs {
		g.addNPC(def, g.level.npcPosition(len(g.npcOrder)))
	}

	if err := g.startScene(cfg.StartScene); err != nil {
		logger.Warn("Start scene not opened", "scene", cfg.StartScene, "error", err)
	}

	logger.Info("Game ready",
		"bodies", g.space.Len(),
		"items", g.catalog.Len(),
		"npcs", len(g.npcOrder),
		"sheet", deps.Data.Summary())
	return g, nil
}

func (g *Game) lookupNPC(key string) (interaction.DialogueStarter, bool) {
	c, ok := g.npcs[key]
	if !ok {
		return nil, false
	}
	return c, true
}

// spawnItem places a fresh copy of the named catalog item.
func (g *Game) spawnItem(name string, pos world.Vec2) (world.Body, error) {
	it, err := g.catalog.Get(name)
	if err != nil {
		return world.Body{}, err
	}
	return g.space.SpawnItem(it, pos)
}

// spawnRandomItem places a uniformly chosen catalog item.
func (g *Game) spawnRandomItem(pos world.Vec2) (world.Body, error) {
	it, err := g.catalog.Random(g.rng)
	if err != nil {
		return world.Body{}, err
	}
	return g.space.SpawnItem(it, pos)
}

func (g *Game) spawnItems() {
	for i, name := range g.catalog.Names() {
		if _, err := g.spawnItem(name, g.level.itemPosition(i)); err != nil {
			g.logger.Warn("Item not spawned", "item", name, "error", err)
		}
	}
	if g.level.BonusItem != nil && g.catalog.Len() > 0 {
		if b, err := g.spawnRandomItem(*g.level.BonusItem); err != nil {
			g.logger.Warn("Bonus item not spawned", "error", err)
		} else {
			g.logger.Debug("Bonus item spawned", "item", b.Item.Name)
		}
	}
}

func (g *Game) newNPCController(def npc.Definition, pos world.Vec2) *npc.Controller {
	return npc.NewController(def, pos, npc.BarksFromScript(g.data.Script, def.Key), npc.Options{
		InteractionDistance: g.cfg.InteractRadius,
		Rand:                g.rng,
		OnTalk:              g.onTalk,
	}, g.logger)
}

func (g *Game) addNPC(def npc.Definition, pos world.Vec2) {
	g.npcs[def.Key] = g.newNPCController(def, pos)
	g.npcOrder = append(g.npcOrder, def.Key)
	g.npcBody[def.Key] = g.space.Spawn(world.Body{
		Name:     "NPC_" + def.Key,
		Tag:      world.TagNPC,
		Category: world.CategoryNPC,
		Position: pos,
		HalfSize: world.Vec2{X: 0.5, Y: 0.5},
		Key:      def.Key,
	})
}

func (g *Game) removeNPC(key string) {
	if b, ok := g.npcBody[key]; ok {
		g.space.Destroy(b.ID)
	}
	delete(g.npcs, key)
	delete(g.npcBody, key)
	for i, k := range g.npcOrder {
		if k == key {
			g.npcOrder = append(g.npcOrder[:i], g.npcOrder[i+1:]...)
			break
		}
	}
}

// onTalk opens the NPC's scene, if it has one.
func (g *Game) onTalk(def npc.Definition) {
	g.notef("Talking to %s", def.Name())
	if !def.HasScene {
		return
	}
	if err := g.startScene(def.Scene); err != nil {
		g.logger.Warn("NPC scene not opened", "npc", def.Key, "scene", def.Scene, "error", err)
	}
}

// startScene opens a session and shows its first line.
func (g *Game) startScene(scene int) error {
	if err := g.dialogue.Start(scene); err != nil {
		return err
	}
	g.advance()
	return nil
}

func (g *Game) advance() {
	step, err := g.dialogue.Advance()
	if err != nil {
		if !errors.Is(err, dialogue.ErrNotActive) {
			g.logger.Warn("Dialogue advance failed", "error", err)
		}
		return
	}
	g.line = step.Line
	if step.Ended {
		g.line = nil
	}
}

// Tick advances the game by dt. The order within a tick is fixed: motion,
// physics, interaction, doors and portals, dialogue, inventory commands,
// then NPC timers.
func (g *Game) Tick(in Input, dt time.Duration) Frame {
	g.tick++
	g.elapsed += dt
	g.log = nil
	secs := dt.Seconds()
	p := g.player

	p.Body.Velocity = p.Motion.Tick(motion.Input{Horizontal: in.HorizontalAxis(), Jump: in.Jump}, p.Body.Position, p.Body.Velocity)
	for _, contact := range world.Step(&p.Body, secs, world.DefaultGravity, g.space) {
		p.Motion.OnCollisionEnter(contact)
	}
	if p.Body.Position.Y < g.level.KillY {
		g.logger.Info("Player fell out of the level", "y", p.Body.Position.Y)
		p.TeleportTo(g.level.Spawn)
	}

	if in.Interact {
		g.interact()
	}
	g.doorsAndPortals(in)
	g.dialogueInput(in)

	if in.UseSlot != nil {
		g.useSlot(*in.UseSlot)
	}
	if in.DropSlot != nil {
		g.dropSlot(*in.DropSlot)
	}

	for _, key := range g.npcOrder {
		c := g.npcs[key]
		c.FacePlayer(p.Body.Position)
		c.Update(dt)
	}

	return g.Snapshot()
}

func (g *Game) interact() {
	for _, out := range g.scanner.Interact(g.player.Body.Position, g.cfg.InteractRadius) {
		switch out.Action {
		case interaction.ActionPickedUp:
			g.notef("Picked up %s", out.Body.Item.Name)
		case interaction.ActionPickupFailed:
			g.notef("Could not pick up %s: %v", out.Body.Item.Name, out.Err)
		case interaction.ActionUnknownNPC:
			g.notef("%s has nothing to say", out.Body.Name)
		}
	}
}

// doorsAndPortals teleports the player when it overlaps a door on the
// interact edge, or a portal on the up or down edge. The first match wins.
func (g *Game) doorsAndPortals(in Input) {
	if !in.Interact && !in.Up && !in.Down {
		return
	}
	p := g.player
	for _, b := range g.space.OverlapCircle(p.Body.Position, p.Body.HalfSize.X) {
		if b.Teleport == nil {
			continue
		}
		var target *world.Vec2
		switch {
		case b.Category == world.CategoryDoor && in.Interact:
			target = b.Teleport.Target
		case b.Category == world.CategoryPortal && in.Up:
			target = b.Teleport.Up
		case b.Category == world.CategoryPortal && in.Down:
			target = b.Teleport.Down
		}
		if target == nil {
			continue
		}
		g.logger.Debug("Teleporting player", "via", b.Name, "to", *target)
		p.TeleportTo(*target)
		g.notef("Went through %s", b.Name)
		return
	}
}

func (g *Game) dialogueInput(in Input) {
	if in.Cancel {
		g.dialogue.Cancel()
		g.line = nil
	}
	if in.Choose != nil {
		if err := g.dialogue.Choose(*in.Choose); err != nil {
			g.logger.Debug("Choice rejected", "choice", *in.Choose, "error", err)
		} else {
			g.advance()
		}
	}
	if in.Advance {
		g.advance()
	}
}

func (g *Game) useSlot(slot int) {
	res, err := g.player.UseItem(slot)
	if err != nil {
		g.notef("Cannot use slot %d: %v", slot, err)
		return
	}
	g.notef("Used %s (%s)", res.Item.Name, res.Effect)
}

func (g *Game) dropSlot(slot int) {
	res, err := g.player.DropItem(slot, g.space)
	if err != nil {
		g.notef("Cannot drop slot %d: %v", slot, err)
		return
	}
	if !res.Placed {
		g.notef("Dropped %s, but it was lost", res.Item.Name)
		return
	}
	g.notef("Dropped %s", res.Item.Name)
}

func (g *Game) notef(format string, args ...any) {
	g.log = append(g.log, fmt.Sprintf(format, args...))
}

// Reload swaps in new sheet data. The item catalog, the script and NPC
// barks are replaced. NPCs whose row changed are rebuilt in place, NPCs
// that disappeared are removed, and new ones are spawned. Items already in
// the world or in the inventory are kept. Any open dialogue session is
// cancelled.
func (g *Game) Reload(data *sheet.Data) error {
	if data == nil || data.Script == nil {
		return ErrNoData
	}
	catalog, err := item.NewCatalog(data.Items, g.logger)
	if err != nil {
		return fmt.Errorf("failed to build item catalog: %w", err)
	}

	g.catalog = catalog
	g.data = data
	g.dialogue.SetScript(data.Script)
	g.line = nil

	keep := make(map[string]bool, len(data.NPCs))
	for _, def := range data.NPCs {
		keep[def.Key] = true
		c, ok := g.npcs[def.Key]
		switch {
		case !ok:
			g.addNPC(def, g.level.npcPosition(len(g.npcOrder)))
		case c.Definition() == def:
			c.SetBarks(npc.BarksFromScript(data.Script, def.Key))
		default:
			g.npcs[def.Key] = g.newNPCController(def, c.Position())
		}
	}
	for _, key := range append([]string(nil), g.npcOrder...) {
		if !keep[key] {
			g.removeNPC(key)
		}
	}

	g.logger.Info("Sheet data reloaded", "summary", data.Summary())
	return nil
}

// Player exposes the player for renderers and tests.
func (g *Game) Player() *player.Player {
	return g.player
}

// Space exposes the world.
func (g *Game) Space() *world.Space {
	return g.space
}

// Dialogue exposes the dialogue queue.
func (g *Game) Dialogue() *dialogue.Queue {
	return g.dialogue
}

// NPC returns the controller for key.
func (g *Game) NPC(key string) (*npc.Controller, bool) {
	c, ok := g.npcs[key]
	return c, ok
}
