package game

import (
	"time"

	"github.com/jwebster45206/platformer/pkg/dialogue"
	"github.com/jwebster45206/platformer/pkg/inventory"
	"github.com/jwebster45206/platformer/pkg/world"
)

// Input is what the player did during one tick. Every flag is an edge:
// true only on the tick the button went down. A nil Horizontal leaves the
// held axis alone; nil slot and choice fields mean no command.
type Input struct {
	Horizontal *float64 `json:"horizontal,omitempty"`
	Jump       bool     `json:"jump,omitempty"`
	Interact   bool     `json:"interact,omitempty"`
	Up         bool     `json:"up,omitempty"`
	Down       bool     `json:"down,omitempty"`
	Advance    bool     `json:"advance,omitempty"`
	Cancel     bool     `json:"cancel,omitempty"`
	Choose     *int     `json:"choose,omitempty"`
	UseSlot    *int     `json:"use_slot,omitempty"`
	DropSlot   *int     `json:"drop_slot,omitempty"`
}

// Axis returns a horizontal axis value for Input.Horizontal.
func Axis(v float64) *float64 {
	return &v
}

// HorizontalAxis is the axis value, zero when unset.
func (in Input) HorizontalAxis() float64 {
	if in.Horizontal == nil {
		return 0
	}
	return *in.Horizontal
}

// Merge folds a later input into in. Edges accumulate; the axis and the
// commands take the later value when set.
func (in Input) Merge(later Input) Input {
	if later.Horizontal != nil {
		in.Horizontal = later.Horizontal
	}
	in.Jump = in.Jump || later.Jump
	in.Interact = in.Interact || later.Interact
	in.Up = in.Up || later.Up
	in.Down = in.Down || later.Down
	in.Advance = in.Advance || later.Advance
	in.Cancel = in.Cancel || later.Cancel
	if later.Choose != nil {
		in.Choose = later.Choose
	}
	if later.UseSlot != nil {
		in.UseSlot = later.UseSlot
	}
	if later.DropSlot != nil {
		in.DropSlot = later.DropSlot
	}
	return in
}

// Frame is a read-only snapshot for renderers. It shares no state with
// the game.
type Frame struct {
	Tick      uint64           `json:"tick"`
	Elapsed   time.Duration    `json:"elapsed"`
	Player    PlayerFrame      `json:"player"`
	Inventory []inventory.Slot `json:"inventory"`
	Dialogue  DialogueFrame    `json:"dialogue"`
	NPCs      []NPCFrame       `json:"npcs"`
	Bodies    []world.Body     `json:"bodies"`
	Log       []string         `json:"log,omitempty"`
	Recent    []LogEntry       `json:"recent,omitempty"`
}

// LogEntry is a log line tagged with the tick that produced it.
type LogEntry struct {
	Tick uint64 `json:"tick"`
	Text string `json:"text"`
}

type PlayerFrame struct {
	Position world.Vec2   `json:"position"`
	Velocity world.Vec2   `json:"velocity"`
	Facing   world.Facing `json:"facing"`
	Grounded bool         `json:"grounded"`
	HP       int          `json:"hp"`
	MaxHP    int          `json:"max_hp"`
}

type DialogueFrame struct {
	State   dialogue.State    `json:"state"`
	Scene   int               `json:"scene,omitempty"`
	Speaker string            `json:"speaker,omitempty"`
	Text    string            `json:"text,omitempty"`
	Prompt  string            `json:"prompt,omitempty"`
	Choices []dialogue.Choice `json:"choices,omitempty"`
}

// Open reports whether a session or a pending choice is on screen.
func (d DialogueFrame) Open() bool {
	return d.State == dialogue.StateActive || len(d.Choices) > 0
}

type NPCFrame struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	Position    world.Vec2   `json:"position"`
	Facing      world.Facing `json:"facing"`
	Talking     bool         `json:"talking"`
	Bubble      string       `json:"bubble,omitempty"`
	BubbleAlpha float64      `json:"bubble_alpha,omitempty"`
}

// Snapshot captures the current state without advancing time.
func (g *Game) Snapshot() Frame {
	p := g.player
	hp, maxHP := p.HP()
	f := Frame{
		Tick:    g.tick,
		Elapsed: g.elapsed,
		Player: PlayerFrame{
			Position: p.Body.Position,
			Velocity: p.Body.Velocity,
			Facing:   p.Motion.Facing(),
			Grounded: p.Motion.Grounded(),
			HP:       hp,
			MaxHP:    maxHP,
		},
		Inventory: p.Inventory.Slots(),
		Dialogue: DialogueFrame{
			State:   g.dialogue.State(),
			Prompt:  g.dialogue.Prompt(),
			Choices: g.dialogue.Pending(),
		},
		Bodies: g.space.Bodies(),
		Log:    append([]string(nil), g.log...),
	}
	if f.Dialogue.Open() {
		f.Dialogue.Scene = g.dialogue.Scene()
	}
	if g.line != nil && !g.line.IsChoice() {
		f.Dialogue.Speaker = dialogue.DisplayName(g.line.Speaker)
		f.Dialogue.Text = g.line.Text
	}

	for _, key := range g.npcOrder {
		c := g.npcs[key]
		nf := NPCFrame{
			Key:      key,
			Name:     c.Definition().Name(),
			Position: c.Position(),
			Facing:   c.Facing(),
			Talking:  c.Talking(),
		}
		if b := c.Bubble(); b.Visible() {
			nf.Bubble = b.Text()
			nf.BubbleAlpha = b.Alpha()
		}
		f.NPCs = append(f.NPCs, nf)
	}
	return f
}
