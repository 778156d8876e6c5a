// Package npc drives non-player characters: short bark conversations,
// their speech bubbles and turning toward the player.
package npc

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jwebster45206/platformer/pkg/dialogue"
	"github.com/jwebster45206/platformer/pkg/world"
)

const (
	DefaultTalkDuration        = 3 * time.Second
	DefaultBubbleCooldown      = 5 * time.Second
	DefaultInteractionDistance = 2.0

	// SignalTalking is the animation flag held while an NPC talks.
	SignalTalking = "talking"
)

// Definition is one row of NPC data.
type Definition struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Scene       int    `json:"scene,omitempty"`
	HasScene    bool   `json:"has_scene,omitempty"` // Scene starts a full dialogue session
}

// Name returns DisplayName, or a name derived from Key when it is empty.
func (d Definition) Name() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return dialogue.DisplayName(d.Key)
}

// Sink receives the talking flag.
type Sink interface {
	SetBool(name string, value bool)
}

type nopSink struct{}

func (nopSink) SetBool(string, bool) {}

// Options tunes a Controller. Zero values take the defaults.
type Options struct {
	TalkDuration        time.Duration
	BubbleCooldown      time.Duration
	InteractionDistance float64
	Rand                *rand.Rand
	Sink                Sink
	// OnTalk runs each time a conversation begins.
	OnTalk func(Definition)
}

// Controller is one NPC. Time only moves through Update.
type Controller struct {
	def    Definition
	barks  []string
	opts   Options
	bubble *Bubble
	logger *slog.Logger

	position world.Vec2
	facing   world.Facing

	talking  bool
	talkLeft time.Duration

	clock     time.Duration
	lastShown time.Duration
	shown     bool
}

func NewController(def Definition, position world.Vec2, barks []string, opts Options, logger *slog.Logger) *Controller {
	if opts.TalkDuration <= 0 {
		opts.TalkDuration = DefaultTalkDuration
	}
	if opts.BubbleCooldown <= 0 {
		opts.BubbleCooldown = DefaultBubbleCooldown
	}
	if opts.InteractionDistance <= 0 {
		opts.InteractionDistance = DefaultInteractionDistance
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		def:      def,
		barks:    append([]string(nil), barks...),
		opts:     opts,
		bubble:   NewBubble(),
		logger:   logger.With("npc", def.Key),
		position: position,
		facing:   world.FacingLeft,
	}
}

// BarksFromScript collects the lines an NPC can say on its own.
func BarksFromScript(s *dialogue.Script, key string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, l := range s.SpeakerLines(key) {
		out = append(out, l.Text)
	}
	return out
}

// SetBarks replaces the bark lines, e.g. after a data reload.
func (c *Controller) SetBarks(barks []string) {
	c.barks = append([]string(nil), barks...)
}

// StartDialogue begins a conversation. It does nothing and returns false
// while one is already running.
func (c *Controller) StartDialogue() bool {
	if c.talking {
		return false
	}
	c.talking = true
	c.talkLeft = c.opts.TalkDuration
	c.opts.Sink.SetBool(SignalTalking, true)

	c.showBubble(c.pickBark())
	c.logger.Debug("NPC started talking")

	if c.opts.OnTalk != nil {
		c.opts.OnTalk(c.def)
	}
	return true
}

// EndDialogue stops the conversation early.
func (c *Controller) EndDialogue() {
	if !c.talking {
		return
	}
	c.talking = false
	c.talkLeft = 0
	c.opts.Sink.SetBool(SignalTalking, false)
	c.logger.Debug("NPC stopped talking")
}

func (c *Controller) pickBark() string {
	if len(c.barks) == 0 {
		return fmt.Sprintf("Hello! I am %s.", c.def.Name())
	}
	return c.barks[c.opts.Rand.IntN(len(c.barks))]
}

// showBubble respects the cooldown between bubbles. The first bubble is
// always shown.
func (c *Controller) showBubble(text string) {
	if c.shown && c.clock-c.lastShown < c.opts.BubbleCooldown {
		c.logger.Debug("Speech bubble on cooldown")
		return
	}
	c.bubble.Show(text)
	c.lastShown = c.clock
	c.shown = true
}

// Update advances the talk timer and the bubble by dt.
func (c *Controller) Update(dt time.Duration) {
	if dt <= 0 {
		return
	}
	c.clock += dt
	c.bubble.Update(dt)
	if c.talking {
		c.talkLeft -= dt
		if c.talkLeft <= 0 {
			c.EndDialogue()
		}
	}
}

// FacePlayer turns toward the player when within interaction distance.
func (c *Controller) FacePlayer(player world.Vec2) {
	if c.position.Dist(player) > c.opts.InteractionDistance {
		return
	}
	switch dx := player.X - c.position.X; {
	case dx > 0:
		c.facing = world.FacingRight
	case dx < 0:
		c.facing = world.FacingLeft
	}
}

func (c *Controller) Definition() Definition {
	return c.def
}

func (c *Controller) Talking() bool {
	return c.talking
}

func (c *Controller) Bubble() *Bubble {
	return c.bubble
}

func (c *Controller) Facing() world.Facing {
	return c.facing
}

func (c *Controller) Position() world.Vec2 {
	return c.position
}
