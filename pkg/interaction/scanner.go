// Package interaction resolves the interact key: it scans around the player
// and dispatches each NPC or item found.
package interaction

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/platformer/pkg/item"
	"github.com/jwebster45206/platformer/pkg/world"
)

// DefaultRadius is the scan radius used when none is configured.
const DefaultRadius = 1.5

var ErrUnknownNPC = errors.New("no dialogue entry point for npc")

// DialogueStarter is an NPC's dialogue entry point. StartDialogue must be
// idempotent while a conversation is running and report whether it began a
// new one.
type DialogueStarter interface {
	StartDialogue() bool
}

// NPCLookup resolves an NPC body's key to its entry point.
type NPCLookup func(key string) (DialogueStarter, bool)

// ItemAdder receives picked up items.
type ItemAdder interface {
	Add(it item.Item) error
}

// Space is the part of the world the scanner reads and mutates.
type Space interface {
	world.Query
	Destroy(id uuid.UUID) bool
}

// Action is what happened to one scanned body.
type Action string

const (
	ActionIgnored         Action = "ignored"
	ActionDialogueStarted Action = "dialogue_started"
	ActionDialogueBusy    Action = "dialogue_busy"
	ActionUnknownNPC      Action = "unknown_npc"
	ActionPickedUp        Action = "picked_up"
	ActionPickupFailed    Action = "pickup_failed"
)

// Outcome reports the handling of one body.
type Outcome struct {
	Body   world.Body `json:"body"`
	Action Action     `json:"action"`
	Err    error      `json:"-"`
}

// Scanner dispatches interactions. It is invoked on the interact edge only.
type Scanner struct {
	space     Space
	npcs      NPCLookup
	inventory ItemAdder
	logger    *slog.Logger
}

func NewScanner(space Space, npcs NPCLookup, inventory ItemAdder, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		space:     space,
		npcs:      npcs,
		inventory: inventory,
		logger:    logger,
	}
}

// Scan returns the interactable bodies around origin in world order.
func (s *Scanner) Scan(origin world.Vec2, radius float64) []world.Body {
	var found []world.Body
	for _, b := range s.space.OverlapCircle(origin, radius) {
		if b.Category == world.CategoryNPC || b.Category == world.CategoryItem {
			found = append(found, b)
		}
	}
	return found
}

// Interact scans around origin and handles every NPC and item found, in
// world order. A failed pickup leaves both the world and the inventory as
// they were.
func (s *Scanner) Interact(origin world.Vec2, radius float64) []Outcome {
	bodies := s.Scan(origin, radius)
	outcomes := make([]Outcome, 0, len(bodies))
	for _, b := range bodies {
		var out Outcome
		switch b.Category {
		case world.CategoryNPC:
			out = s.talk(b)
		case world.CategoryItem:
			out = s.pickUp(b)
		default:
			out = Outcome{Body: b, Action: ActionIgnored}
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (s *Scanner) talk(b world.Body) Outcome {
	var starter DialogueStarter
	ok := false
	if s.npcs != nil {
		starter, ok = s.npcs(b.Key)
	}
	if !ok || starter == nil {
		s.logger.Warn("NPC has no dialogue entry point", "npc", b.Key, "body", b.Name)
		return Outcome{Body: b, Action: ActionUnknownNPC, Err: fmt.Errorf("%w: %q", ErrUnknownNPC, b.Key)}
	}
	if !starter.StartDialogue() {
		return Outcome{Body: b, Action: ActionDialogueBusy}
	}
	s.logger.Debug("Dialogue started", "npc", b.Key)
	return Outcome{Body: b, Action: ActionDialogueStarted}
}

func (s *Scanner) pickUp(b world.Body) Outcome {
	if b.Item == nil {
		return Outcome{Body: b, Action: ActionIgnored}
	}
	if err := s.inventory.Add(b.Item.Clone()); err != nil {
		s.logger.Info("Could not pick up item", "item", b.Item.Name, "error", err)
		return Outcome{Body: b, Action: ActionPickupFailed, Err: err}
	}
	if !s.space.Destroy(b.ID) {
		s.logger.Warn("Picked up item was already gone from world", "item", b.Item.Name, "id", b.ID)
	}
	s.logger.Debug("Picked up item", "item", b.Item.Name, "quantity", b.Item.Quantity)
	return Outcome{Body: b, Action: ActionPickedUp}
}
