// Package events publishes gameplay notifications to Redis Pub/Sub so that
// out-of-process viewers can follow a running simulation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/platformer/pkg/dialogue"
	"github.com/jwebster45206/platformer/pkg/inventory"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeInventoryChanged EventType = "inventory.changed"
	EventTypeDialogue         EventType = "dialogue"
	EventTypeSheetReloaded    EventType = "sheet.reloaded"
)

// DefaultBuffer is the number of events held while the publisher catches up.
const DefaultBuffer = 64

// Event is the JSON envelope sent on the game channel.
type Event struct {
	Type   EventType      `json:"type"`
	GameID string         `json:"game_id"`
	Data   map[string]any `json:"data,omitempty"`
}

// Channel returns the Pub/Sub channel for a game.
func Channel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

// Broadcaster queues events from the simulation goroutine and publishes
// them from Run. Listener callbacks never block: when the buffer is full
// the event is dropped and logged.
type Broadcaster struct {
	redisClient *redis.Client
	gameID      uuid.UUID
	events      chan Event
	logger      *slog.Logger
}

var (
	_ inventory.Listener = (*Broadcaster)(nil)
	_ dialogue.Listener  = (*Broadcaster)(nil)
)

func NewBroadcaster(redisClient *redis.Client, gameID uuid.UUID, buffer int, logger *slog.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broadcaster{
		redisClient: redisClient,
		gameID:      gameID,
		events:      make(chan Event, buffer),
		logger:      logger,
	}
}

// InventoryChanged publishes the occupied slots.
func (b *Broadcaster) InventoryChanged(slots []inventory.Slot) {
	items := make([]map[string]any, 0, len(slots))
	for i, s := range slots {
		if s.Empty() {
			continue
		}
		items = append(items, map[string]any{
			"slot":     i,
			"name":     s.Item.Name,
			"type":     s.Item.Type.String(),
			"quantity": s.Item.Quantity,
			"equipped": s.Equipped,
		})
	}
	b.enqueue(EventTypeInventoryChanged, map[string]any{
		"capacity": len(slots),
		"items":    items,
	})
}

// DialogueEvent publishes a dialogue queue transition.
func (b *Broadcaster) DialogueEvent(e dialogue.Event) {
	data := map[string]any{
		"kind":    string(e.Kind),
		"session": e.Session.String(),
		"scene":   e.Scene,
	}
	if e.Line != nil {
		data["speaker"] = e.Line.Speaker
		data["text"] = e.Line.Text
	}
	if e.Kind == dialogue.EventChoice {
		data["prompt"] = e.Prompt
		labels := make([]string, len(e.Choices))
		for i, c := range e.Choices {
			labels[i] = c.Label
		}
		data["choices"] = labels
	}
	b.enqueue(EventTypeDialogue, data)
}

// SheetReloaded announces that new sheet data is live.
func (b *Broadcaster) SheetReloaded(summary string) {
	b.enqueue(EventTypeSheetReloaded, map[string]any{"summary": summary})
}

func (b *Broadcaster) enqueue(t EventType, data map[string]any) {
	event := Event{Type: t, GameID: b.gameID.String(), Data: data}
	select {
	case b.events <- event:
	default:
		b.logger.Warn("Event buffer full, dropping event", "event_type", t)
	}
}

// Run publishes queued events until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.events:
			if err := b.publish(ctx, event); err != nil && ctx.Err() == nil {
				b.logger.Warn("Event not delivered", "error", err)
			}
		}
	}
}

func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	channel := Channel(b.gameID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)
	return nil
}
