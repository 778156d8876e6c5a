package world

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/jwebster45206/platformer/pkg/item"
)

var ErrBodyNotFound = errors.New("body not found")

// Query is the overlap service consumed by the ground sensor and the
// interaction scanner.
type Query interface {
	// OverlapCircle returns every body intersecting the circle, in a stable
	// order. An empty world returns an empty slice.
	OverlapCircle(center Vec2, radius float64) []Body
}

// Space is an in-memory world. Bodies are kept in spawn order so every
// query iterates deterministically.
type Space struct {
	bodies  []Body
	nextSeq uint64
	logger  *slog.Logger
}

var _ Query = (*Space)(nil)

// NewSpace returns an empty world.
func NewSpace(logger *slog.Logger) *Space {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Space{logger: logger}
}

// Spawn adds a body and returns it with ID, sequence and category filled in.
// A body spawned without a category is classified from its name and tag.
func (s *Space) Spawn(b Body) Body {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Category == CategoryUnknown {
		b.Category = ClassifyLegacy(b.Name, b.Tag)
	}
	s.nextSeq++
	b.Seq = s.nextSeq
	b = b.clone()
	s.bodies = append(s.bodies, b)

	s.logger.Debug("Body spawned",
		"id", b.ID,
		"name", b.Name,
		"category", b.Category.String())
	return b.clone()
}

// SpawnItem places a clone of it in the world as a pickup.
func (s *Space) SpawnItem(it item.Item, pos Vec2) (Body, error) {
	if err := it.Validate(); err != nil {
		return Body{}, fmt.Errorf("failed to spawn item: %w", err)
	}
	clone := it.Clone()
	return s.Spawn(Body{
		Name:     "Item_" + it.Name,
		Tag:      TagItem,
		Category: CategoryItem,
		Position: pos,
		HalfSize: Vec2{X: 0.25, Y: 0.25},
		Item:     &clone,
	}), nil
}

// Destroy removes the body. It reports false when the ID is unknown.
func (s *Space) Destroy(id uuid.UUID) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.logger.Debug("Body destroyed", "id", id, "name", s.bodies[i].Name)
	s.bodies = slices.Delete(s.bodies, i, i+1)
	return true
}

// Get returns a copy of the body.
func (s *Space) Get(id uuid.UUID) (Body, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Body{}, fmt.Errorf("%w: %s", ErrBodyNotFound, id)
	}
	return s.bodies[i].clone(), nil
}

// Move relocates a body.
func (s *Space) Move(id uuid.UUID, pos Vec2) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBodyNotFound, id)
	}
	s.bodies[i].Position = pos
	return nil
}

// OverlapCircle implements Query.
func (s *Space) OverlapCircle(center Vec2, radius float64) []Body {
	hits := make([]Body, 0, 4)
	if radius < 0 {
		return hits
	}
	for _, b := range s.bodies {
		if b.OverlapsCircle(center, radius) {
			hits = append(hits, b.clone())
		}
	}
	return hits
}

// Bodies returns copies of every body in spawn order.
func (s *Space) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.clone()
	}
	return out
}

// ByCategory returns copies of every body of category c in spawn order.
func (s *Space) ByCategory(c Category) []Body {
	var out []Body
	for _, b := range s.bodies {
		if b.Category == c {
			out = append(out, b.clone())
		}
	}
	return out
}

func (s *Space) Len() int {
	return len(s.bodies)
}

func (s *Space) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(s.bodies, func(b Body) bool { return b.ID == id })
}
