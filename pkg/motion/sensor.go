package motion

import "github.com/jwebster45206/platformer/pkg/world"

// Filter narrows which bodies a sensor considers. A nil Filter accepts all.
type Filter func(world.Body) bool

// ExcludeID returns a Filter that skips the body with the given ID, so an
// actor never counts itself as support.
func ExcludeID(b world.Body) Filter {
	return func(other world.Body) bool {
		return other.ID != b.ID
	}
}

// GroundSensor derives support state from an overlap query. It holds no
// state of its own.
type GroundSensor struct {
	query world.Query
}

func NewGroundSensor(q world.Query) *GroundSensor {
	return &GroundSensor{query: q}
}

// IsGround reports whether a body provides support. Bodies that never went
// through Space.Spawn may carry no category; those are classified from their
// name and tag.
func IsGround(b world.Body) bool {
	if b.Category == world.CategoryUnknown {
		return world.ClassifyLegacy(b.Name, b.Tag) == world.CategoryGround
	}
	return b.Category == world.CategoryGround
}

// IsGrounded reports whether any ground body accepted by filter intersects
// the circle at position. A nil query or empty world is never grounded.
func (s *GroundSensor) IsGrounded(position world.Vec2, radius float64, filter Filter) bool {
	if s == nil || s.query == nil {
		return false
	}
	for _, b := range s.query.OverlapCircle(position, radius) {
		if filter != nil && !filter(b) {
			continue
		}
		if IsGround(b) {
			return true
		}
	}
	return false
}
