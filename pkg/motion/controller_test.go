package motion

import (
	"testing"

	"github.com/jwebster45206/platformer/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	bools    map[string]bool
	triggers []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{bools: make(map[string]bool)}
}

func (s *recordingSink) SetBool(name string, v bool) { s.bools[name] = v }
func (s *recordingSink) SetTrigger(name string)      { s.triggers = append(s.triggers, name) }

// standing returns a world with a floor whose top is at y=0.5 and the
// position of a unit box resting on it.
func standing() (*world.Space, world.Vec2) {
	s := world.NewSpace(nil)
	s.Spawn(world.Body{Name: "Ground_01", HalfSize: world.Vec2{X: 10, Y: 0.5}})
	return s, world.Vec2{Y: 1}
}

func TestGroundSensor(t *testing.T) {
	t.Run("empty world", func(t *testing.T) {
		sensor := NewGroundSensor(world.NewSpace(nil))
		assert.False(t, sensor.IsGrounded(world.Vec2{}, 1, nil))
	})

	t.Run("nil query", func(t *testing.T) {
		sensor := NewGroundSensor(nil)
		assert.False(t, sensor.IsGrounded(world.Vec2{}, 1, nil))
	})

	t.Run("ground body by name", func(t *testing.T) {
		s := world.NewSpace(nil)
		s.Spawn(world.Body{Name: "Ground_01", HalfSize: world.Vec2{X: 1, Y: 0.5}})
		sensor := NewGroundSensor(s)

		for i := 0; i < 3; i++ {
			assert.True(t, sensor.IsGrounded(world.Vec2{Y: 0.6}, 0.2, nil))
		}
	})

	t.Run("ground body by tag", func(t *testing.T) {
		s := world.NewSpace(nil)
		s.Spawn(world.Body{Name: "Floor", Tag: "Ground", HalfSize: world.Vec2{X: 1, Y: 0.5}})
		assert.True(t, NewGroundSensor(s).IsGrounded(world.Vec2{}, 0.1, nil))
	})

	t.Run("non ground body", func(t *testing.T) {
		s := world.NewSpace(nil)
		s.Spawn(world.Body{Name: "Crate", HalfSize: world.Vec2{X: 1, Y: 0.5}})
		assert.False(t, NewGroundSensor(s).IsGrounded(world.Vec2{}, 1, nil))
	})

	t.Run("filter excludes body", func(t *testing.T) {
		s := world.NewSpace(nil)
		g := s.Spawn(world.Body{Name: "Ground_self", HalfSize: world.Vec2{X: 1, Y: 1}})
		assert.False(t, NewGroundSensor(s).IsGrounded(world.Vec2{}, 0.1, ExcludeID(g)))
	})
}

// fixedQuery returns the same bodies for every overlap, without assigning
// categories the way Space.Spawn does.
type fixedQuery []world.Body

func (q fixedQuery) OverlapCircle(world.Vec2, float64) []world.Body { return q }

func TestGroundSensor_UncategorizedBodies(t *testing.T) {
	tests := []struct {
		name string
		body world.Body
		want bool
	}{
		{"ground name prefix", world.Body{Name: "Ground_01"}, true},
		{"ground tag", world.Body{Name: "Floor", Tag: "Ground"}, true},
		{"untagged crate", world.Body{Name: "Crate"}, false},
		{"npc tag", world.Body{Name: "Ground_keeper", Tag: "NPC", Category: world.CategoryNPC}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sensor := NewGroundSensor(fixedQuery{tt.body})
			assert.Equal(t, tt.want, sensor.IsGrounded(world.Vec2{}, 0.1, nil))
		})
	}
}

func TestCollisionConfirmation_UncategorizedGround(t *testing.T) {
	c := NewController(DefaultConfig(), NewGroundSensor(fixedQuery{}), nil, nil)

	c.OnCollisionEnter(world.Body{Name: "Ground_02"})
	require.True(t, c.Grounded())

	v := c.Tick(Input{Jump: true}, world.Vec2{Y: 10}, world.Vec2{})
	assert.Equal(t, DefaultJumpForce, v.Y)
}

func TestConfigDefaults(t *testing.T) {
	c := NewController(Config{}, nil, nil, nil)
	cfg := c.Config()
	assert.Equal(t, DefaultMoveSpeed, cfg.MoveSpeed)
	assert.Equal(t, DefaultJumpForce, cfg.JumpForce)
	assert.Equal(t, fallbackGroundCheckRadius, cfg.GroundCheckRadius, "zero radius is raised")

	c = NewController(Config{GroundCheckRadius: 0.05}, nil, nil, nil)
	assert.Equal(t, fallbackGroundCheckRadius, c.Config().GroundCheckRadius)

	c = NewController(DefaultConfig(), nil, nil, nil)
	assert.Equal(t, DefaultGroundCheckRadius, c.Config().GroundCheckRadius)
}

func TestTick_HorizontalAndFacing(t *testing.T) {
	s, pos := standing()
	sink := newRecordingSink()
	c := NewController(DefaultConfig(), NewGroundSensor(s), sink, nil)

	tests := []struct {
		name        string
		axis        float64
		wantVX      float64
		wantFacing  world.Facing
		wantWalking bool
	}{
		{"right", 1, 5, world.FacingRight, true},
		{"left half", -0.5, -2.5, world.FacingLeft, true},
		{"zero keeps facing", 0, 0, world.FacingLeft, false},
		{"inside deadzone", 0.05, 0.25, world.FacingRight, false},
		{"clamped", 3, 5, world.FacingRight, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := c.Tick(Input{Horizontal: tt.axis}, pos, world.Vec2{Y: -1.5})
			assert.InDelta(t, tt.wantVX, v.X, 1e-9)
			assert.Equal(t, -1.5, v.Y, "vertical velocity is left to physics")
			assert.Equal(t, tt.wantFacing, c.Facing())
			assert.Equal(t, tt.wantWalking, sink.bools[SignalWalking])
			assert.False(t, sink.bools[SignalJumping])
			assert.True(t, c.Grounded())
		})
	}
}

func TestTick_JumpWhenGrounded(t *testing.T) {
	s, pos := standing()
	sink := newRecordingSink()
	c := NewController(DefaultConfig(), NewGroundSensor(s), sink, nil)

	v := c.Tick(Input{Jump: true}, pos, world.Vec2{Y: -3})
	assert.Equal(t, DefaultJumpForce, v.Y, "residual vertical velocity is zeroed before the impulse")
	assert.False(t, c.Grounded(), "grounded clears on the jump tick")
	assert.True(t, sink.bools[SignalJumping])
	assert.Equal(t, []string{SignalJumpTrigger}, sink.triggers)
}

func TestTick_NoJumpInAir(t *testing.T) {
	s := world.NewSpace(nil)
	sink := newRecordingSink()
	c := NewController(DefaultConfig(), NewGroundSensor(s), sink, nil)

	v := c.Tick(Input{Jump: true}, world.Vec2{Y: 10}, world.Vec2{Y: -2})
	assert.Equal(t, -2.0, v.Y)
	assert.Empty(t, sink.triggers)
	assert.True(t, sink.bools[SignalJumping])
}

func TestRequestJump_ResolvedOnce(t *testing.T) {
	air := world.NewSpace(nil)
	c := NewController(DefaultConfig(), NewGroundSensor(air), nil, nil)

	// Requested while airborne: consumed without effect.
	c.RequestJump()
	v := c.Tick(Input{}, world.Vec2{Y: 10}, world.Vec2{})
	assert.Equal(t, 0.0, v.Y)

	// Landing next tick must not replay the stale request.
	s, pos := standing()
	c.sensor = NewGroundSensor(s)
	v = c.Tick(Input{}, pos, world.Vec2{})
	assert.Equal(t, 0.0, v.Y)

	c.RequestJump()
	v = c.Tick(Input{}, pos, world.Vec2{})
	assert.Equal(t, DefaultJumpForce, v.Y)
}

func TestCollisionConfirmation(t *testing.T) {
	air := world.NewSpace(nil)
	c := NewController(DefaultConfig(), NewGroundSensor(air), nil, nil)

	c.OnCollisionEnter(world.Body{Name: "Crate"})
	c.Tick(Input{}, world.Vec2{Y: 10}, world.Vec2{})
	assert.False(t, c.Grounded(), "non ground contact does not confirm")

	c.OnCollisionEnter(world.Body{Category: world.CategoryGround})
	assert.True(t, c.Grounded())
	c.OnCollisionExit(world.Body{Category: world.CategoryGround})
	assert.True(t, c.Grounded(), "exit never clears")

	v := c.Tick(Input{Jump: true}, world.Vec2{Y: 10}, world.Vec2{})
	assert.Equal(t, DefaultJumpForce, v.Y, "confirmed contact allows the jump")

	c.Tick(Input{}, world.Vec2{Y: 10}, world.Vec2{})
	assert.False(t, c.Grounded(), "confirmation lasts one tick; the sensor clears it")
}

func TestMoveToTarget(t *testing.T) {
	c := NewController(DefaultConfig(), nil, nil, nil)
	c.MoveToTarget(world.Vec2{X: 4}, 2)
	require.True(t, c.Steering())

	v := c.Tick(Input{Horizontal: -1, Jump: true}, world.Vec2{}, world.Vec2{})
	assert.InDelta(t, 2.0, v.X, 1e-9, "input is ignored while steering")
	assert.InDelta(t, 0.0, v.Y, 1e-9)
	assert.Equal(t, world.FacingRight, c.Facing())

	v = c.Tick(Input{}, world.Vec2{X: 3.95}, world.Vec2{})
	assert.Equal(t, world.Vec2{}, v)
	assert.False(t, c.Steering())
}

func TestTeleportTo(t *testing.T) {
	c := NewController(DefaultConfig(), nil, nil, nil)
	c.MoveToTarget(world.Vec2{X: 9}, 0)
	k := &world.Kinematic{Position: world.Vec2{X: 1}, Velocity: world.Vec2{X: 3, Y: -7}}

	c.TeleportTo(k, world.Vec2{X: 20, Y: 5})
	assert.Equal(t, world.Vec2{X: 20, Y: 5}, k.Position)
	assert.Equal(t, world.Vec2{}, k.Velocity)
	assert.False(t, c.Steering())
}
