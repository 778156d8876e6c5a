// Package motion turns player input into velocity commands and tracks
// whether the player is supported by ground.
package motion

import (
	"log/slog"
	"math"

	"github.com/jwebster45206/platformer/pkg/world"
)

// Animation signal names emitted by the controller.
const (
	SignalWalking     = "walking"
	SignalJumping     = "jumping"
	SignalJumpTrigger = "jump-trigger"
)

// AnimationSink receives animation signals. The controller only writes.
type AnimationSink interface {
	SetBool(name string, value bool)
	SetTrigger(name string)
}

// NopSink discards every signal.
type NopSink struct{}

func (NopSink) SetBool(string, bool) {}
func (NopSink) SetTrigger(string)    {}

const (
	DefaultMoveSpeed         = 5.0
	DefaultJumpForce         = 10.0
	DefaultGroundCheckRadius = 0.2
	DefaultWalkDeadzone      = 0.1
	DefaultArriveDistance    = 0.1

	// minGroundCheckRadius is the smallest radius honoured; anything below
	// is raised to fallbackGroundCheckRadius.
	minGroundCheckRadius      = 0.1
	fallbackGroundCheckRadius = 0.3
)

// Config tunes the controller. Zero values take the defaults.
type Config struct {
	MoveSpeed         float64    `json:"move_speed"`
	JumpForce         float64    `json:"jump_force"`
	GroundCheckRadius float64    `json:"ground_check_radius"`
	GroundCheckOffset world.Vec2 `json:"ground_check_offset"`
	WalkDeadzone      float64    `json:"walk_deadzone"`
	ArriveDistance    float64    `json:"arrive_distance"`
}

func DefaultConfig() Config {
	return Config{
		MoveSpeed:         DefaultMoveSpeed,
		JumpForce:         DefaultJumpForce,
		GroundCheckRadius: DefaultGroundCheckRadius,
		GroundCheckOffset: world.Vec2{Y: -0.5},
		WalkDeadzone:      DefaultWalkDeadzone,
		ArriveDistance:    DefaultArriveDistance,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MoveSpeed == 0 {
		c.MoveSpeed = d.MoveSpeed
	}
	if c.JumpForce == 0 {
		c.JumpForce = d.JumpForce
	}
	if c.GroundCheckRadius < minGroundCheckRadius {
		c.GroundCheckRadius = fallbackGroundCheckRadius
	}
	if c.GroundCheckOffset == (world.Vec2{}) {
		c.GroundCheckOffset = d.GroundCheckOffset
	}
	if c.WalkDeadzone == 0 {
		c.WalkDeadzone = d.WalkDeadzone
	}
	if c.ArriveDistance == 0 {
		c.ArriveDistance = d.ArriveDistance
	}
	return c
}

// Input is the per-tick input state. Jump is an edge: true only on the
// tick the button went down.
type Input struct {
	Horizontal float64 `json:"horizontal"`
	Jump       bool    `json:"jump"`
}

// Controller owns horizontal velocity, jump impulses and facing. Gravity
// and vertical integration belong to the physics step.
type Controller struct {
	cfg    Config
	sensor *GroundSensor
	sink   AnimationSink
	filter Filter
	logger *slog.Logger

	velocity    world.Vec2
	facing      world.Facing
	grounded    bool
	confirmed   bool
	jumpPending bool

	target      *world.Vec2
	targetSpeed float64
}

func NewController(cfg Config, sensor *GroundSensor, sink AnimationSink, logger *slog.Logger) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		cfg:    cfg.withDefaults(),
		sensor: sensor,
		sink:   sink,
		logger: logger,
		facing: world.FacingRight,
	}
}

// SetFilter sets the filter passed to the ground sensor.
func (c *Controller) SetFilter(f Filter) {
	c.filter = f
}

// RequestJump marks a jump for the next Tick. The request is resolved on
// that tick whether or not the jump happens.
func (c *Controller) RequestJump() {
	c.jumpPending = true
}

// OnCollisionEnter confirms support when the contact is ground.
func (c *Controller) OnCollisionEnter(b world.Body) {
	if IsGround(b) {
		c.grounded = true
		c.confirmed = true
	}
}

// OnCollisionExit never clears grounded; only the sensor does that.
func (c *Controller) OnCollisionExit(world.Body) {}

// Tick runs one control step for a body at position moving at velocity
// and returns the velocity to apply.
func (c *Controller) Tick(in Input, position, velocity world.Vec2) world.Vec2 {
	axis := world.Clamp(in.Horizontal, -1, 1)
	jump := in.Jump || c.jumpPending
	c.jumpPending = false

	feet := position.Add(c.cfg.GroundCheckOffset)
	c.grounded = c.sensor.IsGrounded(feet, c.cfg.GroundCheckRadius, c.filter) || c.confirmed
	c.confirmed = false

	walking := math.Abs(axis) > c.cfg.WalkDeadzone
	next := world.Vec2{X: axis * c.cfg.MoveSpeed, Y: velocity.Y}

	if c.target != nil {
		next, walking = c.steer(position)
		axis = next.X
		jump = false
	}

	if jump && c.grounded {
		next.Y = 0
		next.Y += c.cfg.JumpForce
		c.grounded = false
		c.sink.SetTrigger(SignalJumpTrigger)
		c.logger.Debug("Jump", "x", position.X, "y", position.Y)
	}

	switch {
	case axis > 0:
		c.facing = world.FacingRight
	case axis < 0:
		c.facing = world.FacingLeft
	}

	c.sink.SetBool(SignalWalking, walking)
	c.sink.SetBool(SignalJumping, !c.grounded)

	c.velocity = next
	return next
}

// MoveToTarget steers toward target at speed, overriding input, until the
// body is within the arrive distance. A speed of zero uses MoveSpeed.
func (c *Controller) MoveToTarget(target world.Vec2, speed float64) {
	if speed <= 0 {
		speed = c.cfg.MoveSpeed
	}
	c.target = &target
	c.targetSpeed = speed
}

// Steering reports whether a MoveToTarget is in progress.
func (c *Controller) Steering() bool {
	return c.target != nil
}

func (c *Controller) steer(position world.Vec2) (world.Vec2, bool) {
	delta := c.target.Sub(position)
	if delta.Len() <= c.cfg.ArriveDistance {
		c.logger.Debug("Reached move target", "x", c.target.X, "y", c.target.Y)
		c.target = nil
		return world.Vec2{}, false
	}
	return delta.Normalized().Scale(c.targetSpeed), true
}

// TeleportTo moves k to position immediately, zeroing its velocity and
// cancelling any move target.
func (c *Controller) TeleportTo(k *world.Kinematic, position world.Vec2) {
	k.Position = position
	k.Velocity = world.Vec2{}
	c.velocity = world.Vec2{}
	c.target = nil
	c.logger.Debug("Teleported", "x", position.X, "y", position.Y)
}

func (c *Controller) Facing() world.Facing {
	return c.facing
}

func (c *Controller) Grounded() bool {
	return c.grounded
}

// Velocity returns the last velocity command.
func (c *Controller) Velocity() world.Vec2 {
	return c.velocity
}

func (c *Controller) Config() Config {
	return c.cfg
}
