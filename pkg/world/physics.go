package world

// DefaultGravity is the downward acceleration applied by Step, in units/s².
const DefaultGravity = 25.0

// Kinematic is the minimal mutable state the physics step needs for one
// moving box.
type Kinematic struct {
	Position Vec2 `json:"position"`
	Velocity Vec2 `json:"velocity"`
	HalfSize Vec2 `json:"half_size"`
}

func (k *Kinematic) asBody() Body {
	return Body{Position: k.Position, HalfSize: k.HalfSize}
}

// Step integrates gravity and velocity over dt and resolves the result
// against solid ground bodies, one axis at a time. It returns the ground
// bodies the box came to rest on during this step; those are the
// collision-enter contacts a motion controller may use to confirm support.
func Step(k *Kinematic, dt, gravity float64, s *Space) []Body {
	if k == nil || dt <= 0 {
		return nil
	}

	k.Velocity.Y -= gravity * dt

	var solids []Body
	if s != nil {
		solids = s.ByCategory(CategoryGround)
	}

	deltaX := k.Velocity.X * dt
	if deltaX != 0 {
		k.Position.X = resolveX(k, k.Position.X+deltaX, deltaX, solids)
	}

	var landed []Body
	deltaY := k.Velocity.Y * dt
	if deltaY != 0 {
		newY, hit, blocked := resolveY(k, k.Position.Y+deltaY, deltaY, solids)
		k.Position.Y = newY
		if blocked {
			k.Velocity.Y = 0
		}
		if hit != nil {
			landed = append(landed, *hit)
		}
	}
	return landed
}

// resolveX stops horizontal movement at the side of any solid the box
// would otherwise pass into.
func resolveX(k *Kinematic, proposed, delta float64, solids []Body) float64 {
	newX := proposed
	self := k.asBody()
	for _, obs := range solids {
		lo, hi := obs.Min(), obs.Max()
		if self.Max().Y <= lo.Y || self.Min().Y >= hi.Y {
			continue
		}
		if delta > 0 {
			boundary := lo.X - k.HalfSize.X
			if k.Position.X <= boundary && newX > boundary {
				newX = boundary
			}
		} else {
			boundary := hi.X + k.HalfSize.X
			if k.Position.X >= boundary && newX < boundary {
				newX = boundary
			}
		}
	}
	return newX
}

// resolveY stops vertical movement at floors and ceilings. The returned
// body is the floor landed on, if any.
func resolveY(k *Kinematic, proposed, delta float64, solids []Body) (float64, *Body, bool) {
	newY := proposed
	var floor *Body
	blocked := false
	for i, obs := range solids {
		lo, hi := obs.Min(), obs.Max()
		if k.Position.X+k.HalfSize.X <= lo.X || k.Position.X-k.HalfSize.X >= hi.X {
			continue
		}
		if delta < 0 {
			boundary := hi.Y + k.HalfSize.Y
			if k.Position.Y >= boundary && newY < boundary {
				newY = boundary
				floor = &solids[i]
				blocked = true
			}
		} else {
			boundary := lo.Y - k.HalfSize.Y
			if k.Position.Y <= boundary && newY > boundary {
				newY = boundary
				blocked = true
			}
		}
	}
	return newY, floor, blocked
}
