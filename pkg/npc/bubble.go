package npc

import "time"

const (
	DefaultFadeIn  = 300 * time.Millisecond
	DefaultHold    = 3 * time.Second
	DefaultFadeOut = 300 * time.Millisecond
)

// Bubble is a speech bubble that fades in, holds, then fades out. It is
// advanced by Update between ticks and never blocks.
type Bubble struct {
	FadeIn  time.Duration
	Hold    time.Duration
	FadeOut time.Duration

	text    string
	elapsed time.Duration
	active  bool
}

func NewBubble() *Bubble {
	return &Bubble{FadeIn: DefaultFadeIn, Hold: DefaultHold, FadeOut: DefaultFadeOut}
}

// Show sets the text and restarts the timeline from fully transparent.
func (b *Bubble) Show(text string) {
	b.text = text
	b.elapsed = 0
	b.active = true
}

// Update advances the timeline by dt.
func (b *Bubble) Update(dt time.Duration) {
	if !b.active || dt <= 0 {
		return
	}
	b.elapsed += dt
	if b.elapsed >= b.FadeIn+b.Hold+b.FadeOut {
		b.active = false
	}
}

// Alpha returns the current opacity in [0, 1].
func (b *Bubble) Alpha() float64 {
	if !b.active {
		return 0
	}
	e := b.elapsed
	switch {
	case e < b.FadeIn:
		return float64(e) / float64(b.FadeIn)
	case e < b.FadeIn+b.Hold:
		return 1
	default:
		out := e - b.FadeIn - b.Hold
		if b.FadeOut <= 0 {
			return 0
		}
		return 1 - float64(out)/float64(b.FadeOut)
	}
}

// Visible reports whether the bubble is anywhere on its timeline.
func (b *Bubble) Visible() bool {
	return b.active
}

func (b *Bubble) Text() string {
	return b.text
}
