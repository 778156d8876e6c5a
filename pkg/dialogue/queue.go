// Package dialogue sequences scripted conversation lines, including the
// two-way CHOICE branch.
package dialogue

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

var (
	ErrSceneNotFound   = errors.New("no dialogue lines for scene")
	ErrNotActive       = errors.New("no active dialogue session")
	ErrNoPendingChoice = errors.New("no choice pending")
	ErrInvalidChoiceIx = errors.New("choice index out of range")
)

// State is the queue's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*s = StateActive
	case "idle":
		*s = StateIdle
	default:
		return fmt.Errorf("unknown dialogue state %q", b)
	}
	return nil
}

// Step is the result of one Advance.
type Step struct {
	Line    *Line    `json:"line,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
	Ended   bool     `json:"ended,omitempty"`
}

// EventKind names a queue event.
type EventKind string

const (
	EventStarted EventKind = "dialogue_started"
	EventLine    EventKind = "dialogue_line"
	EventChoice  EventKind = "dialogue_choice"
	EventEnded   EventKind = "dialogue_ended"
)

// Event is delivered to the queue's listener.
type Event struct {
	Kind    EventKind `json:"kind"`
	Session uuid.UUID `json:"session"`
	Scene   int       `json:"scene"`
	Line    *Line     `json:"line,omitempty"`
	Prompt  string    `json:"prompt,omitempty"`
	Choices []Choice  `json:"choices,omitempty"`
}

// Listener observes a queue.
type Listener interface {
	DialogueEvent(e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event)

func (f ListenerFunc) DialogueEvent(e Event) { f(e) }

// Queue runs one dialogue session at a time over a script. It is owned by
// a single entity and not safe for concurrent use.
type Queue struct {
	script   *Script
	listener Listener
	logger   *slog.Logger

	state   State
	scene   int
	session uuid.UUID
	fifo    []Line
	prompt  string
	pending []Choice
}

func NewQueue(script *Script, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Queue{script: script, logger: logger}
}

// SetListener replaces the listener. Nil removes it.
func (q *Queue) SetListener(l Listener) {
	q.listener = l
}

// SetScript swaps the script, cancelling any session in progress.
func (q *Queue) SetScript(s *Script) {
	q.Cancel()
	q.script = s
}

// Start begins a session over the lines of scene. Any running session is
// discarded. When the scene has no lines the queue is left exactly as it
// was and ErrSceneNotFound is returned.
func (q *Queue) Start(scene int) error {
	lines := q.script.Scene(scene)
	if len(lines) == 0 {
		q.logger.Warn("Dialogue scene has no lines", "scene", scene)
		return fmt.Errorf("%w: %d", ErrSceneNotFound, scene)
	}

	if q.state == StateActive {
		q.logger.Debug("Dialogue session replaced", "session", q.session, "scene", q.scene)
	}

	q.state = StateActive
	q.scene = scene
	q.session = uuid.New()
	q.fifo = lines
	q.prompt = ""
	q.pending = nil

	q.logger.Debug("Dialogue session started", "session", q.session, "scene", scene, "lines", len(lines))
	q.emit(Event{Kind: EventStarted, Scene: scene})
	return nil
}

// Advance pops the next line. A CHOICE line ends normal advancement: the
// queue goes Idle and the two options become pending. An exhausted queue
// ends the session.
func (q *Queue) Advance() (Step, error) {
	if q.state != StateActive {
		return Step{}, ErrNotActive
	}
	if len(q.fifo) == 0 {
		q.end()
		return Step{Ended: true}, nil
	}

	line := q.fifo[0]
	q.fifo = q.fifo[1:]

	if !line.IsChoice() {
		q.emit(Event{Kind: EventLine, Scene: q.scene, Line: &line})
		return Step{Line: &line}, nil
	}

	prompt, choices, err := ParseChoice(line)
	if err != nil {
		// Scripts are validated on load; a bad line here ends the session.
		q.end()
		return Step{Ended: true}, err
	}

	q.state = StateIdle
	q.fifo = nil
	q.prompt = prompt
	q.pending = choices[:]

	q.emit(Event{Kind: EventChoice, Scene: q.scene, Line: &line, Prompt: prompt, Choices: q.Pending()})
	return Step{Line: &line, Prompt: prompt, Choices: q.Pending()}, nil
}

// Choose selects a pending option and starts its branch scene. On failure
// the options stay pending.
func (q *Queue) Choose(i int) error {
	if len(q.pending) == 0 {
		return ErrNoPendingChoice
	}
	if i < 0 || i >= len(q.pending) {
		return fmt.Errorf("%w: %d", ErrInvalidChoiceIx, i)
	}
	target := q.pending[i].Target
	q.logger.Debug("Dialogue choice selected", "session", q.session, "choice", i, "target", target)
	return q.Start(target)
}

// Cancel forces the queue Idle and drops any pending choice.
func (q *Queue) Cancel() {
	if q.state == StateIdle && len(q.pending) == 0 {
		return
	}
	q.end()
}

func (q *Queue) end() {
	q.logger.Debug("Dialogue session ended", "session", q.session, "scene", q.scene)
	q.state = StateIdle
	q.fifo = nil
	q.prompt = ""
	q.pending = nil
	q.emit(Event{Kind: EventEnded, Scene: q.scene})
}

func (q *Queue) emit(e Event) {
	if q.listener == nil {
		return
	}
	e.Session = q.session
	q.listener.DialogueEvent(e)
}

func (q *Queue) State() State {
	return q.state
}

// Scene returns the scene of the current or most recent session.
func (q *Queue) Scene() int {
	return q.scene
}

// Session identifies the current or most recent session.
func (q *Queue) Session() uuid.UUID {
	return q.session
}

// Prompt returns the prompt of the pending choice, if any.
func (q *Queue) Prompt() string {
	return q.prompt
}

// Pending returns a copy of the options awaiting Choose.
func (q *Queue) Pending() []Choice {
	if len(q.pending) == 0 {
		return nil
	}
	return append([]Choice(nil), q.pending...)
}

// Remaining is the number of lines left in the session.
func (q *Queue) Remaining() int {
	return len(q.fifo)
}
