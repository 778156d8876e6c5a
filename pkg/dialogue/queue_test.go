package dialogue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLines() []Line {
	return []Line{
		{Index: 3, Speaker: "merchant", Text: "What will it be?", Scene: 1000},
		{Index: 1, Speaker: "merchant", Text: "Welcome!", Scene: 1000},
		{Index: 4, Speaker: "merchant", Text: "Choose>Buy>Leave", Scene: 1000, Status: StatusChoice, Targets: []int{2000, 3000}},
		{Index: 2, Speaker: "player", Text: "Hi.", Scene: 1000},
		{Index: 10, Speaker: "merchant", Text: "Here you go.", Scene: 2000},
		{Index: 11, Speaker: "merchant", Text: "Come again.", Scene: 2000},
		{Index: 20, Speaker: "merchant", Text: "Farewell.", Scene: 3000},
	}
}

func newQueue(t *testing.T) *Queue {
	t.Helper()
	script, err := NewScript(sampleLines())
	require.NoError(t, err)
	return NewQueue(script, nil)
}

type eventLog struct {
	events []Event
}

func (l *eventLog) DialogueEvent(e Event) { l.events = append(l.events, e) }

func (l *eventLog) kinds() []EventKind {
	var out []EventKind
	for _, e := range l.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestStart_UnknownSceneStaysIdle(t *testing.T) {
	q := newQueue(t)

	err := q.Start(42)
	assert.ErrorIs(t, err, ErrSceneNotFound)
	assert.Equal(t, StateIdle, q.State())
	assert.Equal(t, 0, q.Remaining())
}

func TestStart_UnknownSceneKeepsActiveSession(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Start(2000))
	session := q.Session()

	assert.ErrorIs(t, q.Start(42), ErrSceneNotFound)
	assert.Equal(t, StateActive, q.State())
	assert.Equal(t, 2000, q.Scene())
	assert.Equal(t, session, q.Session())
	assert.Equal(t, 2, q.Remaining())
}

func TestAdvance_OrderedByIndexThenChoice(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Start(1000))
	assert.Equal(t, StateActive, q.State())
	assert.NotEqual(t, uuid.Nil, q.Session())

	var texts []string
	for i := 0; i < 3; i++ {
		step, err := q.Advance()
		require.NoError(t, err)
		require.NotNil(t, step.Line)
		assert.Empty(t, step.Choices)
		texts = append(texts, step.Line.Text)
	}
	assert.Equal(t, []string{"Welcome!", "Hi.", "What will it be?"}, texts)

	step, err := q.Advance()
	require.NoError(t, err)
	require.Len(t, step.Choices, 2)
	assert.Equal(t, "Choose", step.Prompt)
	assert.Equal(t, Choice{Label: "Buy", Target: 2000}, step.Choices[0])
	assert.Equal(t, Choice{Label: "Leave", Target: 3000}, step.Choices[1])
	assert.Equal(t, StateIdle, q.State(), "a choice suspends normal advancement")
	assert.Equal(t, 0, q.Remaining())

	_, err = q.Advance()
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestChoose_StartsBranchScene(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Start(1000))
	for {
		step, err := q.Advance()
		require.NoError(t, err)
		if len(step.Choices) > 0 {
			break
		}
	}

	require.NoError(t, q.Choose(0))
	assert.Equal(t, StateActive, q.State())
	assert.Equal(t, 2000, q.Scene())
	assert.Empty(t, q.Pending())

	step, err := q.Advance()
	require.NoError(t, err)
	assert.Equal(t, "Here you go.", step.Line.Text)
	assert.Equal(t, 2000, step.Line.Scene)
}

func TestChoose_Errors(t *testing.T) {
	q := newQueue(t)
	assert.ErrorIs(t, q.Choose(0), ErrNoPendingChoice)

	lines := []Line{
		{Index: 1, Text: "Pick>Left>Right", Scene: 1, Status: StatusChoice, Targets: []int{2, 99}},
		{Index: 2, Text: "Left side.", Scene: 2},
	}
	script, err := NewScript(lines)
	require.NoError(t, err)
	q = NewQueue(script, nil)

	require.NoError(t, q.Start(1))
	_, err = q.Advance()
	require.NoError(t, err)

	assert.ErrorIs(t, q.Choose(2), ErrInvalidChoiceIx)
	assert.ErrorIs(t, q.Choose(1), ErrSceneNotFound)
	assert.Len(t, q.Pending(), 2, "failed choice keeps options pending")
	assert.Equal(t, "Pick", q.Prompt())

	require.NoError(t, q.Choose(0))
	assert.Equal(t, 2, q.Scene())
}

func TestAdvance_ExhaustedEndsSession(t *testing.T) {
	q := newQueue(t)
	log := &eventLog{}
	q.SetListener(log)

	require.NoError(t, q.Start(3000))
	step, err := q.Advance()
	require.NoError(t, err)
	assert.Equal(t, "Farewell.", step.Line.Text)

	step, err = q.Advance()
	require.NoError(t, err)
	assert.True(t, step.Ended)
	assert.Equal(t, StateIdle, q.State())

	assert.Equal(t, []EventKind{EventStarted, EventLine, EventEnded}, log.kinds())
	for _, e := range log.events {
		assert.Equal(t, q.Session(), e.Session)
	}
}

func TestStart_LastStartWins(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Start(1000))
	_, err := q.Advance()
	require.NoError(t, err)
	first := q.Session()

	require.NoError(t, q.Start(3000))
	assert.NotEqual(t, first, q.Session())
	assert.Equal(t, 1, q.Remaining())

	step, err := q.Advance()
	require.NoError(t, err)
	assert.Equal(t, "Farewell.", step.Line.Text)
}

func TestCancel(t *testing.T) {
	q := newQueue(t)
	log := &eventLog{}
	q.SetListener(log)

	q.Cancel()
	assert.Empty(t, log.events, "cancel while idle is silent")

	require.NoError(t, q.Start(1000))
	q.Cancel()
	assert.Equal(t, StateIdle, q.State())
	assert.Equal(t, 0, q.Remaining())

	// Cancel also clears a pending choice.
	require.NoError(t, q.Start(1000))
	for len(q.Pending()) == 0 {
		_, err := q.Advance()
		require.NoError(t, err)
	}
	q.Cancel()
	assert.Empty(t, q.Pending())
	assert.ErrorIs(t, q.Choose(0), ErrNoPendingChoice)
}

func TestSetScriptCancels(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Start(1000))

	script, err := NewScript([]Line{{Index: 1, Text: "New", Scene: 5}})
	require.NoError(t, err)
	q.SetScript(script)

	assert.Equal(t, StateIdle, q.State())
	assert.ErrorIs(t, q.Start(1000), ErrSceneNotFound)
	assert.NoError(t, q.Start(5))
}

func TestNilScript(t *testing.T) {
	q := NewQueue(nil, nil)
	assert.ErrorIs(t, q.Start(1), ErrSceneNotFound)
}

func TestState_Text(t *testing.T) {
	for _, s := range []State{StateIdle, StateActive} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back State
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	var s State
	assert.Error(t, s.UnmarshalText([]byte("paused")))
}
