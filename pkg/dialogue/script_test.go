package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name    string
		line    Line
		prompt  string
		wantErr bool
	}{
		{
			name:   "valid",
			line:   Line{Text: "Go?>Yes>No", Status: StatusChoice, Targets: []int{1, 2}},
			prompt: "Go?",
		},
		{
			name:   "empty prompt is allowed",
			line:   Line{Text: ">Yes>No", Status: StatusChoice, Targets: []int{1, 2}},
			prompt: "",
		},
		{
			name:    "two parts",
			line:    Line{Text: "Yes>No", Status: StatusChoice, Targets: []int{1, 2}},
			wantErr: true,
		},
		{
			name:    "four parts",
			line:    Line{Text: "a>b>c>d", Status: StatusChoice, Targets: []int{1, 2}},
			wantErr: true,
		},
		{
			name:    "one target",
			line:    Line{Text: "Go?>Yes>No", Status: StatusChoice, Targets: []int{1}},
			wantErr: true,
		},
		{
			name:    "three targets",
			line:    Line{Text: "Go?>Yes>No", Status: StatusChoice, Targets: []int{1, 2, 3}},
			wantErr: true,
		},
		{
			name:    "blank option",
			line:    Line{Text: "Go?> >No", Status: StatusChoice, Targets: []int{1, 2}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, choices, err := ParseChoice(tt.line)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChoice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.prompt, prompt)
			assert.Equal(t, "Yes", choices[0].Label)
			assert.Equal(t, 1, choices[0].Target)
			assert.Equal(t, "No", choices[1].Label)
			assert.Equal(t, 2, choices[1].Target)
		})
	}
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusChoice, ParseStatus("CHOICE"))
	assert.Equal(t, StatusChoice, ParseStatus(" CHOICE "))
	assert.Equal(t, StatusNormal, ParseStatus(""))
	assert.Equal(t, StatusNormal, ParseStatus("choice"))
	assert.Equal(t, StatusNormal, ParseStatus("NORMAL"))
}

func TestNewScript_Errors(t *testing.T) {
	_, err := NewScript([]Line{
		{Index: 1, Text: "a", Scene: 1},
		{Index: 1, Text: "b", Scene: 1},
		{Index: 2, Text: "broken", Scene: 1, Status: StatusChoice, Targets: []int{3, 4}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLine)
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestScript_Queries(t *testing.T) {
	script, err := NewScript(sampleLines())
	require.NoError(t, err)

	assert.Equal(t, []int{1000, 2000, 3000}, script.Scenes())
	assert.Equal(t, 7, script.Len())
	assert.Empty(t, script.Scene(1))

	scene := script.Scene(1000)
	require.Len(t, scene, 4)
	for i := 1; i < len(scene); i++ {
		assert.Less(t, scene[i-1].Index, scene[i].Index)
	}

	scene[3].Targets[0] = -1
	again := script.Scene(1000)
	assert.Equal(t, 2000, again[3].Targets[0], "scene lines are copies")

	var texts []string
	for _, l := range script.SpeakerLines("merchant") {
		texts = append(texts, l.Text)
	}
	assert.Equal(t, []string{"Welcome!", "What will it be?", "Here you go.", "Come again.", "Farewell."}, texts)
	assert.Empty(t, script.SpeakerLines("nobody"))
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"old_man":  "Old Man",
		"merchant": "Merchant",
		"blue-cat": "Blue Cat",
		"":         "",
		"__":       "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, DisplayName(in))
		})
	}
}
