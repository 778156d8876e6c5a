package dialogue

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidLine   = errors.New("invalid dialogue line")
	ErrInvalidChoice = errors.New("invalid choice line")
)

// Status marks how a line is presented.
type Status string

const (
	StatusNormal Status = ""
	StatusChoice Status = "CHOICE"
)

// ParseStatus maps a sheet status cell to a Status. Anything other than
// CHOICE is a normal line.
func ParseStatus(s string) Status {
	if strings.TrimSpace(s) == string(StatusChoice) {
		return StatusChoice
	}
	return StatusNormal
}

// Line is one row of a dialogue script.
type Line struct {
	Index     int    `json:"index"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Scene     int    `json:"scene"`
	Status    Status `json:"status,omitempty"`
	Targets   []int  `json:"targets,omitempty"` // branch scenes of a CHOICE line
	BackImage string `json:"back_image,omitempty"`
	Effect    string `json:"effect,omitempty"`
	Type      string `json:"type,omitempty"`
}

// IsChoice reports whether the line offers a branch.
func (l Line) IsChoice() bool {
	return l.Status == StatusChoice
}

func (l Line) clone() Line {
	if l.Targets != nil {
		l.Targets = append([]int(nil), l.Targets...)
	}
	return l
}

// Validate checks a line the way the loader does. CHOICE lines must parse
// under the current choice format.
func (l Line) Validate() error {
	if l.IsChoice() {
		if _, _, err := ParseChoice(l); err != nil {
			return err
		}
	}
	return nil
}

// ChoiceSeparator splits the text of a CHOICE line.
const ChoiceSeparator = ">"

// ChoiceFormatVersion identifies the CHOICE text layout accepted by
// ParseChoice: "<prompt>><option 1>><option 2>", with the two branch
// scenes carried in the line's Targets.
const ChoiceFormatVersion = 1

// Choice is one selectable branch.
type Choice struct {
	Label  string `json:"label"`
	Target int    `json:"target"`
}

// ParseChoice splits a CHOICE line into its prompt and exactly two choices.
func ParseChoice(l Line) (string, [2]Choice, error) {
	var choices [2]Choice
	parts := strings.Split(l.Text, ChoiceSeparator)
	if len(parts) != 3 {
		return "", choices, fmt.Errorf("%w: line %d in scene %d has %d parts, want 3 (format v%d)",
			ErrInvalidChoice, l.Index, l.Scene, len(parts), ChoiceFormatVersion)
	}
	if len(l.Targets) != 2 {
		return "", choices, fmt.Errorf("%w: line %d in scene %d has %d branch targets, want 2",
			ErrInvalidChoice, l.Index, l.Scene, len(l.Targets))
	}
	for i := range choices {
		label := strings.TrimSpace(parts[i+1])
		if label == "" {
			return "", choices, fmt.Errorf("%w: line %d in scene %d has an empty option %d",
				ErrInvalidChoice, l.Index, l.Scene, i+1)
		}
		choices[i] = Choice{Label: label, Target: l.Targets[i]}
	}
	return strings.TrimSpace(parts[0]), choices, nil
}
