package dialogue

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Script is a validated set of lines grouped by scene.
type Script struct {
	scenes map[int][]Line
}

// NewScript validates every line and groups them by scene, each scene
// sorted by index. Duplicate indexes and malformed CHOICE lines are
// reported together.
func NewScript(lines []Line) (*Script, error) {
	s := &Script{scenes: make(map[int][]Line)}
	seen := make(map[int]bool, len(lines))

	var errs []error
	for _, l := range lines {
		if seen[l.Index] {
			errs = append(errs, fmt.Errorf("%w: duplicate index %d", ErrInvalidLine, l.Index))
			continue
		}
		seen[l.Index] = true
		if err := l.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		s.scenes[l.Scene] = append(s.scenes[l.Scene], l.clone())
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, scene := range s.scenes {
		sort.SliceStable(scene, func(i, j int) bool { return scene[i].Index < scene[j].Index })
	}
	return s, nil
}

// Scene returns copies of the lines of one scene in index order.
func (s *Script) Scene(scene int) []Line {
	if s == nil {
		return nil
	}
	lines := s.scenes[scene]
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.clone()
	}
	return out
}

// Scenes returns the scene numbers present, ascending.
func (s *Script) Scenes() []int {
	if s == nil {
		return nil
	}
	out := make([]int, 0, len(s.scenes))
	for k := range s.scenes {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// SpeakerLines returns the normal lines spoken by speaker across all
// scenes, ordered by scene then index.
func (s *Script) SpeakerLines(speaker string) []Line {
	var out []Line
	for _, scene := range s.Scenes() {
		for _, l := range s.scenes[scene] {
			if l.Speaker == speaker && !l.IsChoice() {
				out = append(out, l.clone())
			}
		}
	}
	return out
}

// Len returns the number of lines in the script.
func (s *Script) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, lines := range s.scenes {
		n += len(lines)
	}
	return n
}
