// Package sheet decodes the spreadsheet payload that feeds dialogue
// scripts, item templates and NPC definitions. Every sheet has an explicit
// decoder; nothing is mapped by reflection.
package sheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jwebster45206/platformer/pkg/dialogue"
	"github.com/jwebster45206/platformer/pkg/item"
	"github.com/jwebster45206/platformer/pkg/npc"
)

// Sheet names in the payload.
const (
	SheetScript = "ScriptData"
	SheetItems  = "ItemData"
	SheetNPCs   = "NPCData"
)

// Payload is the document returned by the spreadsheet backend.
type Payload struct {
	JSONObject map[string]map[string][]string `json:"jsonObject"`
}

// Parse decodes raw payload bytes.
func Parse(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse sheet payload: %w", err)
	}
	if p.JSONObject == nil {
		return nil, errors.New("sheet payload has no jsonObject")
	}
	return &p, nil
}

// Table returns the named sheet.
func (p *Payload) Table(name string) (*Table, error) {
	raw, ok := p.JSONObject[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingSheet, name)
	}
	return newTable(name, raw)
}

// Sheets returns the sheet names present, sorted.
func (p *Payload) Sheets() []string {
	names := make([]string, 0, len(p.JSONObject))
	for n := range p.JSONObject {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DecodeScript reads the ScriptData sheet. Row errors are collected.
func DecodeScript(t *Table) ([]dialogue.Line, error) {
	if err := t.Require("index", "name", "talk", "sceneIndex"); err != nil {
		return nil, err
	}

	lines := make([]dialogue.Line, 0, t.Rows())
	var errs []error
	for r := 0; r < t.Rows(); r++ {
		index, err := t.Int("index", r, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scene, err := t.Int("sceneIndex", r, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		targets, err := t.IntList("property", r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lines = append(lines, dialogue.Line{
			Index:     index,
			Speaker:   t.String("name", r),
			Text:      t.String("talk", r),
			Scene:     scene,
			Status:    dialogue.ParseStatus(t.String("status", r)),
			Targets:   targets,
			BackImage: t.String("backImage", r),
			Effect:    t.String("effect", r),
			Type:      t.String("type", r),
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return lines, nil
}

// DecodeItems reads the ItemData sheet.
func DecodeItems(t *Table) ([]item.Item, error) {
	if err := t.Require("name"); err != nil {
		return nil, err
	}

	items := make([]item.Item, 0, t.Rows())
	var errs []error
	for r := 0; r < t.Rows(); r++ {
		typ, err := item.ParseType(t.String("type", r))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s row %d: %w", t.Name(), r, err))
			continue
		}
		stackable, err := t.Bool("stackable", r, false)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		qty, err := t.Int("quantity", r, 1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		heal, err := t.Int("heal", r, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		it := item.Item{
			Name:        t.String("name", r),
			Description: t.String("description", r),
			Icon:        t.String("icon", r),
			Type:        typ,
			Stackable:   stackable,
			Quantity:    qty,
			Heal:        heal,
		}
		if err := it.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s row %d: %w", t.Name(), r, err))
			continue
		}
		items = append(items, it)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return items, nil
}

// DecodeNPCs reads the NPCData sheet. Keys must be present and unique.
func DecodeNPCs(t *Table) ([]npc.Definition, error) {
	if err := t.Require("key"); err != nil {
		return nil, err
	}

	defs := make([]npc.Definition, 0, t.Rows())
	seen := make(map[string]bool, t.Rows())
	var errs []error
	for r := 0; r < t.Rows(); r++ {
		key := t.String("key", r)
		if key == "" {
			errs = append(errs, fmt.Errorf("%s row %d: empty key", t.Name(), r))
			continue
		}
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s row %d: duplicate key %q", t.Name(), r, key))
			continue
		}
		seen[key] = true

		def := npc.Definition{Key: key, DisplayName: t.String("displayName", r)}
		if t.String("sceneIndex", r) != "" {
			scene, err := t.Int("sceneIndex", r, 0)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			def.Scene = scene
			def.HasScene = true
		}
		defs = append(defs, def)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return defs, nil
}

// Data is a fully decoded and validated payload.
type Data struct {
	Lines  []dialogue.Line  `json:"lines"`
	Script *dialogue.Script `json:"-"`
	Items  []item.Item      `json:"items"`
	NPCs   []npc.Definition `json:"npcs"`
}

// Load parses and validates a payload. ScriptData is required; ItemData
// and NPCData may be absent. Every problem found is reported.
func Load(data []byte) (*Data, error) {
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return p.Decode()
}

// Decode validates the payload's sheets into Data.
func (p *Payload) Decode() (*Data, error) {
	out := &Data{}
	var errs []error

	if t, err := p.Table(SheetScript); err != nil {
		errs = append(errs, err)
	} else if lines, err := DecodeScript(t); err != nil {
		errs = append(errs, err)
	} else if script, err := dialogue.NewScript(lines); err != nil {
		errs = append(errs, err)
	} else {
		out.Lines = lines
		out.Script = script
	}

	if _, ok := p.JSONObject[SheetItems]; ok {
		if t, err := p.Table(SheetItems); err != nil {
			errs = append(errs, err)
		} else if items, err := DecodeItems(t); err != nil {
			errs = append(errs, err)
		} else {
			out.Items = items
		}
	}

	if _, ok := p.JSONObject[SheetNPCs]; ok {
		if t, err := p.Table(SheetNPCs); err != nil {
			errs = append(errs, err)
		} else if defs, err := DecodeNPCs(t); err != nil {
			errs = append(errs, err)
		} else {
			out.NPCs = defs
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Summary describes decoded data in one line.
func (d *Data) Summary() string {
	return fmt.Sprintf("%d lines in %d scenes, %d items, %d npcs",
		len(d.Lines), len(d.Script.Scenes()), len(d.Items), len(d.NPCs))
}
