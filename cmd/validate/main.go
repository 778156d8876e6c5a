package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/platformer/internal/config"
	"github.com/jwebster45206/platformer/pkg/sheet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	filename := cfg.SheetFile
	if len(os.Args) > 1 {
		filename = os.Args[1]
	}
	if filename == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s <sheet.json>\n", os.Args[0])
		os.Exit(1)
	}

	validator := &SheetValidator{StartScene: cfg.StartScene}
	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Sheet file is valid!")
}

// SheetValidator checks a sheet payload beyond what decoding enforces:
// every scene referenced from a choice, an NPC or the start setting must
// have lines.
type SheetValidator struct {
	StartScene int

	errors []string
	report strings.Builder
}

func (v *SheetValidator) validateFile(filename string) error {
	v.printf("Validating %s...\n", filename)

	if !strings.HasSuffix(filepath.Base(filename), ".json") {
		return fmt.Errorf("sheet file must have .json extension: %s", filepath.Base(filename))
	}

	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	data, err := v.validatePayload(raw)
	fmt.Print(v.report.String())
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	fmt.Println(data.Summary())
	return nil
}

// validatePayload decodes raw and runs the cross-reference checks. The
// sheet listing goes to the report.
func (v *SheetValidator) validatePayload(raw []byte) (*sheet.Data, error) {
	v.errors = nil

	p, err := sheet.Parse(raw)
	if err != nil {
		return nil, err
	}

	for _, name := range p.Sheets() {
		t, err := p.Table(name)
		if err != nil {
			v.addError(err.Error())
			continue
		}
		v.printf("  %s: %d rows [%s]\n", name, t.Rows(), strings.Join(t.Columns(), ", "))
	}
	if len(v.errors) > 0 {
		return nil, v.failure()
	}

	data, err := p.Decode()
	if err != nil {
		return nil, err
	}

	v.validateReferences(data)
	if len(v.errors) > 0 {
		return nil, v.failure()
	}
	return data, nil
}

func (v *SheetValidator) validateReferences(data *sheet.Data) {
	scenes := make(map[int]bool)
	for _, s := range data.Script.Scenes() {
		scenes[s] = true
	}

	if !scenes[v.StartScene] {
		v.addError(fmt.Sprintf("start scene %d has no lines", v.StartScene))
	}

	for _, l := range data.Lines {
		if !l.IsChoice() {
			continue
		}
		for _, target := range l.Targets {
			if !scenes[target] {
				v.addError(fmt.Sprintf("choice at line %d in scene %d targets missing scene %d", l.Index, l.Scene, target))
			}
		}
	}

	for _, def := range data.NPCs {
		if def.HasScene && !scenes[def.Scene] {
			v.addError(fmt.Sprintf("npc %q starts missing scene %d", def.Key, def.Scene))
		}
	}
}

func (v *SheetValidator) failure() error {
	return fmt.Errorf("validation errors:\n%s", strings.Join(v.errors, "\n"))
}

func (v *SheetValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *SheetValidator) printf(format string, args ...any) {
	fmt.Fprintf(&v.report, format, args...)
}
