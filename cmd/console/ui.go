package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/platformer/internal/game"
	"github.com/jwebster45206/platformer/pkg/inventory"
	"github.com/jwebster45206/platformer/pkg/world"
)

const (
	Title           = "PLATFORMER"
	PlaceHolderText = "/use 0, /drop 0, /copy, /refresh, /help"

	// cellSize is how many world units one map character covers.
	cellSize = 0.5
	// releaseDelay is how long a held direction key lasts without a repeat.
	releaseDelay = 150 * time.Millisecond
	maxLogLines  = 200
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	api          *apiClient
	frame        *game.Frame
	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error

	// lines merges the game's log with console-side messages.
	lines    []string
	seenTick uint64

	// commandMode routes keys to the textarea instead of the game.
	commandMode bool

	// heldSeq identifies the latest direction press; stale releases are dropped.
	heldSeq int

	// Quit confirmation state
	showQuitModal bool
}

type frameMsg struct {
	frame *game.Frame
	err   error
}

type inputSentMsg struct {
	err error
}

type refreshMsg struct {
	err error
}

type pollMsg struct{}

type releaseMsg struct {
	seq int
}

var (
	mapPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	bubbleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // teal
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	dialogueStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, api *apiClient) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.Blur()

	logVp := viewport.New(50, 8)
	logVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		api:          api,
		textarea:     ta,
		logViewport:  logVp,
		metaViewport: metaVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.fetchFrame()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		mapWidth, metaWidth := m.panelWidths()
		m.logViewport.Width = mapWidth - 2
		m.logViewport.Height = max(m.height/4, 3)
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 2
		m.textarea.SetWidth(mapWidth - 4)
		m.ready = true
		m.refreshPanels()
		return m, nil

	case frameMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.frame = msg.frame
			m.refreshPanels()
		}
		return m, poll(m.config.PollInterval)

	case pollMsg:
		return m, m.fetchFrame()

	case inputSentMsg:
		if msg.err != nil {
			m.note(errorStyle.Render("Input rejected: " + msg.err.Error()))
		}
		return m, nil

	case refreshMsg:
		if msg.err != nil {
			m.note(errorStyle.Render("Refresh failed: " + msg.err.Error()))
		} else {
			m.note("Sheet refresh started")
		}
		return m, nil

	case releaseMsg:
		if msg.seq == m.heldSeq {
			return m, m.send(game.Input{Horizontal: game.Axis(0)})
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.showQuitModal = true
			return m, nil
		}
		if m.commandMode {
			return m.updateCommand(msg)
		}
		return m.updateGameKey(msg)
	}

	if m.commandMode {
		m.textarea, tiCmd = m.textarea.Update(msg)
	}
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// updateGameKey maps a key press to a game input.
func (m ConsoleUI) updateGameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dialogueOpen := m.frame != nil && m.frame.Dialogue.Open()

	switch msg.String() {
	case "a", "left":
		return m.hold(-1)
	case "d", "right":
		return m.hold(1)
	case " ":
		if dialogueOpen {
			return m, m.send(game.Input{Advance: true})
		}
		return m, m.send(game.Input{Jump: true})
	case "e", "enter":
		return m, m.send(game.Input{Interact: true})
	case "w", "up":
		return m, m.send(game.Input{Up: true})
	case "s", "down":
		return m, m.send(game.Input{Down: true})
	case "1", "2":
		n, _ := strconv.Atoi(msg.String())
		choice := n - 1
		return m, m.send(game.Input{Choose: &choice})
	case "esc":
		if dialogueOpen {
			return m, m.send(game.Input{Cancel: true})
		}
		m.showQuitModal = true
		return m, nil
	case ":", "/":
		m.commandMode = true
		m.textarea.Reset()
		if msg.String() == "/" {
			m.textarea.SetValue("/")
		}
		return m, m.textarea.Focus()
	case "q":
		m.showQuitModal = true
		return m, nil
	}
	return m, nil
}

// hold sends a direction and schedules its release. Terminal key repeat
// keeps re-sending the press, which pushes the release out.
func (m ConsoleUI) hold(direction float64) (tea.Model, tea.Cmd) {
	m.heldSeq++
	seq := m.heldSeq
	release := tea.Tick(releaseDelay, func(time.Time) tea.Msg {
		return releaseMsg{seq: seq}
	})
	return m, tea.Batch(m.send(game.Input{Horizontal: game.Axis(direction)}), release)
}

func (m ConsoleUI) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.leaveCommandMode()
		return m, nil
	case tea.KeyEnter:
		input := strings.TrimSpace(m.textarea.Value())
		m.leaveCommandMode()
		if input == "" {
			return m, nil
		}
		return m.handleCommand(input)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *ConsoleUI) leaveCommandMode() {
	m.commandMode = false
	m.textarea.Reset()
	m.textarea.Blur()
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	c, err := parseCommand(input)
	if err != nil {
		m.note(errorStyle.Render(err.Error()))
		return m, nil
	}

	switch c.name {
	case "help":
		for _, line := range helpLines {
			m.note(line)
		}
	case "use":
		return m, m.send(game.Input{UseSlot: &c.slot})
	case "drop":
		return m, m.send(game.Input{DropSlot: &c.slot})
	case "copy":
		if m.frame == nil {
			m.note(errorStyle.Render("Nothing to copy yet"))
			break
		}
		if err := clipboard.WriteAll(inventory.Dump(m.frame.Inventory)); err != nil {
			m.note(errorStyle.Render("Copy failed: " + err.Error()))
			break
		}
		m.note("Inventory copied to clipboard")
	case "refresh":
		return m, m.refreshSheet()
	case "quit":
		m.showQuitModal = true
	}
	return m, nil
}

var helpLines = []string{
	titleStyle.Render("Help:"),
	"  a/d or ←/→   walk",
	"  space        jump, or advance dialogue",
	"  e or enter   interact (pick up, talk, doors)",
	"  w/s or ↑/↓   portal up/down",
	"  1/2          pick a dialogue choice",
	"  esc          close dialogue",
	"  : or /       type a command",
	"  /use N  /drop N  /copy  /refresh  /quit",
}

type command struct {
	name string
	slot int
}

// parseCommand reads a slash command typed in the textarea.
func parseCommand(input string) (command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	name := strings.TrimPrefix(fields[0], "/")

	switch name {
	case "help", "copy", "refresh", "quit":
		if len(fields) != 1 {
			return command{}, fmt.Errorf("/%s takes no arguments", name)
		}
		return command{name: name}, nil
	case "use", "drop":
		if len(fields) != 2 {
			return command{}, fmt.Errorf("usage: /%s <slot>", name)
		}
		slot, err := strconv.Atoi(fields[1])
		if err != nil || slot < 0 {
			return command{}, fmt.Errorf("invalid slot %q", fields[1])
		}
		return command{name: name, slot: slot}, nil
	default:
		return command{}, fmt.Errorf("unknown command /%s, try /help", name)
	}
}

func (m *ConsoleUI) note(line string) {
	m.lines = appendLog(m.lines, line)
	m.refreshLog()
}

// refreshPanels redraws everything that depends on the latest frame.
func (m *ConsoleUI) refreshPanels() {
	if m.frame == nil {
		return
	}
	fresh, seen := newEntries(m.frame.Recent, m.seenTick)
	m.seenTick = max(seen, m.seenTick)
	if len(fresh) > 0 {
		m.lines = appendLog(m.lines, fresh...)
	}
	m.refreshLog()
	m.metaViewport.SetContent(writeMetadata(m.frame))
}

// newEntries returns the texts of entries newer than seen and the newest
// tick among them.
func newEntries(recent []game.LogEntry, seen uint64) ([]string, uint64) {
	var fresh []string
	newest := seen
	for _, e := range recent {
		if e.Tick <= seen {
			continue
		}
		fresh = append(fresh, e.Text)
		newest = max(newest, e.Tick)
	}
	return fresh, newest
}

func appendLog(lines []string, more ...string) []string {
	lines = append(lines, more...)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

func (m *ConsoleUI) refreshLog() {
	width := max(m.logViewport.Width-2, 10)
	var content strings.Builder
	for _, line := range m.lines {
		content.WriteString(wordwrap.String(line, width) + "\n")
	}
	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func writeMetadata(f *game.Frame) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("PLAYER") + "\n\n")
	content.WriteString(fmt.Sprintf("HP: %d/%d\n", f.Player.HP, f.Player.MaxHP))
	content.WriteString(fmt.Sprintf("Pos: %.1f, %.1f\n", f.Player.Position.X, f.Player.Position.Y))
	content.WriteString(fmt.Sprintf("Facing: %s\n", f.Player.Facing))
	if f.Player.Grounded {
		content.WriteString("Grounded\n")
	} else {
		content.WriteString("Airborne\n")
	}
	content.WriteString(fmt.Sprintf("Tick: %d\n\n", f.Tick))

	content.WriteString(titleStyle.Render("INVENTORY") + "\n\n")
	empty := true
	for i, s := range f.Inventory {
		if s.Empty() {
			continue
		}
		empty = false
		line := fmt.Sprintf("[%d] %s x%d", i, s.Item.Name, s.Item.Quantity)
		if s.Equipped {
			line += " (E)"
		}
		content.WriteString(itemStyle.Render(line) + "\n")
	}
	if empty {
		content.WriteString("Empty\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• :help for keys\n")
	content.WriteString("• q: Quit\n")
	return content.String()
}

// renderDialogue draws the dialogue box, or "" when nothing is open.
func renderDialogue(d game.DialogueFrame, width int) string {
	if !d.Open() {
		return ""
	}
	inner := max(width-4, 10)

	var content strings.Builder
	switch {
	case len(d.Choices) > 0:
		content.WriteString(wordwrap.String(d.Prompt, inner) + "\n")
		for i, c := range d.Choices {
			content.WriteString(fmt.Sprintf("  %d) %s\n", i+1, c.Label))
		}
		content.WriteString(promptStyle.Render("1/2 to choose, esc to leave"))
	case d.Text != "":
		if d.Speaker != "" {
			content.WriteString(speakerStyle.Render(d.Speaker+":") + " ")
		}
		content.WriteString(wordwrap.String(d.Text, inner) + "\n")
		content.WriteString(promptStyle.Render("space to continue, esc to leave"))
	default:
		content.WriteString(promptStyle.Render("..."))
	}
	return dialogueStyle.Width(inner).Render(content.String())
}

// renderMap draws the world around the player as a character grid. Rows
// grow upward in world space, so row 0 is the top of the view.
func renderMap(f *game.Frame, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	center := f.Player.Position
	originX := center.X - float64(cols)*cellSize/2
	originY := center.Y - float64(rows)*cellSize/3

	toCell := func(p world.Vec2) (int, int, bool) {
		c := int(math.Floor((p.X - originX) / cellSize))
		r := rows - 1 - int(math.Floor((p.Y-originY)/cellSize))
		return c, r, c >= 0 && c < cols && r >= 0 && r < rows
	}

	fill := func(b world.Body, glyph string) {
		lo, hi := b.Min(), b.Max()
		c0, r1, _ := toCell(lo)
		c1, r0, _ := toCell(hi)
		for r := max(r0, 0); r <= min(r1, rows-1); r++ {
			for c := max(c0, 0); c <= min(c1, cols-1); c++ {
				grid[r][c] = glyph
			}
		}
	}

	for _, b := range f.Bodies {
		switch b.Category {
		case world.CategoryGround:
			fill(b, separatorStyle.Render("="))
		case world.CategoryDoor:
			fill(b, titleStyle.Render("D"))
		case world.CategoryPortal:
			fill(b, speakerStyle.Render("O"))
		}
	}
	for _, b := range f.Bodies {
		if b.Category != world.CategoryItem {
			continue
		}
		if c, r, ok := toCell(b.Position); ok {
			grid[r][c] = itemStyle.Render("*")
		}
	}

	for _, n := range f.NPCs {
		c, r, ok := toCell(n.Position)
		if !ok {
			continue
		}
		grid[r][c] = speakerStyle.Render(string([]rune(n.Name + "N")[0]))
		if n.Bubble == "" || r == 0 {
			continue
		}
		text := []rune(n.Bubble)
		if n.BubbleAlpha < 0.5 {
			text = []rune(strings.ToLower(n.Bubble))
		}
		for i, ch := range text {
			if c+i >= cols {
				break
			}
			grid[r-1][c+i] = bubbleStyle.Render(string(ch))
		}
	}

	if c, r, ok := toCell(center); ok {
		glyph := "@"
		if f.Player.Facing == world.FacingLeft {
			glyph = "<"
		} else if f.Player.Facing == world.FacingRight {
			glyph = ">"
		}
		grid[r][c] = playerStyle.Render(glyph)
	}

	lines := make([]string, rows)
	for r, row := range grid {
		lines[r] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

func (m ConsoleUI) panelWidths() (int, int) {
	mapWidth := int(float64(m.width)*0.75) - 4
	return mapWidth, m.width - mapWidth - 6
}

func (m ConsoleUI) send(in game.Input) tea.Cmd {
	return func() tea.Msg {
		return inputSentMsg{err: m.api.send(in)}
	}
}

func (m ConsoleUI) fetchFrame() tea.Cmd {
	return func() tea.Msg {
		f, err := m.api.state()
		return frameMsg{f, err}
	}
}

func (m ConsoleUI) refreshSheet() tea.Cmd {
	return func() tea.Msg {
		return refreshMsg{err: m.api.refreshSheet()}
	}
}

func poll(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case frameMsg:
		// Keep polling behind the modal.
		if msg.err == nil {
			m.frame = msg.frame
		}
		return m, poll(m.config.PollInterval)

	case pollMsg:
		return m, m.fetchFrame()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		case tea.KeyEsc:
			m.showQuitModal = false
			return m, nil
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("The simulation keeps running after the console exits.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	mapWidth, metaWidth := m.panelWidths()
	innerWidth := max(mapWidth-4, 10)

	var sections []string
	sections = append(sections, titleStyle.Render(Title))

	if m.err != nil {
		sections = append(sections, errorStyle.Render("Lost contact with simulation: "+m.err.Error()))
	}

	if m.frame != nil {
		box := renderDialogue(m.frame.Dialogue, innerWidth)
		mapRows := m.height - m.logViewport.Height - 8 - lipgloss.Height(box)
		sections = append(sections, renderMap(m.frame, innerWidth, max(mapRows, 4)))
		if box != "" {
			sections = append(sections, box)
		}
	}

	sections = append(sections,
		separatorStyle.Render(strings.Repeat("─", innerWidth)),
		m.logViewport.View(),
	)
	if m.commandMode {
		sections = append(sections, m.textarea.View())
	}

	mapPanel := mapPanelStyle.Width(mapWidth).Height(m.height - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, mapPanel, metaPanel)
}
