package cli

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/clipboard"
	"github.com/matzehuels/cfgdot/pkg/errors"
	"github.com/matzehuels/cfgdot/pkg/session"
)

// Styles for the preview screen.
var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorGray)
	dotBoxStyle      = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// inputMode says what the text input is editing.
type inputMode int

const (
	inputNone inputMode = iota
	inputFont
	inputSave
)

const (
	defaultSaveName = "graph.png"
	minDotLines     = 5
	defaultDotLines = 20
)

// sessionMsg signals that the session changed state or finished a render.
type sessionMsg struct{}

// noteMsg is a status line from outside the event loop, e.g. the watcher.
type noteMsg struct {
	text  string
	isErr bool
}

// previewModel is the bubbletea model driving an interactive session.
type previewModel struct {
	sess *session.Session
	clip clipboard.Clipboard
	name string

	// Session listeners run on arbitrary goroutines, including inside
	// Update, so they only poke this channel and never call into the
	// program directly.
	changed chan struct{}
	notes   chan noteMsg

	snap  session.Snapshot
	ready bool
	state session.State

	input inputMode
	field textinput.Model

	status    string
	statusErr bool
	height    int
}

func newPreviewModel(sess *session.Session, clip clipboard.Clipboard, name string) previewModel {
	field := textinput.New()
	field.CharLimit = 256

	m := previewModel{
		sess:    sess,
		clip:    clip,
		name:    name,
		changed: make(chan struct{}, 1),
		notes:   make(chan noteMsg, 8),
		field:   field,
		state:   sess.State(),
	}
	changed := m.changed
	sess.OnChange(func(session.Snapshot, bool, session.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	return m
}

// notify posts a status line. It never blocks; excess notes are dropped.
func (m previewModel) notify(text string, isErr bool) {
	select {
	case m.notes <- noteMsg{text: text, isErr: isErr}:
	default:
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return sessionMsg{}
	}
}

func waitForNote(ch <-chan noteMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m previewModel) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.changed), waitForNote(m.notes))
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.field.Width = max(20, msg.Width-16)
		return m, nil

	case sessionMsg:
		m.snap, m.ready = m.sess.Snapshot()
		m.state = m.sess.State()
		return m, waitForChange(m.changed)

	case noteMsg:
		m.status, m.statusErr = msg.text, msg.isErr
		return m, waitForNote(m.notes)

	case tea.KeyMsg:
		if m.input != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m previewModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "right", "l":
		m.sess.SetMode(m.sess.Mode().Next())
	case "shift+tab", "left", "h":
		m.sess.SetMode(prevKind(m.sess.Mode()))
	case "+", "=", "up", "k":
		m.sess.SetFontSize(m.sess.FontSize() + 1)
	case "-", "_", "down", "j":
		m.sess.SetFontSize(m.sess.FontSize() - 1)
	case "f":
		return m.beginInput(inputFont, m.sess.Font())
	case "s":
		return m.beginInput(inputSave, defaultSaveName)
	case "c":
		m.setResult(m.sess.CopyText(m.clip), "Copied DOT text to clipboard")
	case "p":
		m.setResult(m.sess.CopyImage(m.clip), "Copied PNG image to clipboard")
	case "r":
		sess := m.sess
		return m, func() tea.Msg {
			sess.Refresh(context.Background())
			return nil
		}
	}
	return m, nil
}

func (m previewModel) beginInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	m.input = mode
	m.field.SetValue(value)
	m.field.CursorEnd()
	m.field.Focus()
	return m, textinput.Blink
}

func (m previewModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.endInput()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.field.Value())
		switch m.input {
		case inputFont:
			if value != "" {
				m.sess.SetFont(value)
			}
		case inputSave:
			if value == "" {
				value = defaultSaveName
			}
			m.setResult(m.sess.SaveImage(value), "Saved "+value)
		}
		m.endInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

func (m *previewModel) endInput() {
	m.input = inputNone
	m.field.Blur()
	m.field.Reset()
}

func (m *previewModel) setResult(err error, ok string) {
	if err != nil {
		m.status, m.statusErr = errors.UserMessage(err), true
		return
	}
	m.status, m.statusErr = ok, false
}

func (m previewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(appName) + " " + StyleValue.Render(m.name) + "  " + stateBadge(m.state))
	b.WriteString("\n\n")

	mode := m.sess.Mode()
	tabs := make([]string, 0, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		if k == mode {
			tabs = append(tabs, tabActiveStyle.Render(k.DisplayName()))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(k.DisplayName()))
		}
	}
	b.WriteString(strings.Join(tabs, StyleDim.Render(" │ ")))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("Font ") + StyleValue.Render(m.sess.Font()) +
		StyleDim.Render("  Size ") + StyleNumber.Render(fmt.Sprint(m.sess.FontSize())))
	b.WriteString("\n\n")

	b.WriteString(m.imageLine())
	b.WriteString("\n")
	if m.ready && m.snap.Text != "" {
		b.WriteString(dotBoxStyle.Render(clipLines(m.snap.Text, m.dotLines())))
		b.WriteString("\n")
	}

	switch m.input {
	case inputFont:
		b.WriteString("\n" + StyleDim.Render("Font: ") + m.field.View() + "\n")
	case inputSave:
		b.WriteString("\n" + StyleDim.Render("Save to: ") + m.field.View() + "\n")
	}

	if m.status != "" {
		if m.statusErr {
			b.WriteString("\n" + statusError.line(m.status) + "\n")
		} else {
			b.WriteString("\n" + statusSuccess.line(m.status) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("tab view  +/- size  f font  c copy dot  p copy png  s save  r render  q quit"))
	return b.String()
}

// imageLine describes the current image, or why there is none.
func (m previewModel) imageLine() string {
	switch {
	case !m.ready:
		return StyleDim.Render("waiting for first render...")
	case len(m.snap.Image) > 0:
		return statusSuccess.line(imageSummary(m.snap.Image))
	case m.snap.Err != nil:
		return statusWarning.line("blank preview: ") + StyleDim.Render(errors.UserMessage(m.snap.Err))
	}
	return statusWarning.line("blank preview")
}

func (m previewModel) dotLines() int {
	if m.height == 0 {
		return defaultDotLines
	}
	return max(minDotLines, m.height-16)
}

func stateBadge(s session.State) string {
	style := StyleDim
	switch s {
	case session.Dirty, session.Rendering:
		style = StyleWarning
	case session.Ready:
		style = StyleSuccess
	}
	return style.Render("● " + s.String())
}

// imageSummary reports the pixel size of a PNG and its byte size.
func imageSummary(img []byte) string {
	size := humanBytes(len(img))
	c, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return "image " + size
	}
	return fmt.Sprintf("PNG %dx%d, %s", c.Width, c.Height, size)
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// clipLines keeps the first n lines of s, marking how many were dropped.
func clipLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	kept := append(lines[:n:n], StyleDim.Render(fmt.Sprintf("… %d more lines", len(lines)-n)))
	return strings.Join(kept, "\n")
}

func prevKind(k cfg.Kind) cfg.Kind {
	for range len(cfg.Kinds) - 1 {
		k = k.Next()
	}
	return k
}
