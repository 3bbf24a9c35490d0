// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Renders the live waveform scope and handles transport keys
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wavetap/wavetap-go/internal/audio"
	"github.com/wavetap/wavetap-go/internal/engine"
)

// Player is the subset of the engine the TUI drives.
type Player interface {
	Scope() []int16
	Position() time.Duration
	Duration() time.Duration
	State() engine.State
	Metadata() (audio.Metadata, bool)
	Pause()
	Unpause()
	Seek(pos time.Duration)
	SetVolume(v int)
	Volume() int
	SetMuted(m bool)
	Muted() bool
}

const (
	tickInterval = 50 * time.Millisecond
	seekStep     = 5 * time.Second
	waveHeight   = 8
)

// tickMsg drives the periodic scope refresh.
type tickMsg time.Time

// Model represents the TUI state.
type Model struct {
	player Player

	samples  []int16
	position time.Duration
	duration time.Duration
	state    engine.State
	title    string
	codec    string

	width  int
	height int
}

// NewModel creates a TUI model for the given player.
func NewModel(p Player) Model {
	return Model{player: p}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		return m, tick()
	}
	return m, nil
}

// refresh pulls current playback state from the player.
func (m *Model) refresh() {
	m.samples = m.player.Scope()
	m.position = m.player.Position()
	m.duration = m.player.Duration()
	m.state = m.player.State()
	if meta, ok := m.player.Metadata(); ok {
		m.title = meta.Title
		m.codec = meta.Codec
	}
}

// handleKey processes transport keys.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		switch m.player.State() {
		case engine.StatePlaying:
			m.player.Pause()
		case engine.StatePaused:
			m.player.Unpause()
		}
	case "left":
		m.player.Seek(clampPos(m.player.Position()-seekStep, m.player.Duration()))
	case "right":
		m.player.Seek(clampPos(m.player.Position()+seekStep, m.player.Duration()))
	case "up":
		m.player.SetVolume(m.player.Volume() + 5)
	case "down":
		m.player.SetVolume(m.player.Volume() - 5)
	case "m":
		m.player.SetMuted(!m.player.Muted())
	}
	return m, nil
}

// clampPos keeps a seek target inside the track.
func clampPos(pos, duration time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	width := m.width
	if width > 80 {
		width = 80
	}

	var b strings.Builder
	title := m.title
	if title == "" {
		title = "(no track)"
	}
	fmt.Fprintf(&b, "WaveTap  %s  [%s]\n", title, m.state)
	fmt.Fprintf(&b, "%s / %s   %s\n\n",
		fmtDuration(m.position), fmtDuration(m.duration), m.codec)

	b.WriteString(renderWave(m.samples, width, waveHeight))

	b.WriteString("\nspace pause/resume · ←/→ seek · ↑/↓ volume · m mute · q quit\n")
	return b.String()
}

// fmtDuration formats a position as m:ss.
func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// renderWave draws the scope snapshot as a block-character waveform of the
// given width and height. Samples are bucketed per column; each column's
// bar height follows the bucket's peak amplitude.
func renderWave(samples []int16, width, height int) string {
	if width < 1 || height < 1 {
		return ""
	}

	levels := make([]int, width)
	if len(samples) > 0 {
		per := len(samples) / width
		if per < 1 {
			per = 1
		}
		for col := 0; col < width; col++ {
			start := col * per
			if start >= len(samples) {
				break
			}
			end := start + per
			if end > len(samples) {
				end = len(samples)
			}
			peak := 0
			for _, s := range samples[start:end] {
				v := int(s)
				if v < 0 {
					v = -v
				}
				if v > peak {
					peak = v
				}
			}
			// Round up so a full-scale peak reaches the top row.
			levels[col] = (peak*height + 32767) / 32768
		}
	}

	var b strings.Builder
	for row := height - 1; row >= 0; row-- {
		for col := 0; col < width; col++ {
			if levels[col] > row {
				b.WriteRune('█')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
