package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wardenlabs/promptguard/pkg/guard"
	"github.com/wardenlabs/promptguard/pkg/guard/stream"
)

// tuiTickInterval paces the chunk-by-chunk pull so a demo run over a short
// file is still visibly "live" rather than flashing by in one frame.
const tuiTickInterval = 120 * time.Millisecond

// chunkProcessedMsg carries one Generator.Next result into the model.
type chunkProcessedMsg struct {
	outcome guard.ChunkOutcome
	more    bool
	err     error
}

// streamTUIConfig configures the live stream view.
type streamTUIConfig struct {
	Width  int
	Height int
}

// DefaultStreamTUIConfig returns a zero-sized config; the model takes its
// own width/height from the first tea.WindowSizeMsg.
func DefaultStreamTUIConfig() streamTUIConfig {
	return streamTUIConfig{}
}

// streamModel drives stream.Generator pull-by-pull, rendering each chunk's
// outcome as it arrives.
type streamModel struct {
	config streamTUIConfig
	gen    *stream.Generator
	shell  *stream.Shell

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	chunksSeen  int
	highestRisk int
	paused      bool
	done        bool
	err         error
	summaryLine string
}

func newStreamModel(gctx *guard.Context, cfg stream.Config, text string) (streamModel, error) {
	shell, err := stream.NewShell(gctx, cfg)
	if err != nil {
		return streamModel{}, err
	}
	return streamModel{
		config: DefaultStreamTUIConfig(),
		gen:    stream.NewGenerator(shell, text),
		shell:  shell,
	}, nil
}

func (m streamModel) Init() tea.Cmd {
	return tea.Tick(tuiTickInterval, func(time.Time) tea.Msg { return m.pull() })
}

func (m streamModel) pull() tea.Msg {
	outcome, more, err := m.gen.Next(context.Background())
	return chunkProcessedMsg{outcome: outcome, more: more, err: err}
}

func (m streamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight, footerHeight := 3, 2
		vpHeight := m.height - headerHeight - footerHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

	case chunkProcessedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.done = true
			return m, tea.Quit
		}
		m.chunksSeen++
		if msg.outcome.Result.Risk > m.highestRisk {
			m.highestRisk = msg.outcome.Result.Risk
		}
		m.appendChunkLog(msg.outcome)

		if !msg.more {
			m.done = true
			m.summaryLine = fmt.Sprintf("done: %d chunks, %d cumulative matches, highest risk %d",
				m.chunksSeen, len(m.shell.Matches()), m.highestRisk)
			return m, tea.Quit
		}
		if !m.paused {
			cmds = append(cmds, tea.Tick(tuiTickInterval, func(time.Time) tea.Msg { return m.pull() }))
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
			if !m.paused {
				cmds = append(cmds, tea.Tick(tuiTickInterval, func(time.Time) tea.Msg { return m.pull() }))
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *streamModel) appendChunkLog(outcome guard.ChunkOutcome) {
	line := riskBadge(outcome.Result.Risk).Render(fmt.Sprintf(" risk %3d ", outcome.Result.Risk))
	line += fmt.Sprintf("  chunk %d  pos %d", m.chunksSeen, outcome.Position)
	if len(outcome.Matches) > 0 {
		ids := make([]string, 0, len(outcome.Matches))
		for _, mt := range outcome.Matches {
			ids = append(ids, mt.PatternID)
		}
		line += "  " + matchStyle.Render(strings.Join(ids, ", "))
	}
	m.viewport.SetContent(m.viewport.View() + "\n" + line)
	m.viewport.GotoBottom()
}

func (m streamModel) View() string {
	if !m.ready {
		return "starting stream...\n"
	}

	var b strings.Builder
	b.WriteString(streamTitleStyle.Render("promptguard stream") + "\n")
	status := "running"
	if m.paused {
		status = "paused"
	}
	if m.done {
		status = "done"
	}
	b.WriteString(streamStatsStyle.Render(fmt.Sprintf("chunks=%d  highest_risk=%d  status=%s", m.chunksSeen, m.highestRisk, status)))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.done && m.summaryLine != "" {
		b.WriteString(streamStatsStyle.Render(m.summaryLine) + "\n")
	}
	b.WriteString(streamHelpStyle.Render("space: pause/resume   q: quit"))
	return b.String()
}

var (
	streamTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	streamStatsStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	streamHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

func riskBadge(risk int) lipgloss.Style {
	switch {
	case risk >= 80:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Background(lipgloss.Color("52")).Padding(0, 1)
	case risk >= 60:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Background(lipgloss.Color("58")).Padding(0, 1)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Background(lipgloss.Color("22")).Padding(0, 1)
	}
}
