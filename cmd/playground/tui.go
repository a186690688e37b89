package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/overtone-ai/overtone-core/core"
	"github.com/overtone-ai/overtone-core/core/events"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	phaseStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	toolStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	partialStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	headerBarStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("238"))
	listeningBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	respondingBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// orchestratorEvent wraps an orchestration event for the bubbletea loop.
type orchestratorEvent struct {
	event events.Event
}

type fatalError struct {
	err error
}

type transcriptLine struct {
	speaker string
	style   lipgloss.Style
	text    string
}

type model struct {
	viewport viewport.Model
	spinner  spinner.Model

	phase   orchestration.TurnPhase
	lines   []transcriptLine
	partial string

	width  int
	height int
	ready  bool

	err error
}

func newModel() model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return model{
		spinner: s,
		phase:   orchestration.PhaseIdle,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.renderLines())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case orchestratorEvent:
		m = m.applyEvent(msg.event)
		if m.ready {
			m.viewport.SetContent(m.renderLines())
			m.viewport.GotoBottom()
		}

	case fatalError:
		m.err = msg.err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) applyEvent(event events.Event) model {
	switch ev := event.(type) {
	case events.TurnPhaseChanged:
		m.phase = orchestration.TurnPhase(ev.To)
	case events.TurnCompleted, events.TurnFailed:
		m.phase = orchestration.PhaseIdle
	case events.UserTranscriptUpdated:
		m.partial = ev.Text
	case events.UserUtteranceFinal:
		m.partial = ""
		m.lines = append(m.lines, transcriptLine{speaker: "you", style: userStyle, text: ev.Text})
	case events.AssistantResponseFinal:
		m.lines = append(m.lines, transcriptLine{speaker: "overtone", style: assistantStyle, text: ev.Text})
	case events.AssistantResponseFallback:
		m.lines = append(m.lines, transcriptLine{speaker: "overtone", style: assistantStyle, text: ev.Text})
	case events.ToolCallStarted:
		m.lines = append(m.lines, transcriptLine{
			speaker: "tool", style: toolStyle,
			text: fmt.Sprintf("%s(%s)", ev.Name, ev.Arguments),
		})
	case events.ToolCallFailed:
		m.lines = append(m.lines, transcriptLine{
			speaker: "tool", style: toolStyle,
			text: fmt.Sprintf("%s failed: %s", ev.Name, ev.Error),
		})
	case events.TurnInterrupted:
		m.lines = append(m.lines, transcriptLine{speaker: "", style: toolStyle, text: "(interrupted)"})
	}

	if failed, ok := event.(events.TurnFailed); ok {
		m.lines = append(m.lines, transcriptLine{
			speaker: "", style: errorStyle,
			text: fmt.Sprintf("turn failed (%s): %s", failed.Class, failed.Reason),
		})
	}
	return m
}

func (m model) renderLines() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for _, line := range m.lines {
		if line.speaker != "" {
			b.WriteString(line.style.Render(line.speaker + ": "))
		}
		b.WriteString(wordwrap.String(line.text, width-12))
		b.WriteString("\n")
	}
	if m.partial != "" {
		b.WriteString(partialStyle.Render("you: " + m.partial))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) phaseBadge() string {
	label := string(m.phase)
	switch m.phase {
	case orchestration.PhaseListening, orchestration.PhaseTranscribing:
		return listeningBadge.Render("● " + label)
	case orchestration.PhaseReasoning, orchestration.PhaseToolDispatch:
		return respondingBadge.Render(m.spinner.View() + " " + label)
	case orchestration.PhaseResponding:
		return respondingBadge.Render("▶ " + label)
	default:
		return phaseStyle.Render("○ " + label)
	}
}

func (m model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("fatal: %v\n", m.err))
	}
	if !m.ready {
		return "starting..."
	}

	header := headerBarStyle.Width(m.width).Render(
		lipgloss.JoinHorizontal(lipgloss.Top,
			titleStyle.Render("overtone playground"),
			"  ",
			m.phaseBadge(),
		),
	)
	footer := helpStyle.Render("speak to start a turn · talk over a response to interrupt · q to quit")

	return header + "\n" + m.viewport.View() + "\n" + footer
}
