// Package tui is an interactive terminal chat over the query engine.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/chat"
	"github.com/fabfab/herhaq/tone"
)

// Engine is the TUI-facing subset of the query engine.
type Engine interface {
	Chat(ctx context.Context, question string, cfg chat.Config) (chat.Response, error)
}

const failureAnswer = "Sorry behn, kuch masla ho gaya. Please try again."

type turn struct {
	question string
	answer   string
	sources  []chat.Source
	failed   bool
}

type answerMsg struct {
	question string
	resp     chat.Response
	err      error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	engine   Engine
	tone     tone.Processor
	logger   zerolog.Logger
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	summary  string
	status   string
	useTone  bool
	pending  bool
	ready    bool
}

// New creates a chat model. summary is shown under the header. Engine
// failures are logged to logger and shown as a generic message.
func New(engine Engine, toneProc tone.Processor, summary string, timeout time.Duration, logger zerolog.Logger) Model {
	ti := textinput.New()
	ti.Prompt = "behn> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 500
	vp := viewport.New(0, 0)
	return Model{
		engine:   engine,
		tone:     toneProc,
		logger:   logger,
		timeout:  timeout,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready. Enter to ask, ctrl+t toggles tone, ctrl+c quits.",
		useTone:  true,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 + th
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case answerMsg:
		m.pending = false
		if msg.err != nil {
			m.logger.Error().Err(msg.err).Str("question", msg.question).Msg("query failed")
			m.status = failureAnswer
			m.turns = append(m.turns, turn{question: msg.question, answer: failureAnswer, failed: true})
		} else {
			answer := msg.resp.Answer
			if m.useTone {
				answer = m.tone.Apply(answer)
			}
			m.status = fmt.Sprintf("Answered from %d source(s)", len(msg.resp.Sources))
			m.turns = append(m.turns, turn{question: msg.question, answer: answer, sources: msg.resp.Sources})
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.pending = true
			m.status = fmt.Sprintf("Thinking about %q...", q)
			m.input.SetValue("")
			return m, m.ask(q)
		case "ctrl+t":
			m.useTone = !m.useTone
			m.status = fmt.Sprintf("Tone %s", onOff(m.useTone))
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the query off the UI loop and reports back with an answerMsg.
func (m Model) ask(question string) tea.Cmd {
	engine, timeout := m.engine, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		resp, err := engine.Chat(ctx, question, chat.Config{})
		return answerMsg{question: question, resp: resp, err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("HerHaq")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("Q: " + t.question))
		sb.WriteString("\n")
		if t.failed {
			sb.WriteString(errorStyle.Render(t.answer))
			continue
		}
		sb.WriteString(t.answer)
		for _, src := range t.sources {
			sb.WriteString("\n")
			sb.WriteString(sourceStyle.Render(fmt.Sprintf("  - %s (%s) %.3f", src.Title, src.Path, src.Score)))
		}
	}
	return sb.String()
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
