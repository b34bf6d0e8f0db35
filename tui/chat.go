// Package tui is the terminal chat surface over the engine.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpujadas/gridchat/engine"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// Model is the bubbletea model for the chat view.
type Model struct {
	engine    *engine.Engine
	sessionID string
	provider  string
	modelName string

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	lines        []line
	isProcessing bool
	width        int
	height       int
	ready        bool
}

type line struct {
	role    string
	content string
}

type replyMsg struct {
	content string
}

// New creates the chat view for one session.
func New(eng *engine.Engine, sessionID, provider, modelName string) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false) // Enter sends

	s := spinner.New(spinner.WithSpinner(spinner.Line))
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	m := &Model{
		engine:    eng,
		sessionID: sessionID,
		provider:  provider,
		modelName: modelName,
		textarea:  ta,
		spinner:   s,
	}

	// Replay anything already visible for this session.
	for _, msg := range eng.VisibleHistory(sessionID) {
		m.lines = append(m.lines, line{role: string(msg.Role), content: msg.Content})
	}

	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textarea.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-7)
			m.ready = true
			m.refresh()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 7
		}
		m.textarea.SetWidth(msg.Width - 4)
		m.textarea.SetHeight(3)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlD:
			return m, tea.Quit

		case tea.KeyEnter:
			if !m.isProcessing {
				value := strings.TrimSpace(m.textarea.Value())
				if value != "" {
					m.textarea.Reset()
					if cmd := m.handleInput(value); cmd != nil {
						cmds = append(cmds, cmd)
					}
				}
			}
			return m, tea.Batch(cmds...)

		case tea.KeyCtrlC:
			if m.textarea.Value() != "" {
				m.textarea.Reset()
			} else {
				return m, tea.Quit
			}
		}

	case replyMsg:
		m.isProcessing = false
		m.lines = append(m.lines, line{role: "assistant", content: msg.content})
		m.refresh()

	case spinner.TickMsg:
		if m.isProcessing {
			s, cmd := m.spinner.Update(msg)
			m.spinner = s
			cmds = append(cmds, cmd)
		}
	}

	if !m.isProcessing {
		ta, cmd := m.textarea.Update(msg)
		m.textarea = ta
		cmds = append(cmds, cmd)
	}

	vp, cmd := m.viewport.Update(msg)
	m.viewport = vp
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if !m.ready {
		return "\nInitializing..."
	}

	var b strings.Builder

	header := headerStyle.Render(fmt.Sprintf("gridchat | %s | %s", m.provider, m.modelName))
	tools := m.engine.ToolNames()
	b.WriteString(header + "\n")
	b.WriteString(noticeStyle.Render(fmt.Sprintf("%d tools loaded | /help /tools /clear | ctrl+d to quit", len(tools))) + "\n")
	b.WriteString(strings.Repeat("─", m.width) + "\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.isProcessing {
		b.WriteString(fmt.Sprintf("%s Thinking...\n", m.spinner.View()))
	} else {
		b.WriteString(m.textarea.View())
	}

	return b.String()
}

func (m *Model) handleInput(input string) tea.Cmd {
	if strings.HasPrefix(input, "/") {
		switch input {
		case "/help":
			m.lines = append(m.lines, line{role: "notice", content: helpText})
		case "/tools":
			names := m.engine.ToolNames()
			if len(names) == 0 {
				m.lines = append(m.lines, line{role: "notice", content: "No tools registered."})
			} else {
				m.lines = append(m.lines, line{role: "notice", content: "Tools: " + strings.Join(names, ", ")})
			}
		case "/clear":
			m.engine.ClearSession(m.sessionID)
			m.lines = nil
		default:
			m.lines = append(m.lines, line{role: "notice", content: "Unknown command. Try /help."})
		}
		m.refresh()
		return nil
	}

	m.lines = append(m.lines, line{role: "user", content: input})
	m.refresh()
	m.isProcessing = true

	eng, sessionID := m.engine, m.sessionID
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return replyMsg{content: eng.HandleTurn(context.Background(), sessionID, input)}
	})
}

func (m *Model) refresh() {
	var content strings.Builder
	for _, l := range m.lines {
		switch l.role {
		case "user":
			content.WriteString("\n" + userStyle.Render("> "+l.content) + "\n")
		case "assistant":
			content.WriteString("\n" + l.content + "\n")
		case "notice":
			content.WriteString("\n" + noticeStyle.Render(l.content) + "\n")
		}
	}
	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

const helpText = `Commands:
/help   - show this help
/tools  - list registered tools
/clear  - reset the conversation`
