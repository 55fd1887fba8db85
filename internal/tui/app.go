// Package tui is a terminal chat client that runs turns through a conversation.Session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/sentichat/internal/model/chat"
	"github.com/zhouzirui/sentichat/internal/service/conversation"
)

const sidebarWidth = 22

// turnDoneMsg carries the result of a finished turn back to Update.
type turnDoneMsg struct {
	result conversation.TurnResult
}

type Model struct {
	ctx      context.Context
	session  *conversation.Session
	input    textinput.Model
	spinner  spinner.Model
	busy     bool
	notice   string
	width    int
	height   int
	quitting bool
}

func NewModel(ctx context.Context, session *conversation.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "How are you feeling today?"
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		session: session,
		input:   ti,
		spinner: sp,
		width:   100,
		height:  30,
	}
}

// SetNotice shows a one-line status message above the input.
func (m *Model) SetNotice(notice string) {
	m.notice = notice
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, m.transcriptWidth()-4)
		return m, nil

	case turnDoneMsg:
		m.busy = false
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "ctrl+r":
			if m.busy {
				return m, nil
			}
			m.notice = "Started new session " + m.session.Reset()
			return m, nil

		case "enter":
			if m.busy {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.busy = true
			return m, tea.Batch(m.spinner.Tick, m.runTurn(text))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runTurn processes text off the UI goroutine.
func (m Model) runTurn(text string) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return turnDoneMsg{result: session.Process(ctx, text)}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	p := m.session.Persona()
	title := titleStyle.Render("SentiChat")
	info := dimStyle.Render(fmt.Sprintf("  %s  ·  session %s", p.Name, m.session.SessionID()))
	b.WriteString(title + info + "\n\n")

	transcript := m.renderTranscript()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, transcript, " ", m.renderSidebar()))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}
	if m.busy {
		b.WriteString(m.spinner.View() + dimStyle.Render(" thinking...") + "\n")
	} else {
		b.WriteString(m.input.View() + "\n")
	}
	b.WriteString(helpStyle.Render("  Enter: send  Ctrl+R: new session  Esc: quit"))

	return b.String()
}

func (m Model) renderTranscript() string {
	width := m.transcriptWidth()
	body := lipgloss.NewStyle().Width(width)

	var lines []string
	turns := m.session.Turns()
	if len(turns) == 0 {
		if opening := m.session.Persona().OpeningLine; opening != "" {
			lines = append(lines, assistantRoleStyle.Render(m.session.Persona().Name), body.Render(opening), "")
		}
	}
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			header := userRoleStyle.Render("You")
			if turn.Sentiment != nil {
				header += " " + Badge(*turn.Sentiment)
			}
			lines = append(lines, header, body.Render(turn.Text), "")
		default:
			lines = append(lines, assistantRoleStyle.Render(m.session.Persona().Name), body.Render(turn.Text), "")
		}
	}

	// keep the most recent lines that fit above the input area
	rendered := strings.Split(strings.Join(lines, "\n"), "\n")
	visible := m.height - 6
	if visible < 1 {
		visible = 1
	}
	if len(rendered) > visible {
		rendered = rendered[len(rendered)-visible:]
	}
	return body.Render(strings.Join(rendered, "\n"))
}

func (m Model) renderSidebar() string {
	stats := m.session.Stats()
	rows := []string{
		titleStyle.UnsetPadding().Render("Sentiment"),
		"",
		positiveBadge.Render(fmt.Sprintf("positive %d", stats.Positive)),
		negativeBadge.Render(fmt.Sprintf("negative %d", stats.Negative)),
		neutralBadge.Render(fmt.Sprintf("neutral  %d", stats.Neutral)),
		"",
		dimStyle.Render(fmt.Sprintf("%d user messages", stats.Total())),
	}
	return sidebarStyle.Width(sidebarWidth).Render(strings.Join(rows, "\n"))
}

func (m Model) transcriptWidth() int {
	w := m.width - sidebarWidth - 5
	if w < 20 {
		w = 20
	}
	return w
}

// Badge renders a sentiment label, with the emotion when one was detected.
func Badge(s chat.Sentiment) string {
	text := string(s.Label)
	if text == "" {
		text = string(chat.Neutral)
	}
	if s.HasEmotion() {
		text += " • " + s.Emotion
	}

	switch s.Label {
	case chat.Positive:
		return positiveBadge.Render(text)
	case chat.Negative:
		return negativeBadge.Render(text)
	default:
		return neutralBadge.Render(text)
	}
}
