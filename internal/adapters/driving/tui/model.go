// Package tui implements the interactive terminal UI: a grounded
// question-answering loop over the knowledge base.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driving"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	answerStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// queryResultMsg carries a finished knowledge base query back into Update.
type queryResultMsg struct {
	query    string
	response *domain.QueryResponse
	err      error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	knowledge driving.KnowledgeService
	ctx       context.Context

	input    textinput.Model
	viewport viewport.Model
	status   string
	busy     bool
	ready    bool
}

// New creates a new TUI model over the knowledge service.
func New(ctx context.Context, knowledge driving.KnowledgeService) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask the knowledge base and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		knowledge: knowledge,
		ctx:       ctx,
		input:     ti,
		viewport:  vp,
		status:    "Ready. Type a question to search the knowledge base.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header + summary, status, input frame, spacer
		vh := msg.Height - reserved - ah
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = vh
		return m, nil

	case queryResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorStyle.Render("Error: " + msg.err.Error())
			return m, nil
		}
		m.status = statusStyle.Render(fmt.Sprintf("Answered %q", msg.query))
		m.viewport.SetContent(renderResponse(msg.response))
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			return m, m.runQuery(query)
		case "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "down":
			m.viewport.ScrollDown(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Aegis Knowledge Base")
	summary := summaryStyle.Render("Answers are grounded in stored documents and facts.")
	answer := answerStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	return header + "\n" + summary + "\n" + answer + "\n" + input + "\n" + m.status
}

// runQuery performs the knowledge base query as an async command so the
// UI stays responsive during generation.
func (m Model) runQuery(query string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.knowledge.Query(m.ctx, domain.QueryRequest{Query: query})
		return queryResultMsg{query: query, response: resp, err: err}
	}
}

func renderResponse(resp *domain.QueryResponse) string {
	if resp == nil {
		return "No answer."
	}

	var b strings.Builder
	b.WriteString(resp.Answer)
	if resp.InsufficientContext {
		return b.String()
	}

	b.WriteString(fmt.Sprintf("\n\nConfidence: %.2f", resp.Confidence))
	if resp.Explanation != "" {
		b.WriteString("\n" + resp.Explanation)
	}
	for i := range resp.Sources {
		source := &resp.Sources[i]
		similarity := 0.0
		if source.SimilarityScore != nil {
			similarity = *source.SimilarityScore
		}
		line := fmt.Sprintf("\n[%d] %s (%.3f) %s", i+1, source.SourceType, similarity, truncateText(source.Content, 120))
		b.WriteString(sourceStyle.Render(line))
	}
	return b.String()
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
