package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// mockKnowledge records the last query and returns a canned response.
type mockKnowledge struct {
	lastQuery string
	response  *domain.QueryResponse
	err       error
}

func (m *mockKnowledge) AddDocument(_ context.Context, _ string, _ map[string]any) (*domain.IngestReport, error) {
	return nil, errors.New("not supported in tui")
}

func (m *mockKnowledge) AddFact(_ context.Context, _ string, _ map[string]any) (*domain.InsertReceipt, error) {
	return nil, errors.New("not supported in tui")
}

func (m *mockKnowledge) Retrieve(_ context.Context, _ domain.QueryRequest) (*domain.RetrievalContext, error) {
	return nil, errors.New("not supported in tui")
}

func (m *mockKnowledge) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.lastQuery = req.Query
	return m.response, m.err
}

func newTestModel(knowledge *mockKnowledge) Model {
	m := New(context.Background(), knowledge)
	resized, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return resized.(Model)
}

func TestView_LoadingBeforeFirstResize(t *testing.T) {
	m := New(context.Background(), &mockKnowledge{})
	assert.Equal(t, "Loading...", m.View())
}

func TestUpdate_EnterRunsQuery(t *testing.T) {
	knowledge := &mockKnowledge{
		response: &domain.QueryResponse{
			Answer:     "openssl 3.0 through 3.0.7",
			Confidence: 0.9,
		},
	}
	m := newTestModel(knowledge)
	m.input.SetValue("which versions are affected?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	// Running the command performs the query and yields the result message.
	msg := cmd()
	result, ok := msg.(queryResultMsg)
	require.True(t, ok)
	assert.Equal(t, "which versions are affected?", knowledge.lastQuery)

	updated, _ = m.Update(result)
	m = updated.(Model)
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "openssl 3.0 through 3.0.7")
}

func TestUpdate_EmptyInputDoesNothing(t *testing.T) {
	knowledge := &mockKnowledge{}
	m := newTestModel(knowledge)
	m.input.SetValue("   ")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	assert.Empty(t, knowledge.lastQuery)
}

func TestUpdate_SecondEnterIgnoredWhileBusy(t *testing.T) {
	knowledge := &mockKnowledge{response: &domain.QueryResponse{Answer: "x"}}
	m := newTestModel(knowledge)
	m.input.SetValue("first")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.NotNil(t, cmd)

	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.True(t, m.busy)
}

func TestUpdate_QueryErrorShownInStatus(t *testing.T) {
	knowledge := &mockKnowledge{err: errors.New("store offline")}
	m := newTestModel(knowledge)

	updated, _ := m.Update(queryResultMsg{query: "q", err: knowledge.err})
	m = updated.(Model)

	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "store offline")
}

func TestUpdate_InsufficientContextRendersPlainAnswer(t *testing.T) {
	resp := &domain.QueryResponse{
		Answer:              "The knowledge base does not contain enough information to answer this question.",
		InsufficientContext: true,
	}
	m := newTestModel(&mockKnowledge{})

	updated, _ := m.Update(queryResultMsg{query: "unknown", response: resp})
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "does not contain enough information")
	assert.NotContains(t, view, "Confidence:")
}

func TestUpdate_QuitKeys(t *testing.T) {
	m := newTestModel(&mockKnowledge{})

	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		require.NotNil(t, cmd, "key %v should quit", key)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestRenderResponse_Sources(t *testing.T) {
	similarity := 0.87
	resp := &domain.QueryResponse{
		Answer:     "grounded answer",
		Confidence: 0.8,
		Sources: []domain.SourceItem{
			{
				Content:         "advisory chunk",
				SourceType:      domain.SourceTypeDocumentChunk,
				SimilarityScore: &similarity,
			},
		},
	}

	out := renderResponse(resp)

	assert.Contains(t, out, "grounded answer")
	assert.Contains(t, out, "document_chunk")
	assert.Contains(t, out, "advisory chunk")
}
