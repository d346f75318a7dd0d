package cli

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConfigStore struct {
	values map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: map[string]any{}}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if v, ok := m.values[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	if v, ok := m.values[key].(int); ok {
		return v
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	if v, ok := m.values[key].(float64); ok {
		return v
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	if v, ok := m.values[key].(bool); ok {
		return v
	}
	return false
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }

func setupTestConfig(store *mockConfigStore) func() {
	old := configStore
	configStore = store
	return func() { configStore = old }
}

func TestSettingsShow(t *testing.T) {
	store := newMockConfigStore()
	store.values["llm.provider"] = "ollama"
	store.values["rag.top_k_documents"] = 5
	store.values["llm.api_key"] = "sk-1234567890abcdef"
	defer setupTestConfig(store)()

	out, err := runCLI(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "llm.provider: ollama")
	assert.Contains(t, out, "rag.top_k_documents: 5")
	assert.Contains(t, out, "storage.provider: (not set)")
	assert.Contains(t, out, "llm.api_key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
}

func TestSettingsSet(t *testing.T) {
	store := newMockConfigStore()
	defer setupTestConfig(store)()

	out, err := runCLI(t, "settings", "set", "llm.provider", "anthropic")

	require.NoError(t, err)
	assert.Contains(t, out, "Set llm.provider = anthropic")
	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
}

func TestSettingsSet_MasksSecrets(t *testing.T) {
	store := newMockConfigStore()
	defer setupTestConfig(store)()

	out, err := runCLI(t, "settings", "set", "osidb.token", "tok-1234567890abcdef")

	require.NoError(t, err)
	assert.Contains(t, out, "Set osidb.token = tok-...cdef")
	assert.NotContains(t, out, "tok-1234567890abcdef")
}

func TestSettingsSet_EmptyKey(t *testing.T) {
	defer setupTestConfig(newMockConfigStore())()

	_, err := runCLI(t, "settings", "set", " ", "value")
	require.Error(t, err)
}

func TestSettings_StoreNotConfigured(t *testing.T) {
	old := configStore
	configStore = nil
	defer func() { configStore = old }()

	_, err := runCLI(t, "settings", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config store not configured")
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskSecret(tt.input))
		})
	}
}
