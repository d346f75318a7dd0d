package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCmd_HasProviderSubcommands(t *testing.T) {
	names := make([]string, 0, len(authCmd.Commands()))
	for _, sub := range authCmd.Commands() {
		names = append(names, sub.Use)
	}
	assert.Contains(t, names, "osidb")
	assert.Contains(t, names, "llm")
	assert.Contains(t, names, "embedding")
}

func TestAuth_StoreNotConfigured(t *testing.T) {
	old := configStore
	configStore = nil
	defer func() { configStore = old }()

	_, err := runCLI(t, "auth", "osidb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config store not configured")
}
