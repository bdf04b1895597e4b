package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMCPCmd_Use(t *testing.T) {
	assert.Equal(t, "mcp", mcpCmd.Use)
	assert.Contains(t, mcpCmd.Long, "stdio")
	assert.NotNil(t, mcpCmd.Flags().Lookup("http"))
}

func TestMCPPorts_FromServices(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ports := mcpPorts()

	assert.NoError(t, ports.Validate())
	assert.Equal(t, "/lib", ports.LibraryRoot)
	assert.Equal(t, 0.7, ports.ConfirmBelow)
	assert.Equal(t, []string{"ML", "Physics"}, ports.Folders())
}

func TestMCPPorts_WithoutServices(t *testing.T) {
	services = nil

	ports := mcpPorts()

	assert.Error(t, ports.Validate())
}
