package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.Equal(t, "Print the version number", versionCmd.Short)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	defer func() { version = originalVersion }()

	SetVersion("1.2.3")
	stdout, _, err := run([]string{"version"}, "")

	assert.NoError(t, err)
	assert.Contains(t, stdout, "spo version 1.2.3")
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	originalVersion := version
	defer func() { version = originalVersion }()

	version = "dev"
	SetVersion("")
	assert.Equal(t, "dev", version)
}

func TestServeAndMCP_RequireModels(t *testing.T) {
	defer setupTestServices(&fakeOptimizer{}, newFakeSettings())()
	SetModelsError(assert.AnError)

	for _, args := range [][]string{{"serve"}, {"mcp", "serve"}} {
		_, _, err := run(args, "")
		assert.ErrorIs(t, err, assert.AnError, args)
	}
}

func TestRequireOptimizer_NotConfigured(t *testing.T) {
	defer setupTestServices(nil, nil)()
	optimizer = nil

	assert.EqualError(t, requireOptimizer(), "optimizer not configured")
	assert.EqualError(t, requireHistory(), "optimizer not configured")
}
