package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doctorTestConfig points every networked backend at a port nothing
// listens on, disables vision, and uses the in-memory vector store.
const doctorTestConfig = `
[parser]
base_url = "http://127.0.0.1:1"

[vision]
enabled = false

[embedding]
base_url = "http://127.0.0.1:1"

[llm]
base_url = "http://127.0.0.1:1"

[vector]
provider = "memory"
`

func TestDoctorCmd_Use(t *testing.T) {
	assert.Equal(t, "doctor", doctorCmd.Use)
}

func TestDoctorCmd_Short(t *testing.T) {
	assert.Equal(t, "Check connectivity to all backend services", doctorCmd.Short)
}

func TestDoctorCmd_ReportsBackendStatus(t *testing.T) {
	// Pin the environment so ambient overrides cannot retarget the
	// backends under test.
	t.Setenv("TOME_OLLAMA_URL", "")
	t.Setenv("TOME_UNSTRUCTURED_URL", "")

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(doctorTestConfig), 0600))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"doctor", "--config", cfgPath})
	defer func() {
		rootCmd.SetArgs(nil)
		cfgFile = "" // Reset flag
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 of the backend services are unreachable")

	out := buf.String()
	assert.Contains(t, out, "Checking backend services...")
	assert.Contains(t, out, "parser")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "disabled  (vision.enabled = false)")
	assert.Contains(t, out, "vectors")
	assert.Contains(t, out, "OK")
}
