package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Sessions Command Tests

func TestSessionsCmd_Use(t *testing.T) {
	assert.Equal(t, "sessions", sessionsCmd.Use)
}

func TestSessionsCmd_Short(t *testing.T) {
	assert.Equal(t, "Inspect stored conversation sessions", sessionsCmd.Short)
}

func TestSessionsCmd_HasSubcommands(t *testing.T) {
	commands := sessionsCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "list")
	assert.Contains(t, commandNames, "show")
}

func TestSessionsCmd_DefaultsToList(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sessions"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Sessions:")
	assert.Contains(t, buf.String(), "study")
}

// Sessions List Tests

func TestSessionsListCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sessions", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Sessions:")
	assert.Contains(t, out, "study")
	assert.Contains(t, out, "Turns: 2")
	assert.Contains(t, out, "Total: 1 sessions")
}

func TestSessionsListCmd_Empty(t *testing.T) {
	oldService := sessionService
	sessionService = &mockSessionService{}
	defer func() {
		sessionService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sessions", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No sessions found.")
}

func TestSessionsListCmd_ServiceError(t *testing.T) {
	oldService := sessionService
	sessionService = &mockSessionService{err: errors.New("database locked")}
	defer func() {
		sessionService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sessions", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list sessions")
}

// Sessions Show Tests

func TestSessionsShowCmd_Use(t *testing.T) {
	assert.Equal(t, "show [session-id]", sessionsShowCmd.Use)
}

func TestSessionsShowCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sessions", "show"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSessionsShowCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sessions", "show", "study"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Session: study")
	assert.Contains(t, out, "Turns:   2")
	assert.Contains(t, out, "[1] Q: How tall is the tower?")
	assert.Contains(t, out, "A: About 6.7 m.")
	assert.Contains(t, out, "Summary: Tower height and shadow geometry.")
}

func TestSessionsShowCmd_NotFound(t *testing.T) {
	oldService := sessionService
	sessionService = &mockSessionService{}
	defer func() {
		sessionService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sessions", "show", "missing"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "session not found: missing")
}
