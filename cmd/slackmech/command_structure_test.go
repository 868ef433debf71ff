package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand_Properties(t *testing.T) {
	// Test root command properties
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "slackmech", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.Contains(t, rootCmd.Short, "Slack")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	// Init commands to register subcommands
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	// Execute with help to init commands
	os.Args = []string{"slackmech", "--help"}
	rootCmd.Execute()

	// Check that expected subcommands are registered
	expectedCommands := []string{
		"start",
		"validate",
		"version",
	}

	subcommands := rootCmd.Commands()
	subcommandNames := make(map[string]bool)
	for _, cmd := range subcommands {
		subcommandNames[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		assert.True(t, subcommandNames[expected], "missing subcommand: %s", expected)
	}
}

// TestAllCommands_HaveUsage tests all commands have usage info
func TestAllCommands_HaveUsage(t *testing.T) {
	for _, cmd := range rootCmd.Commands() {
		assert.NotEmpty(t, cmd.Use, "command %s should have usage", cmd.Name())
		assert.NotEmpty(t, cmd.Short, "command %s should have short description", cmd.Name())
	}
}

// TestAllCommands_AreUnique tests all command names are unique
func TestAllCommands_AreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		assert.False(t, seen[cmd.Name()], "command name %s should be unique", cmd.Name())
		seen[cmd.Name()] = true
	}
}

// TestVersionCommand_Structure tests the version command and its json flag
func TestVersionCommand_Structure(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Name())
	assert.NotNil(t, versionCmd.Flags().Lookup("json"))

	// Build variables default to development values
	assert.NotEmpty(t, Version)
}

// TestValidateCommand_Structure tests the validate command flags
func TestValidateCommand_Structure(t *testing.T) {
	assert.Equal(t, "validate", validateCmd.Name())
	assert.NotNil(t, validateCmd.Flags().Lookup("config"))
	assert.NotNil(t, validateCmd.Flags().Lookup("show"))
	assert.NotNil(t, validateCmd.Flags().Lookup("json"))
}

// TestStartCommand_Structure tests the start command flags
func TestStartCommand_Structure(t *testing.T) {
	assert.Equal(t, "start", startCmd.Name())
	assert.NotNil(t, startCmd.Flags().Lookup("config"))
}
