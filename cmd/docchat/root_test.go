package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/docchat-server/internal/server"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{"serve", "migrate"} {
		assert.Contains(t, buf.String(), sub, "Help missing %q command", sub)
	}
}

func TestMigrateCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewMigrateCmd()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	assert.True(t, names["up"])
	assert.True(t, names["status"])
	assert.True(t, names["down"])
}

func TestMigrateCommand_RejectsArguments(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "up", "extra"})

	require.Error(t, cmd.Execute())
}

func TestSecurityLayer(t *testing.T) {
	assert.IsType(t, &server.TLSListener{}, securityLayer(true, "cert.pem", "key.pem"))
	assert.IsType(t, &server.PlainListener{}, securityLayer(false, "cert.pem", "key.pem"))
}
