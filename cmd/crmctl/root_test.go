package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"signup", "login", "logout", "whoami", "companies", "leads"}, names)
}

func TestLoginValidatesBeforeCallingServer(t *testing.T) {
	root := newRootCmd()
	var stderr bytes.Buffer
	root.SetErr(&stderr)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{
		"login", "--email", "not-an-email", "--password", "x",
		"--server", "http://127.0.0.1:1",
		"--token-file", filepath.Join(t.TempDir(), "token.json"),
	})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "email")
}

func TestWhoamiWithoutToken(t *testing.T) {
	root := newRootCmd()
	root.SetErr(&bytes.Buffer{})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{
		"whoami",
		"--server", "http://127.0.0.1:1",
		"--token-file", filepath.Join(t.TempDir(), "token.json"),
	})

	assert.ErrorIs(t, root.Execute(), errNotSignedIn)
}
