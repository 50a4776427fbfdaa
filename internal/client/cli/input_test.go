package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer

	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("  alice@example.com \n")), "Enter email", &out)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)
	assert.Equal(t, "Enter email\n> ", out.String())

	got, err = GetSimpleText(bufio.NewReader(strings.NewReader("partial")), "p", &out)
	require.NoError(t, err)
	assert.Equal(t, "partial", got)

	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("")), "p", &out)
	assert.Error(t, err)
}

func stubTerminal(t *testing.T, tty bool, code string, err error) {
	t.Helper()
	origTTY, origRead := isTerminal, readPassword
	isTerminal = func(int) bool { return tty }
	readPassword = func(int) ([]byte, error) { return []byte(code), err }
	t.Cleanup(func() { isTerminal, readPassword = origTTY, origRead })
}

func TestGetPasscode_Terminal(t *testing.T) {
	stubTerminal(t, true, " 123456 ", nil)
	var out bytes.Buffer

	code, err := GetPasscode(bufio.NewReader(strings.NewReader("ignored\n")), &out)
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
	assert.Contains(t, out.String(), "passcode")
}

func TestGetPasscode_TerminalError(t *testing.T) {
	stubTerminal(t, true, "", errors.New("tty gone"))
	_, err := GetPasscode(bufio.NewReader(strings.NewReader("")), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestGetPasscode_Piped(t *testing.T) {
	stubTerminal(t, false, "", nil)
	code, err := GetPasscode(bufio.NewReader(strings.NewReader("654321\n")), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "654321", code)
}

func TestConfirm(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "maybe\n": false} {
		got, err := Confirm(bufio.NewReader(strings.NewReader(in)), "Delete?", &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}
