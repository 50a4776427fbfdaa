package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) SignUp(context.Context) error {
	f.loggedIn = true
	return f.record("signup", nil)
}
func (f *fakeExec) SignIn(context.Context) error {
	f.loggedIn = true
	return f.record("signin", nil)
}
func (f *fakeExec) SignOut(context.Context) error {
	f.loggedIn = false
	return f.record("signout", nil)
}
func (f *fakeExec) List(_ context.Context, a []string) error     { return f.record("list", a) }
func (f *fakeExec) Upload(_ context.Context, a []string) error   { return f.record("upload", a) }
func (f *fakeExec) Rename(_ context.Context, a []string) error   { return f.record("rename", a) }
func (f *fakeExec) Share(_ context.Context, a []string) error    { return f.record("share", a) }
func (f *fakeExec) Delete(_ context.Context, a []string) error   { return f.record("delete", a) }
func (f *fakeExec) Download(_ context.Context, a []string) error { return f.record("download", a) }
func (f *fakeExec) Usage(context.Context) error                  { return f.record("usage", nil) }
func (f *fakeExec) Search(_ context.Context, a []string) error   { return f.record("search", a) }
func (f *fakeExec) Pick(_ context.Context, a []string) error     { return f.record("pick", a) }

func silence(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func run(exec *fakeExec, input ...string) {
	r := bufio.NewReader(strings.NewReader(strings.Join(input, "\n") + "\n"))
	runREPL(context.Background(), exec, func() string { return "status" }, r)
}

func TestRunREPL_SignedOutOnlyAllowsAuth(t *testing.T) {
	lines := silence(t)
	exec := &fakeExec{}

	run(exec, "help", "list", "upload x", "exit")

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, helpSignedOut)
	assert.Contains(t, *lines, "Unknown command: list (sign in first)")
	assert.Contains(t, *lines, "Bye!")
}

func TestRunREPL_DispatchesWithArgs(t *testing.T) {
	silence(t)
	exec := &fakeExec{}

	run(exec,
		"signin",
		"l images -sort name-asc",
		"upload ./a.txt",
		"rename 1 new name",
		"share 1 bob@example.com",
		"rm 2",
		"download 1",
		"usage",
		"/ rep",
		"pick 1",
		"",
		"signout",
		"quit",
	)

	assert.Equal(t, []string{"signin", "list", "upload", "rename", "share", "delete", "download", "usage", "search", "pick", "signout"}, exec.calls)
	assert.Equal(t, []string{"images", "-sort", "name-asc"}, exec.args[1])
	assert.Equal(t, []string{"1", "new", "name"}, exec.args[3])
	assert.Equal(t, []string{"rep"}, exec.args[8])
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	silence(t)
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("usage")))
	assert.Equal(t, []string{"usage"}, exec.calls)
}
