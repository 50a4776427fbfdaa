package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	SignUp(ctx context.Context) error
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Usage(ctx context.Context) error
	Search(ctx context.Context, args []string) error
	Pick(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: signup, signin, exit"
	helpSignedIn  = "Available commands: (l)ist [documents|images|media|others] [-sort s] [-query q] [-limit n], " +
		"upload <path>, rename <n> <name>, share <n> [email...], delete <n>, download <n>, usage, " +
		"search [text], pick <n>, signout, exit"
)

// runREPL reads commands line by line and dispatches them to a. It returns
// on EOF or "exit"/"quit". Handlers report their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("drive %s > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				printlnFn(helpSignedOut)
			case "signup", "register":
				_ = a.SignUp(ctx)
			case "signin", "login":
				_ = a.SignIn(ctx)
			case "exit", "quit":
				printlnFn("Bye!")
				return
			default:
				printlnFn("Unknown command:", cmd, "(sign in first)")
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpSignedIn)
		case "l", "list":
			_ = a.List(ctx, args)
		case "upload":
			_ = a.Upload(ctx, args)
		case "rename":
			_ = a.Rename(ctx, args)
		case "share":
			_ = a.Share(ctx, args)
		case "delete", "rm":
			_ = a.Delete(ctx, args)
		case "download":
			_ = a.Download(ctx, args)
		case "usage":
			_ = a.Usage(ctx)
		case "search", "/":
			_ = a.Search(ctx, args)
		case "pick":
			_ = a.Pick(ctx, args)
		case "signout", "logout":
			_ = a.SignOut(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
