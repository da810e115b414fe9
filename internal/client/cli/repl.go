package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"unicode"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Authenticated() bool
	Login(ctx context.Context, identifier string) error
	Logout(ctx context.Context) error
	Users(ctx context.Context) error
	Firmware(ctx context.Context) error
	Back(ctx context.Context) error
	Refresh(ctx context.Context) error
	Select(ctx context.Context, path string) error
	Drop(ctx context.Context, path string) error
	Remove(ctx context.Context) error
	SetVersion(ctx context.Context, version string) error
	SetDescription(ctx context.Context, description string) error
	Upload(ctx context.Context) error
	Activate(ctx context.Context, ref string) error
	Delete(ctx context.Context, ref string) error
	Confirm(ctx context.Context) error
	Cancel(ctx context.Context) error
	Download(ctx context.Context, ref string) error
	Dismiss(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login [identifier], help, exit"
	helpLoggedIn  = `Available commands:
  users | firmware | back | refresh        navigate and reload
  select <path> | drop <path> | remove    choose the firmware file
  version [text] | description [text]     fill the upload form
  upload                                  send the selected file
  activate <id|#> | download <id|#>       act on a firmware record
  delete <id|#> then confirm | cancel     remove a firmware record
  dismiss | logout | exit`
)

// runREPL starts a simple read–eval–print loop for the admin console.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Free-text arguments (paths, version,
// description) are taken verbatim from the rest of the line. The loop exits
// on EOF or when the user types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers report
// their own outcome through notices and logs.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("iot %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		cmd, rest := splitCommand(line)
		if cmd == "" {
			continue
		}

		switch cmd {
		case "help":
			if a.Authenticated() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login":
			_ = a.Login(ctx, rest)

		case "logout":
			_ = a.Logout(ctx)

		case "u", "users":
			_ = a.Users(ctx)

		case "f", "firmware":
			_ = a.Firmware(ctx)

		case "back":
			_ = a.Back(ctx)

		case "r", "refresh":
			_ = a.Refresh(ctx)

		case "select":
			if rest == "" {
				printlnFn("Usage: select <path>")
				continue
			}
			_ = a.Select(ctx, rest)

		case "drop":
			if rest == "" {
				printlnFn("Usage: drop <path>")
				continue
			}
			_ = a.Drop(ctx, rest)

		case "remove":
			_ = a.Remove(ctx)

		case "version":
			_ = a.SetVersion(ctx, rest)

		case "description":
			_ = a.SetDescription(ctx, rest)

		case "upload":
			_ = a.Upload(ctx)

		case "activate":
			if rest == "" {
				printlnFn("Usage: activate <id|#>")
				continue
			}
			_ = a.Activate(ctx, rest)

		case "delete":
			if rest == "" {
				printlnFn("Usage: delete <id|#>")
				continue
			}
			_ = a.Delete(ctx, rest)

		case "confirm":
			_ = a.Confirm(ctx)

		case "cancel":
			_ = a.Cancel(ctx)

		case "download":
			if rest == "" {
				printlnFn("Usage: download <id|#>")
				continue
			}
			_ = a.Download(ctx, rest)

		case "dismiss":
			_ = a.Dismiss(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

// splitCommand separates the command word from the rest of the line, which
// keeps its inner spacing.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return strings.ToLower(line), ""
	}
	return strings.ToLower(line[:i]), strings.TrimSpace(line[i:])
}
